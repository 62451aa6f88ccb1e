package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// LocalConfig configures LocalStorage.
// PublicURL prefixes references returned by URL; empty keeps them relative.
type LocalConfig struct {
	PublicDir string `env:"PUBLIC_DIR" envDefault:"public"`
	PublicURL string `env:"PUBLIC_URL"`
}

// LocalStorage keeps files under a base directory. Paths escaping it are rejected.
type LocalStorage struct {
	baseDir string
	baseURL string
}

// NewLocalStorage resolves cfg.PublicDir to an absolute path and creates it.
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	if cfg.PublicDir == "" {
		return nil, ErrInvalidConfig
	}

	abs, err := filepath.Abs(cfg.PublicDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToGetAbsolutePath, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToCreateDirectory, err)
	}

	baseURL := cfg.PublicURL
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &LocalStorage{baseDir: abs, baseURL: baseURL}, nil
}

// Dir returns the absolute base directory.
func (s *LocalStorage) Dir() string {
	return s.baseDir
}

// Save copies the upload into path. Partial files are removed on failure.
func (s *LocalStorage) Save(ctx context.Context, fh *multipart.FileHeader, path string) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fh == nil {
		return nil, ErrNilFileHeader
	}

	key, absPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToCreateDirectory, err)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToOpenFile, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToCreateFile, err)
	}

	written, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(absPath)
		return nil, fmt.Errorf("%w: %w", ErrFailedToWriteFile, err)
	}

	return &File{
		Filename:     filepath.Base(absPath),
		Size:         written,
		MIMEType:     detectOrDefault(fh),
		Extension:    GetExtension(fh),
		RelativePath: key,
	}, nil
}

// Move renames src to dst within the base directory.
func (s *LocalStorage) Move(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, absSrc, err := s.resolve(src)
	if err != nil {
		return err
	}
	_, absDst, err := s.resolve(dst)
	if err != nil {
		return err
	}

	if _, err := os.Stat(absSrc); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, src)
		}
		return fmt.Errorf("%w: %w", ErrFailedToStatPath, err)
	}
	if err := os.MkdirAll(filepath.Dir(absDst), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToCreateDirectory, err)
	}
	if err := os.Rename(absSrc, absDst); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToMoveFile, err)
	}
	return nil
}

func (s *LocalStorage) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, absPath, err := s.resolve(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("%w: %w", ErrFailedToStatPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}
	if err := os.Remove(absPath); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToDeleteFile, err)
	}
	return nil
}

func (s *LocalStorage) Exists(ctx context.Context, path string) bool {
	if ctx.Err() != nil {
		return false
	}
	_, absPath, err := s.resolve(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(absPath)
	return err == nil
}

// URL returns PublicURL + path, or the clean relative path when PublicURL is empty.
func (s *LocalStorage) URL(path string) string {
	key, err := cleanKey(path)
	if err != nil {
		return ""
	}
	return s.baseURL + key
}

func (s *LocalStorage) resolve(path string) (string, string, error) {
	key, err := cleanKey(path)
	if err != nil {
		return "", "", err
	}

	abs := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if !strings.HasPrefix(abs, s.baseDir+string(filepath.Separator)) {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	return key, abs, nil
}
