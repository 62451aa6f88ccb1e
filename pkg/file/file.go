// Package file stores uploaded files on the local filesystem or in S3.
package file

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
)

// File represents stored file metadata.
type File struct {
	Filename     string
	Size         int64
	MIMEType     string
	Extension    string
	RelativePath string
}

// Storage is implemented by LocalStorage and S3Storage.
type Storage interface {
	// Save stores the uploaded file at path.
	Save(ctx context.Context, fh *multipart.FileHeader, path string) (*File, error)
	// Move relocates a stored file from src to dst, replacing dst if present.
	Move(ctx context.Context, src, dst string) error
	// Delete removes a single file.
	Delete(ctx context.Context, path string) error
	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) bool
	// URL returns the public reference for path.
	URL(path string) string
}

// imageExtensions maps accepted image content types to the extension files are stored under.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// IsImage sniffs the file content and reports whether it is a raster image.
func IsImage(fh *multipart.FileHeader) bool {
	_, ok := ImageExtension(fh)
	return ok
}

// ImageExtension returns the extension matching the sniffed image type.
// The client supplied filename is ignored.
func ImageExtension(fh *multipart.FileHeader) (string, bool) {
	mimeType, err := GetMIMEType(fh)
	if err != nil {
		return "", false
	}
	ext, ok := imageExtensions[mimeType]
	return ext, ok
}

// GetExtension returns the lower-cased file extension including the dot.
func GetExtension(fh *multipart.FileHeader) string {
	if fh == nil {
		return ""
	}
	return strings.ToLower(filepath.Ext(fh.Filename))
}

// GetMIMEType detects the MIME type from the first 512 bytes of content.
func GetMIMEType(fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", ErrNilFileHeader
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFailedToOpenFile, err)
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("%w: %w", ErrFailedToReadFile, err)
	}

	mimeType, _, _ := strings.Cut(http.DetectContentType(buf[:n]), ";")
	return mimeType, nil
}

// ValidateSize checks the declared upload size against maxBytes.
func ValidateSize(fh *multipart.FileHeader, maxBytes int64) error {
	if fh == nil {
		return ErrNilFileHeader
	}
	if fh.Size > maxBytes {
		return fmt.Errorf("file size %d bytes exceeds %d bytes limit: %w", fh.Size, maxBytes, ErrFileTooLarge)
	}
	return nil
}

func detectOrDefault(fh *multipart.FileHeader) string {
	mimeType, err := GetMIMEType(fh)
	if err != nil || mimeType == "" {
		return "application/octet-stream"
	}
	return mimeType
}

// cleanKey normalizes a storage path to a slash-separated relative key.
func cleanKey(path string) (string, error) {
	key := strings.TrimPrefix(filepath.ToSlash(filepath.Clean("/"+path)), "/")
	if key == "" || key == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	if slices.Contains(strings.Split(filepath.ToSlash(path), "/"), "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return key, nil
}
