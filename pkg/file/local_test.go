package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/file"
)

func newLocal(t *testing.T, publicURL string) (*file.LocalStorage, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "public")
	s, err := file.NewLocalStorage(file.LocalConfig{PublicDir: dir, PublicURL: publicURL})
	require.NoError(t, err)
	return s, s.Dir()
}

func TestNewLocalStorage_InvalidConfig(t *testing.T) {
	t.Parallel()
	_, err := file.NewLocalStorage(file.LocalConfig{})
	assert.ErrorIs(t, err, file.ErrInvalidConfig)
}

func TestLocalStorage_SaveMoveDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, dir := newLocal(t, "")

	saved, err := s.Save(ctx, createFileHeader(t, "face.png", pngHeader), "tmp/abc_face.png")
	require.NoError(t, err)
	assert.Equal(t, "tmp/abc_face.png", saved.RelativePath)
	assert.Equal(t, "image/png", saved.MIMEType)
	assert.Equal(t, int64(len(pngHeader)), saved.Size)
	assert.True(t, s.Exists(ctx, "tmp/abc_face.png"))

	require.NoError(t, s.Move(ctx, "tmp/abc_face.png", "profileAvatar/u1_face.png"))
	assert.False(t, s.Exists(ctx, "tmp/abc_face.png"))
	assert.True(t, s.Exists(ctx, "profileAvatar/u1_face.png"))

	data, err := os.ReadFile(filepath.Join(dir, "profileAvatar", "u1_face.png"))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	require.NoError(t, s.Delete(ctx, "profileAvatar/u1_face.png"))
	assert.False(t, s.Exists(ctx, "profileAvatar/u1_face.png"))
	assert.ErrorIs(t, s.Delete(ctx, "profileAvatar/u1_face.png"), file.ErrFileNotFound)
}

func TestLocalStorage_Move_MissingSource(t *testing.T) {
	t.Parallel()
	s, _ := newLocal(t, "")
	err := s.Move(context.Background(), "tmp/missing.png", "profileAvatar/x.png")
	assert.ErrorIs(t, err, file.ErrFileNotFound)
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newLocal(t, "")

	_, err := s.Save(ctx, createFileHeader(t, "x.png", pngHeader), "../outside.png")
	assert.ErrorIs(t, err, file.ErrInvalidPath)
	assert.ErrorIs(t, s.Move(ctx, "tmp/a", "../../b"), file.ErrInvalidPath)
	assert.False(t, s.Exists(ctx, "../"))
}

func TestLocalStorage_URL(t *testing.T) {
	t.Parallel()

	relative, _ := newLocal(t, "")
	assert.Equal(t, "profileAvatar/u1_face.png", relative.URL("profileAvatar/u1_face.png"))

	public, _ := newLocal(t, "https://cdn.example.com")
	assert.Equal(t, "https://cdn.example.com/profileAvatar/u1_face.png", public.URL("/profileAvatar/u1_face.png"))
}
