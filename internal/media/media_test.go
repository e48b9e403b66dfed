package media

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	at := time.UnixMilli(1700000000123)

	assert.Equal(t, "1700000000123.jpg", ObjectName("holiday.JPG", at))
	assert.Equal(t, "1700000000123.png", ObjectName("blob", at))
	assert.Equal(t, "/image-uploads/1700000000123.png", PublicPath(ObjectName("", at)))
}

func readAll(t *testing.T, obj *Object) string {
	t.Helper()
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	return string(data)
}

func TestLocalStore_SaveAndOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "1700.png", strings.NewReader("img"), 3, "image/png"))

	obj, err := s.Open(ctx, "1700.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, int64(3), obj.Size)
	assert.Equal(t, "img", readAll(t, obj))
}

func TestLocalStore_TimestampPrefixFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1700000000000.jpg"), []byte("jpeg"), 0o644))
	s, err := NewLocalStore(dir)
	require.NoError(t, err)

	obj, err := s.Open(context.Background(), "1700000000000-renamed.png")
	require.NoError(t, err)
	assert.Equal(t, "1700000000000.jpg", obj.Name)
	assert.Equal(t, "jpeg", readAll(t, obj))

	_, err = s.Open(context.Background(), "1800000000000-other.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../secret", "a/b.png", `..\x`, "..", ""} {
		_, err := s.Open(context.Background(), name)
		assert.ErrorIs(t, err, ErrNotFound, name)
	}
	assert.Error(t, s.Save(context.Background(), "../x.png", strings.NewReader(""), 0, ""))
}
