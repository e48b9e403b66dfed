// Package media stores uploaded post images and serves them back by name.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"
)

// PublicPrefix is the URL path under which stored images are served.
const PublicPrefix = "/image-uploads/"

const defaultExt = ".png"

var ErrNotFound = errors.New("image not found")

// Object is an opened image. Callers must close Body.
type Object struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.ReadCloser
}

// Store persists uploads. Open falls back to the first object sharing the
// timestamp prefix of name when there is no exact match.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (*Object, error)
}

// ObjectName names an upload by its arrival time in unix milliseconds,
// keeping the original extension.
func ObjectName(original string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" || ext == "." {
		ext = defaultExt
	}
	return fmt.Sprintf("%d%s", now.UnixMilli(), ext)
}

// PublicPath is the value stored on a post for an uploaded image.
func PublicPath(name string) string {
	return PublicPrefix + name
}

// timestampPrefix is the part of name before the first dash.
func timestampPrefix(name string) string {
	prefix, _, _ := strings.Cut(name, "-")
	return prefix
}

// validName rejects anything that could escape the upload directory.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

func contentTypeOf(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
