package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps uploads in a directory on disk.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	log.Printf("🖼️  Serving uploads from %s", dir)
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Save(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	if !validName(name) {
		return fmt.Errorf("invalid object name %q", name)
	}

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	return f.Close()
}

func (s *LocalStore) Open(_ context.Context, name string) (*Object, error) {
	if !validName(name) {
		return nil, ErrNotFound
	}

	obj, err := s.open(name)
	if err == nil {
		return obj, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	prefix := timestampPrefix(name)
	if prefix == "" {
		return nil, ErrNotFound
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			return s.open(e.Name())
		}
	}
	return nil, ErrNotFound
}

func (s *LocalStore) open(name string) (*Object, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}
	return &Object{
		Name:        name,
		Size:        info.Size(),
		ContentType: contentTypeOf(name),
		Body:        f,
	}, nil
}
