package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/emilythestrangee/minifeed/backend/internal/models"
)

const (
	usersFile = "users.json"
	postsFile = "posts.json"
)

// FileRepository stores each collection as a JSON array in its own file,
// rewritten whole on every replace.
type FileRepository struct {
	usersPath string
	postsPath string
}

// NewFileRepository prepares dir and creates empty collections for any
// missing file.
func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	r := &FileRepository{
		usersPath: filepath.Join(dir, usersFile),
		postsPath: filepath.Join(dir, postsFile),
	}
	for _, p := range []string{r.usersPath, r.postsPath} {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			if err := os.WriteFile(p, []byte("[]"), 0o644); err != nil {
				return nil, fmt.Errorf("create %s: %w", p, err)
			}
			log.Printf("📁 Created empty collection %s", p)
		}
	}
	return r, nil
}

func (r *FileRepository) LoadUsers(_ context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := readJSON(r.usersPath, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *FileRepository) ReplaceUsers(_ context.Context, users []models.User) error {
	if users == nil {
		users = []models.User{}
	}
	return writeJSON(r.usersPath, users)
}

func (r *FileRepository) LoadPosts(_ context.Context) ([]models.Post, error) {
	posts := []models.Post{}
	if err := readJSON(r.postsPath, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *FileRepository) ReplacePosts(_ context.Context, posts []models.Post) error {
	if posts == nil {
		posts = []models.Post{}
	}
	return writeJSON(r.postsPath, posts)
}

func (r *FileRepository) Close() error { return nil }

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// writeJSON replaces path through a temp file and rename.
func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
