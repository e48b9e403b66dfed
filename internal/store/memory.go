package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/emilythestrangee/minifeed/backend/internal/models"
)

// MemoryRepository keeps both collections in process. Values are deep
// copied through JSON on every load and replace, so callers never share
// slices or maps with the repository.
type MemoryRepository struct {
	users []byte
	posts []byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: []byte("[]"), posts: []byte("[]")}
}

func (m *MemoryRepository) LoadUsers(_ context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := json.Unmarshal(m.users, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (m *MemoryRepository) ReplaceUsers(_ context.Context, users []models.User) error {
	if users == nil {
		users = []models.User{}
	}
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	m.users = raw
	return nil
}

func (m *MemoryRepository) LoadPosts(_ context.Context) ([]models.Post, error) {
	posts := []models.Post{}
	if err := json.Unmarshal(m.posts, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

func (m *MemoryRepository) ReplacePosts(_ context.Context, posts []models.Post) error {
	if posts == nil {
		posts = []models.Post{}
	}
	raw, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("encode posts: %w", err)
	}
	m.posts = raw
	return nil
}

func (m *MemoryRepository) Close() error { return nil }
