// Package store persists the user and post collections behind a
// load-all / replace-all repository.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/emilythestrangee/minifeed/backend/internal/models"
)

// Repository loads and replaces whole collections.
type Repository interface {
	LoadUsers(ctx context.Context) ([]models.User, error)
	ReplaceUsers(ctx context.Context, users []models.User) error
	LoadPosts(ctx context.Context) ([]models.Post, error)
	ReplacePosts(ctx context.Context, posts []models.Post) error
	Close() error
}

// Corpus is one loaded copy of both collections.
type Corpus struct {
	Users []models.User
	Posts []models.Post
}

// User returns a pointer into Users, or nil.
func (c *Corpus) User(id string) *models.User {
	for i := range c.Users {
		if c.Users[i].ID == id {
			return &c.Users[i]
		}
	}
	return nil
}

func (c *Corpus) UserByUsername(username string) *models.User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}

// Post returns a pointer into Posts, or nil.
func (c *Corpus) Post(id string) *models.Post {
	for i := range c.Posts {
		if c.Posts[i].ID == id {
			return &c.Posts[i]
		}
	}
	return nil
}

// Changes tells Update which collections to write back.
type Changes uint8

const (
	UsersChanged Changes = 1 << iota
	PostsChanged

	NoChanges Changes = 0
)

// Store serializes mutations over a Repository. Reads run concurrently;
// Update holds an exclusive lock across load, mutate and replace, so writers
// in this process cannot lose each other's updates.
type Store struct {
	repo Repository
	mu   sync.RWMutex
}

func New(repo Repository) *Store {
	return &Store{repo: repo}
}

// Read loads both collections.
func (s *Store) Read(ctx context.Context) (*Corpus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(ctx)
}

// Update loads the corpus, applies fn and replaces the collections fn
// reports as changed. Nothing is written when fn returns an error.
func (s *Store) Update(ctx context.Context, fn func(c *Corpus) (Changes, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx)
	if err != nil {
		return err
	}

	changes, err := fn(c)
	if err != nil {
		return err
	}

	if changes&UsersChanged != 0 {
		if err := s.repo.ReplaceUsers(ctx, c.Users); err != nil {
			return fmt.Errorf("replace users: %w", err)
		}
	}
	if changes&PostsChanged != 0 {
		if err := s.repo.ReplacePosts(ctx, c.Posts); err != nil {
			return fmt.Errorf("replace posts: %w", err)
		}
	}
	return nil
}

// HealthChecker is implemented by repositories that can report backend
// status.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

// Health reports the repository status. Repositories without a health check
// are considered up.
func (s *Store) Health(ctx context.Context) map[string]string {
	if hc, ok := s.repo.(HealthChecker); ok {
		return hc.Health(ctx)
	}
	return map[string]string{"status": "up"}
}

func (s *Store) Close() error {
	return s.repo.Close()
}

func (s *Store) load(ctx context.Context) (*Corpus, error) {
	users, err := s.repo.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	posts, err := s.repo.LoadPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	return &Corpus{Users: users, Posts: posts}, nil
}
