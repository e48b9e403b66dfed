package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/minifeed/backend/internal/models"
)

// =============================================================================
// FileRepository
// =============================================================================

func TestFileRepository_CreatesEmptyCollections(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	repo, err := NewFileRepository(dir)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "users.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))

	users, err := repo.LoadUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NotNil(t, users)
}

func TestFileRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.ReplaceUsers(ctx, []models.User{{
		ID: "u1", Username: "ada", Genre: models.GenreList{"rock"},
		AuthorAffinity: map[string]float64{"u2": 0.1},
	}}))
	require.NoError(t, repo.ReplacePosts(ctx, []models.Post{{
		ID: "p1", UserID: "u1", Text: "hello", Timestamp: ts,
		Views: []string{"u2", "u2"}, Comments: []models.Comment{{ID: "c1", Text: "nice"}},
	}}))

	users, err := repo.LoadUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 0.1, users[0].AuthorAffinity["u2"])

	posts, err := repo.LoadPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.True(t, ts.Equal(posts[0].Timestamp))
	assert.Equal(t, []string{"u2", "u2"}, posts[0].Views)
	assert.Equal(t, "nice", posts[0].Comments[0].Text)
}

func TestFileRepository_ReadsLegacyDocuments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.json"),
		[]byte(`[{"id":"u1","username":"ada","password":"plain","genre":"rock, jazz","following":[]}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "posts.json"),
		[]byte(`[{"id":"p1","userId":"u1","text":"old","genre":"rock","timestamp":"2024-01-02T03:04:05.000Z","image":null,"views":["a","a","b"],"score":1.5},`+
			`{"id":"p2","userId":"u1","text":"bare","genres":[],"timestamp":"2024-01-02T03:04:05.000Z"}]`), 0o644))

	repo, err := NewFileRepository(dir)
	require.NoError(t, err)

	users, err := repo.LoadUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.GenreList{"rock", "jazz"}, users[0].Genre)

	posts, err := repo.LoadPosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.GenreList{"rock"}, posts[0].Genres)
	assert.Empty(t, posts[0].Image)
	assert.Equal(t, 1.5, posts[0].ViewScore)

	require.NoError(t, repo.ReplacePosts(context.Background(), posts))
	raw, err := os.ReadFile(filepath.Join(dir, "posts.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"viewScore": 1.5`)
	assert.NotContains(t, string(raw), `"genres": null`)

	reloaded, err := repo.LoadPosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.5, reloaded[0].ViewScore)
	assert.NotNil(t, reloaded[1].Genres)
}

func TestFileRepository_NilCollectionWritesEmptyArray(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileRepository(dir)
	require.NoError(t, err)

	require.NoError(t, repo.ReplacePosts(context.Background(), nil))

	raw, err := os.ReadFile(filepath.Join(dir, "posts.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

// =============================================================================
// Store
// =============================================================================

func TestStore_UpdateWritesOnlyChangedCollections(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	s := New(repo)

	err := s.Update(ctx, func(c *Corpus) (Changes, error) {
		c.Users = append(c.Users, models.User{ID: "u1", Username: "ada"})
		c.Posts = append(c.Posts, models.Post{ID: "p1", UserID: "u1"})
		return UsersChanged, nil
	})
	require.NoError(t, err)

	c, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Len(t, c.Users, 1)
	assert.Empty(t, c.Posts)
}

func TestStore_UpdateErrorSkipsWrite(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryRepository())
	boom := errors.New("boom")

	err := s.Update(ctx, func(c *Corpus) (Changes, error) {
		c.Users = append(c.Users, models.User{ID: "u1"})
		return UsersChanged, boom
	})

	assert.ErrorIs(t, err, boom)
	c, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, c.Users)
}

func TestStore_ConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryRepository())
	require.NoError(t, s.Update(ctx, func(c *Corpus) (Changes, error) {
		c.Posts = []models.Post{{ID: "p1"}}
		return PostsChanged, nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, func(c *Corpus) (Changes, error) {
				p := c.Post("p1")
				p.Views = append(p.Views, "viewer")
				return PostsChanged, nil
			})
		}()
	}
	wg.Wait()

	c, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Len(t, c.Post("p1").Views, 50)
}

func TestCorpus_Lookups(t *testing.T) {
	c := &Corpus{
		Users: []models.User{{ID: "u1", Username: "ada"}, {ID: "u2", Username: "bob"}},
		Posts: []models.Post{{ID: "p1"}},
	}

	assert.Equal(t, "bob", c.User("u2").Username)
	assert.Equal(t, "u1", c.UserByUsername("ada").ID)
	assert.Nil(t, c.User("missing"))
	assert.Nil(t, c.Post("missing"))

	c.User("u1").Name = "Ada"
	assert.Equal(t, "Ada", c.Users[0].Name)
}
