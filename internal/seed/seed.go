// Package seed generates a fake corpus of users and posts for local
// development.
package seed

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/emilythestrangee/minifeed/backend/internal/auth"
	"github.com/emilythestrangee/minifeed/backend/internal/models"
	"github.com/emilythestrangee/minifeed/backend/internal/store"
)

// DefaultPassword is the password of every generated account.
const DefaultPassword = "password"

var Genres = []string{"music", "sports", "tech", "art", "travel", "food", "gaming", "books"}

type Options struct {
	Users int
	Posts int
	Seed  int64
	// Now anchors post timestamps; posts are spread over the preceding 48 hours.
	Now time.Time
}

// Generate builds a corpus from opts. The same seed always yields the same
// users, posts and interactions apart from the password hash.
func Generate(opts Options, creds auth.CredentialVerifier) (*store.Corpus, error) {
	if opts.Users < 1 {
		return nil, fmt.Errorf("seed: need at least one user, got %d", opts.Users)
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	hash, err := creds.Hash(DefaultPassword)
	if err != nil {
		return nil, err
	}

	f := gofakeit.New(opts.Seed)
	c := &store.Corpus{
		Users: make([]models.User, 0, opts.Users),
		Posts: make([]models.Post, 0, opts.Posts),
	}

	taken := map[string]bool{}
	for i := 0; i < opts.Users; i++ {
		username := strings.ToLower(f.Username())
		for taken[username] {
			username = fmt.Sprintf("%s%d", username, f.Number(0, 999))
		}
		taken[username] = true

		c.Users = append(c.Users, models.User{
			ID:           f.UUID(),
			Name:         f.Name(),
			Username:     username,
			PasswordHash: hash,
			Genre:        pickGenres(f, 1, 3),
			Following:    []string{},
		})
	}

	for i := range c.Users {
		u := &c.Users[i]
		for n := f.Number(0, min(5, len(c.Users)-1)); n > 0; n-- {
			other := c.Users[f.Number(0, len(c.Users)-1)].ID
			if other != u.ID && !u.IsFollowing(other) {
				u.Following = append(u.Following, other)
			}
		}
	}

	for i := 0; i < opts.Posts; i++ {
		author := c.Users[f.Number(0, len(c.Users)-1)]
		age := time.Duration(f.Number(0, 48*60)) * time.Minute
		post := models.Post{
			ID:        f.UUID(),
			UserID:    author.ID,
			Text:      f.Sentence(f.Number(4, 16)),
			Genres:    pickGenres(f, 1, 2),
			Timestamp: opts.Now.Add(-age).UTC(),
			Views:     []string{},
			Likes:     []string{},
			Comments:  []models.Comment{},
		}

		for n := f.Number(0, min(10, len(c.Users))); n > 0; n-- {
			liker := c.Users[f.Number(0, len(c.Users)-1)].ID
			if !post.LikedBy(liker) {
				post.Likes = append(post.Likes, liker)
			}
		}
		for n := f.Number(0, 3); n > 0; n-- {
			commenter := c.Users[f.Number(0, len(c.Users)-1)]
			post.Comments = append(post.Comments, models.Comment{
				ID:        f.UUID(),
				UserID:    commenter.ID,
				Username:  commenter.Username,
				Name:      commenter.Name,
				Text:      f.Sentence(f.Number(2, 8)),
				Timestamp: post.Timestamp.Add(time.Duration(f.Number(1, 60)) * time.Minute),
			})
		}
		for n := f.Number(0, 20); n > 0; n-- {
			post.Views = append(post.Views, c.Users[f.Number(0, len(c.Users)-1)].ID)
		}

		c.Posts = append(c.Posts, post)
	}

	return c, nil
}

func pickGenres(f *gofakeit.Faker, lo, hi int) models.GenreList {
	shuffled := append([]string{}, Genres...)
	f.ShuffleStrings(shuffled)
	return models.GenreList(shuffled[:f.Number(lo, hi)])
}
