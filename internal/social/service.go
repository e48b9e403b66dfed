// Package social implements the account, follow, post and interaction
// operations on top of the store.
package social

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emilythestrangee/minifeed/backend/internal/apperr"
	"github.com/emilythestrangee/minifeed/backend/internal/auth"
	"github.com/emilythestrangee/minifeed/backend/internal/events"
	"github.com/emilythestrangee/minifeed/backend/internal/models"
	"github.com/emilythestrangee/minifeed/backend/internal/preferences"
	"github.com/emilythestrangee/minifeed/backend/internal/store"
)

type Service struct {
	store  *store.Store
	creds  auth.CredentialVerifier
	events events.Publisher
	now    func() time.Time
	newID  func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(st *store.Store, creds auth.CredentialVerifier, pub events.Publisher, opts ...Option) *Service {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	s := &Service{
		store:  st,
		creds:  creds,
		events: pub,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// publish hands an interaction to the event publisher. Failures are logged
// and never fail the request.
func (s *Service) publish(ctx context.Context, e events.Event) {
	interactionsTotal.WithLabelValues(string(e.Type)).Inc()
	e.At = s.now().UTC()
	if err := s.events.Publish(ctx, e); err != nil {
		eventPublishFailures.Inc()
		slog.Warn("publish event", "type", e.Type, "user_id", e.UserID, "error", err)
	}
}

type SignupInput struct {
	Name     string
	Username string
	Password string
	Genre    models.GenreList
}

// Signup creates an account. Usernames are unique.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, apperr.InvalidInput("Username and password required")
	}

	hash, err := s.creds.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	genre := in.Genre
	if genre == nil {
		genre = models.GenreList{}
	}

	var created models.User
	err = s.store.Update(ctx, func(c *store.Corpus) (store.Changes, error) {
		if c.UserByUsername(username) != nil {
			return store.NoChanges, apperr.Conflict("Username already exists.")
		}
		created = models.User{
			ID:           s.newID(),
			Name:         strings.TrimSpace(in.Name),
			Username:     username,
			PasswordHash: hash,
			Genre:        genre,
			Following:    []string{},
		}
		c.Users = append(c.Users, created)
		return store.UsersChanged, nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("user signed up", "user_id", created.ID, "username", created.Username)
	s.publish(ctx, events.Event{Type: events.UserSignedUp, UserID: created.ID})
	return &created, nil
}

// Login checks the password against the stored hash.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	c, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}

	u := c.UserByUsername(strings.TrimSpace(username))
	if u == nil || u.PasswordHash == "" {
		return nil, apperr.Unauthorized("Invalid credentials.")
	}
	if err := s.creds.Verify(u.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, apperr.Unauthorized("Invalid credentials.")
		}
		return nil, err
	}
	return u, nil
}

// ListUsers returns every user without credentials.
func (s *Service) ListUsers(ctx context.Context) ([]models.UserSnapshot, error) {
	c, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSnapshot, 0, len(c.Users))
	for i := range c.Users {
		out = append(out, c.Users[i].Snapshot())
	}
	return out, nil
}

// Follow adds followID to the user's following set and returns the set.
func (s *Service) Follow(ctx context.Context, userID, followID string) ([]string, error) {
	if userID == "" || followID == "" {
		return nil, apperr.InvalidInput("Both user IDs required")
	}
	if userID == followID {
		return nil, apperr.InvalidInput("You cannot follow yourself")
	}

	var following []string
	var added bool
	err := s.store.Update(ctx, func(c *store.Corpus) (store.Changes, error) {
		u := c.User(userID)
		if u == nil {
			return store.NoChanges, apperr.NotFound("User not found")
		}
		if c.User(followID) == nil {
			return store.NoChanges, apperr.NotFound("User to follow not found")
		}
		if !u.IsFollowing(followID) {
			u.Following = append(u.Following, followID)
			added = true
		}
		following = append([]string{}, u.Following...)
		if !added {
			return store.NoChanges, nil
		}
		return store.UsersChanged, nil
	})
	if err != nil {
		return nil, err
	}

	if added {
		s.publish(ctx, events.Event{Type: events.UserFollowed, UserID: userID, TargetID: followID})
	}
	return following, nil
}

// Unfollow removes followID from the user's following set and returns the set.
func (s *Service) Unfollow(ctx context.Context, userID, followID string) ([]string, error) {
	if userID == "" || followID == "" {
		return nil, apperr.InvalidInput("Both user IDs required")
	}

	var following []string
	var removed bool
	err := s.store.Update(ctx, func(c *store.Corpus) (store.Changes, error) {
		u := c.User(userID)
		if u == nil {
			return store.NoChanges, apperr.NotFound("User not found")
		}
		kept := make([]string, 0, len(u.Following))
		for _, id := range u.Following {
			if id == followID {
				removed = true
				continue
			}
			kept = append(kept, id)
		}
		u.Following = kept
		following = append([]string{}, kept...)
		if !removed {
			return store.NoChanges, nil
		}
		return store.UsersChanged, nil
	})
	if err != nil {
		return nil, err
	}

	if removed {
		s.publish(ctx, events.Event{Type: events.UserUnfollowed, UserID: userID, TargetID: followID})
	}
	return following, nil
}

// UpdateUser replaces the user's declared genres when genre is non-nil.
func (s *Service) UpdateUser(ctx context.Context, userID string, genre *models.GenreList) (models.UserSnapshot, error) {
	if userID == "" {
		return models.UserSnapshot{}, apperr.InvalidInput("User ID required")
	}

	var snapshot models.UserSnapshot
	err := s.store.Update(ctx, func(c *store.Corpus) (store.Changes, error) {
		u := c.User(userID)
		if u == nil {
			return store.NoChanges, apperr.NotFound("User not found")
		}
		changes := store.NoChanges
		if genre != nil {
			u.Genre = *genre
			changes = store.UsersChanged
		}
		snapshot = u.Snapshot()
		return changes, nil
	})
	return snapshot, err
}

type PreferenceInput struct {
	UserID   string
	AuthorID string
	Genres   models.GenreList
	Action   preferences.Action
}

// Preferences are a user's current accumulators.
type Preferences struct {
	GenrePreference map[string]float64 `json:"genrePreference"`
	AuthorAffinity  map[string]float64 `json:"authorAffinity"`
}

// UpdatePreferences applies an explicit feedback action. Unknown actions
// leave the accumulators untouched.
func (s *Service) UpdatePreferences(ctx context.Context, in PreferenceInput) (*Preferences, error) {
	if in.UserID == "" {
		return nil, apperr.InvalidInput("User ID required")
	}

	var prefs Preferences
	var applied bool
	err := s.store.Update(ctx, func(c *store.Corpus) (store.Changes, error) {
		u := c.User(in.UserID)
		if u == nil {
			return store.NoChanges, apperr.NotFound("User not found")
		}
		applied = preferences.Apply(u, in.Action, in.AuthorID, in.Genres)
		u.EnsureAccumulators()
		prefs = Preferences{GenrePreference: u.GenrePreference, AuthorAffinity: u.AuthorAffinity}
		if !applied {
			return store.NoChanges, nil
		}
		return store.UsersChanged, nil
	})
	if err != nil {
		return nil, err
	}

	if applied {
		s.publish(ctx, events.Event{Type: events.PreferenceSet, UserID: in.UserID, TargetID: in.AuthorID})
	} else if !in.Action.Valid() {
		slog.Debug("ignored unknown preference action", "user_id", in.UserID, "action", in.Action)
	}
	return &prefs, nil
}

type NewPost struct {
	UserID string
	Text   string
	// Genres falls back to the author's declared genres when empty.
	Genres models.GenreList
	Image  string
}

func (s *Service) CreatePost(ctx context.Context, in NewPost) (*models.Post, error) {
	if in.UserID == "" || strings.TrimSpace(in.Text) == "" {
		return nil, apperr.InvalidInput("User ID and text required")
	}

	var created models.Post
	err := s.store.Update(ctx, func(c *store.Corpus) (store.Changes, error) {
		author := c.User(in.UserID)
		if author == nil {
			return store.NoChanges, apperr.NotFound("User not found")
		}
		genres := in.Genres
		if len(genres) == 0 {
			genres = author.Genre
		}
		if genres == nil {
			genres = models.GenreList{}
		}
		created = models.Post{
			ID:        s.newID(),
			UserID:    in.UserID,
			Text:      in.Text,
			Genres:    genres,
			Image:     in.Image,
			Timestamp: s.now().UTC(),
			Views:     []string{},
			Likes:     []string{},
			Comments:  []models.Comment{},
		}
		c.Posts = append(c.Posts, created)
		return store.PostsChanged, nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("post created", "post_id", created.ID, "user_id", created.UserID, "image", created.Image != "")
	s.publish(ctx, events.Event{Type: events.PostCreated, UserID: created.UserID, PostID: created.ID})
	return &created, nil
}

// View records a view of postID by userID. The viewer's accumulators are
// only touched on the first view, and only when the viewer exists.
func (s *Service) View(ctx context.Context, userID, postID string) (preferences.ViewResult, error) {
	if userID == "" || postID == "" {
		return preferences.ViewResult{}, apperr.InvalidInput("User ID and post ID required")
	}

	var res preferences.ViewResult
	err := s.store.Update(ctx, func(c *store.Corpus) (store.Changes, error) {
		post := c.Post(postID)
		if post == nil {
			return store.NoChanges, apperr.NotFound("Post not found")
		}
		viewer := c.User(userID)
		res = preferences.RecordView(post, viewer, userID)

		changes := store.PostsChanged
		if res.FirstView && viewer != nil {
			changes |= store.UsersChanged
		}
		return changes, nil
	})
	if err != nil {
		return preferences.ViewResult{}, err
	}

	s.publish(ctx, events.Event{Type: events.PostViewed, UserID: userID, PostID: postID})
	return res, nil
}

type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

// Like toggles the user's like on the post.
func (s *Service) Like(ctx context.Context, userID, postID string) (LikeResult, error) {
	if userID == "" || postID == "" {
		return LikeResult{}, apperr.InvalidInput("User ID and post ID required")
	}

	var res LikeResult
	err := s.store.Update(ctx, func(c *store.Corpus) (store.Changes, error) {
		post := c.Post(postID)
		if post == nil {
			return store.NoChanges, apperr.NotFound("Post not found")
		}
		if c.User(userID) == nil {
			return store.NoChanges, apperr.NotFound("User not found")
		}
		res.Liked = preferences.ToggleLike(post, userID)
		res.LikeCount = len(post.Likes)
		return store.PostsChanged, nil
	})
	if err != nil {
		return LikeResult{}, err
	}

	typ := events.PostLiked
	if !res.Liked {
		typ = events.PostUnliked
	}
	s.publish(ctx, events.Event{Type: typ, UserID: userID, PostID: postID})
	return res, nil
}

// Comment appends a comment by userID to the post.
func (s *Service) Comment(ctx context.Context, userID, postID, text string) (models.Comment, error) {
	if userID == "" || postID == "" || strings.TrimSpace(text) == "" {
		return models.Comment{}, apperr.InvalidInput("User ID, post ID, and comment text required")
	}

	var created models.Comment
	err := s.store.Update(ctx, func(c *store.Corpus) (store.Changes, error) {
		post := c.Post(postID)
		if post == nil {
			return store.NoChanges, apperr.NotFound("Post not found")
		}
		author := c.User(userID)
		if author == nil {
			return store.NoChanges, apperr.NotFound("User not found")
		}
		created = preferences.AddComment(post, author, s.newID(), text, s.now().UTC())
		return store.PostsChanged, nil
	})
	if err != nil {
		return models.Comment{}, err
	}

	s.publish(ctx, events.Event{Type: events.CommentCreated, UserID: userID, PostID: postID})
	return created, nil
}
