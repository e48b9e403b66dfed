package social

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/emilythestrangee/minifeed/backend/internal/apperr"
	"github.com/emilythestrangee/minifeed/backend/internal/auth"
	"github.com/emilythestrangee/minifeed/backend/internal/events"
	"github.com/emilythestrangee/minifeed/backend/internal/models"
	"github.com/emilythestrangee/minifeed/backend/internal/preferences"
	"github.com/emilythestrangee/minifeed/backend/internal/store"
)

var fixedNow = time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc   *Service
	store *store.Store
	pub   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.New(store.NewMemoryRepository())
	pub := &recordingPublisher{}
	n := 0
	svc := NewService(st, auth.BcryptVerifier{Cost: bcrypt.MinCost}, pub,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	return &fixture{svc: svc, store: st, pub: pub}
}

func (f *fixture) signup(t *testing.T, username string, genres ...string) *models.User {
	t.Helper()
	u, err := f.svc.Signup(context.Background(), SignupInput{
		Name:     username + " name",
		Username: username,
		Password: "pw-" + username,
		Genre:    genres,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) corpus(t *testing.T) *store.Corpus {
	t.Helper()
	c, err := f.store.Read(context.Background())
	require.NoError(t, err)
	return c
}

func TestSignupAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.signup(t, "ada", "rock")
	assert.Equal(t, "id-1", u.ID)
	assert.NotEqual(t, "pw-ada", u.PasswordHash)
	assert.Equal(t, []string{}, u.Following)

	_, err := f.svc.Signup(ctx, SignupInput{Username: "ada", Password: "x"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = f.svc.Signup(ctx, SignupInput{Username: " ", Password: "x"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	got, err := f.svc.Login(ctx, "ada", "pw-ada")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.svc.Login(ctx, "ada", "wrong")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = f.svc.Login(ctx, "nobody", "pw")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	assert.Len(t, f.corpus(t).Users, 1)
	assert.Equal(t, []events.Type{events.UserSignedUp}, f.pub.types())
}

func TestListUsers_HidesCredentials(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "ada")
	f.signup(t, "bob")

	users, err := f.svc.ListUsers(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ada", users[0].Username)
}

func TestFollowUnfollow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.signup(t, "ada")
	bob := f.signup(t, "bob")

	following, err := f.svc.Follow(ctx, ada.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, following)

	following, err = f.svc.Follow(ctx, ada.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, following, "following has set semantics")

	_, err = f.svc.Follow(ctx, ada.ID, ada.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = f.svc.Follow(ctx, ada.ID, "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.Follow(ctx, "ghost", bob.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.Follow(ctx, "", bob.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	following, err = f.svc.Unfollow(ctx, ada.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, following)
	assert.Empty(t, f.corpus(t).User(ada.ID).Following)

	assert.Equal(t, []events.Type{
		events.UserSignedUp, events.UserSignedUp, events.UserFollowed, events.UserUnfollowed,
	}, f.pub.types())
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.signup(t, "ada", "rock")

	snap, err := f.svc.UpdateUser(ctx, ada.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.GenreList{"rock"}, snap.Genre)

	genres := models.GenreList{"jazz", "pop"}
	snap, err = f.svc.UpdateUser(ctx, ada.ID, &genres)
	require.NoError(t, err)
	assert.Equal(t, genres, snap.Genre)
	assert.Equal(t, genres, f.corpus(t).User(ada.ID).Genre)

	_, err = f.svc.UpdateUser(ctx, "ghost", &genres)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdatePreferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.signup(t, "ada")

	prefs, err := f.svc.UpdatePreferences(ctx, PreferenceInput{
		UserID: ada.ID, AuthorID: "bob", Genres: models.GenreList{"rock"}, Action: preferences.ActionNotInterested,
	})
	require.NoError(t, err)
	assert.Equal(t, -3.0, prefs.AuthorAffinity["bob"])
	assert.Equal(t, -2.0, prefs.GenrePreference["rock"])
	assert.Equal(t, -3.0, f.corpus(t).User(ada.ID).AuthorAffinity["bob"])

	prefs, err = f.svc.UpdatePreferences(ctx, PreferenceInput{UserID: ada.ID, AuthorID: "bob", Action: "shrug"})
	require.NoError(t, err)
	assert.Equal(t, -3.0, prefs.AuthorAffinity["bob"])

	_, err = f.svc.UpdatePreferences(ctx, PreferenceInput{UserID: "ghost", Action: preferences.ActionLike})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreatePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.signup(t, "ada", "rock", "jazz")

	post, err := f.svc.CreatePost(ctx, NewPost{UserID: ada.ID, Text: "hello", Image: "/image-uploads/1.png"})
	require.NoError(t, err)
	assert.Equal(t, models.GenreList{"rock", "jazz"}, post.Genres, "falls back to the author's genres")
	assert.Equal(t, fixedNow, post.Timestamp)
	assert.Equal(t, []string{}, post.Likes)

	post, err = f.svc.CreatePost(ctx, NewPost{UserID: ada.ID, Text: "tagged", Genres: models.GenreList{"pop"}})
	require.NoError(t, err)
	assert.Equal(t, models.GenreList{"pop"}, post.Genres)

	_, err = f.svc.CreatePost(ctx, NewPost{UserID: ada.ID, Text: "  "})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = f.svc.CreatePost(ctx, NewPost{UserID: "ghost", Text: "hi"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.Len(t, f.corpus(t).Posts, 2)
}

func TestView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.signup(t, "author")
	viewer := f.signup(t, "viewer")
	post, err := f.svc.CreatePost(ctx, NewPost{UserID: author.ID, Text: "x", Genres: models.GenreList{"rock"}})
	require.NoError(t, err)

	res, err := f.svc.View(ctx, viewer.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ViewCount)
	assert.Equal(t, 0.5, res.Score)

	res, err = f.svc.View(ctx, viewer.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ViewCount)
	assert.Equal(t, 2, res.UserViewCount)
	assert.Equal(t, 1.0, res.Score)

	c := f.corpus(t)
	assert.InDelta(t, 0.1, c.User(viewer.ID).GenrePreference["rock"], 1e-9)
	assert.InDelta(t, 0.1, c.User(viewer.ID).AuthorAffinity[author.ID], 1e-9)
	assert.Equal(t, 1.0, c.Post(post.ID).ViewScore)

	res, err = f.svc.View(ctx, "anonymous", post.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ViewCount)

	_, err = f.svc.View(ctx, viewer.ID, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLikeToggles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.signup(t, "ada")
	post, err := f.svc.CreatePost(ctx, NewPost{UserID: ada.ID, Text: "x"})
	require.NoError(t, err)

	res, err := f.svc.Like(ctx, ada.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: true, LikeCount: 1}, res)

	res, err = f.svc.Like(ctx, ada.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: false, LikeCount: 0}, res)
	assert.Empty(t, f.corpus(t).Post(post.ID).Likes)

	_, err = f.svc.Like(ctx, "ghost", post.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.signup(t, "ada")
	post, err := f.svc.CreatePost(ctx, NewPost{UserID: ada.ID, Text: "x"})
	require.NoError(t, err)

	comment, err := f.svc.Comment(ctx, ada.ID, post.ID, "first!")
	require.NoError(t, err)
	assert.Equal(t, "ada", comment.Username)
	assert.Equal(t, "ada name", comment.Name)
	assert.Equal(t, fixedNow, comment.Timestamp)

	stored := f.corpus(t).Post(post.ID)
	require.Len(t, stored.Comments, 1)
	assert.Equal(t, comment.ID, stored.Comments[0].ID)

	_, err = f.svc.Comment(ctx, ada.ID, post.ID, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = f.svc.Comment(ctx, "ghost", post.ID, "hi")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")

	_, err := f.svc.Signup(context.Background(), SignupInput{Username: "ada", Password: "pw"})

	assert.NoError(t, err)
}

func TestConcurrentLikesAreNotLost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.signup(t, "author")
	post, err := f.svc.CreatePost(ctx, NewPost{UserID: author.ID, Text: "x"})
	require.NoError(t, err)

	var likers []string
	for i := 0; i < 20; i++ {
		likers = append(likers, f.signup(t, fmt.Sprintf("u%d", i)).ID)
	}

	var wg sync.WaitGroup
	for _, id := range likers {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.Like(ctx, id, post.ID)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	assert.Len(t, f.corpus(t).Post(post.ID).Likes, 20)
}
