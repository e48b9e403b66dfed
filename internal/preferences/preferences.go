// Package preferences applies user interactions to posts and to the per-user
// accumulators the feed scorer reads.
package preferences

import (
	"time"

	"github.com/emilythestrangee/minifeed/backend/internal/models"
)

const (
	viewGenreIncrement  = 0.1
	viewAuthorIncrement = 0.1
	viewScoreIncrement  = 0.5
)

// Action is an explicit feedback signal sent to /update-preferences.
type Action string

const (
	ActionLike          Action = "like"
	ActionComment       Action = "comment"
	ActionDislike       Action = "dislike"
	ActionNotInterested Action = "not_interested"
)

type delta struct {
	author float64
	genre  float64
}

var actionDeltas = map[Action]delta{
	ActionLike:          {author: 1, genre: 1},
	ActionComment:       {author: 2, genre: 1},
	ActionDislike:       {author: -1},
	ActionNotInterested: {author: -3, genre: -2},
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	_, ok := actionDeltas[a]
	return ok
}

// ViewResult is what a view reports back to the caller.
type ViewResult struct {
	ViewCount     int     `json:"viewCount"`
	Score         float64 `json:"score"`
	UserViewCount int     `json:"userViewCount"`
	FirstView     bool    `json:"-"`
}

// RecordView appends a view by viewerID to post and bumps the post's view
// score. The viewer's accumulators only move on their first view of the post;
// viewer may be nil when the user record is unknown.
func RecordView(post *models.Post, viewer *models.User, viewerID string) ViewResult {
	first := post.ViewsBy(viewerID) == 0
	post.Views = append(post.Views, viewerID)
	post.ViewScore += viewScoreIncrement

	if first && viewer != nil {
		viewer.EnsureAccumulators()
		for _, g := range post.Genres {
			viewer.GenrePreference[g] += viewGenreIncrement
		}
		if post.UserID != viewer.ID {
			viewer.AuthorAffinity[post.UserID] += viewAuthorIncrement
		}
	}

	return ViewResult{
		ViewCount:     len(post.Views),
		Score:         post.ViewScore,
		UserViewCount: post.ViewsBy(viewerID),
		FirstView:     first,
	}
}

// ToggleLike adds or removes userID from the post's likes and reports
// whether the user now likes the post.
func ToggleLike(post *models.Post, userID string) bool {
	for i, id := range post.Likes {
		if id == userID {
			post.Likes = append(post.Likes[:i], post.Likes[i+1:]...)
			return false
		}
	}
	post.Likes = append(post.Likes, userID)
	return true
}

// AddComment appends a comment with the author's name and username captured
// at creation time.
func AddComment(post *models.Post, author *models.User, id, text string, at time.Time) models.Comment {
	c := models.Comment{
		ID:        id,
		UserID:    author.ID,
		Username:  author.Username,
		Name:      author.Name,
		Text:      text,
		Timestamp: at,
	}
	post.Comments = append(post.Comments, c)
	return c
}

// Apply adjusts the user's accumulators for an explicit action. It returns
// false and changes nothing for an unknown action.
func Apply(user *models.User, action Action, authorID string, genres models.GenreList) bool {
	d, ok := actionDeltas[action]
	if !ok {
		return false
	}
	user.EnsureAccumulators()

	if authorID != "" && d.author != 0 {
		user.AuthorAffinity[authorID] += d.author
	}
	if d.genre != 0 {
		for g := range genres.Set() {
			user.GenrePreference[g] += d.genre
		}
	}
	return true
}
