package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/minifeed/backend/internal/apperr"
	"github.com/emilythestrangee/minifeed/backend/internal/feed"
	"github.com/emilythestrangee/minifeed/backend/internal/media"
	"github.com/emilythestrangee/minifeed/backend/internal/middleware"
	"github.com/emilythestrangee/minifeed/backend/internal/social"
)

// TokenIssuer signs session tokens handed out at signup and login.
type TokenIssuer interface {
	Issue(userID, username string) (string, error)
}

// FeedSource assembles one page of a user's feed.
type FeedSource interface {
	Feed(ctx context.Context, userID string, page, limit int) (*feed.Page, error)
}

type Deps struct {
	Social *social.Service
	Feed   FeedSource
	Tokens TokenIssuer
	Media  media.Store
	Now    func() time.Time
}

// Handler combines all handler types
type Handler struct {
	Auth  *AuthHandler
	User  *UserHandler
	Post  *PostHandler
	Feed  *FeedHandler
	Media *MediaHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(d Deps) *Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Handler{
		Auth:  NewAuthHandler(d.Social, d.Tokens),
		User:  NewUserHandler(d.Social),
		Post:  NewPostHandler(d.Social, d.Media, d.Now),
		Feed:  NewFeedHandler(d.Feed),
		Media: NewMediaHandler(d.Media),
	}
}

// respondError writes err as {"error": message} with the status of its kind.
func respondError(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

// actingUser resolves who performs the request. An authenticated user may
// only act as themselves; without a token the claimed id is trusted.
func actingUser(c *gin.Context, claimed string) (string, error) {
	tokenUser, ok := middleware.UserID(c)
	if !ok {
		return claimed, nil
	}
	if claimed != "" && claimed != tokenUser {
		return "", apperr.Forbidden("You can only act as yourself")
	}
	return tokenUser, nil
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false
	}
	return true
}
