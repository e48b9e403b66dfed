package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/minifeed/backend/internal/models"
	"github.com/emilythestrangee/minifeed/backend/internal/preferences"
	"github.com/emilythestrangee/minifeed/backend/internal/social"
)

type UserHandler struct {
	svc *social.Service
}

func NewUserHandler(svc *social.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

type followInput struct {
	UserID   string `json:"userId"`
	FollowID string `json:"followId"`
}

// ListUsers returns every user without credentials
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Follow adds followId to the acting user's following set
func (h *UserHandler) Follow(c *gin.Context) {
	var input followInput
	if !bindJSON(c, &input) {
		return
	}
	userID, err := actingUser(c, input.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	following, err := h.svc.Follow(c.Request.Context(), userID, input.FollowID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Now following", "following": following})
}

func (h *UserHandler) Unfollow(c *gin.Context) {
	var input followInput
	if !bindJSON(c, &input) {
		return
	}
	userID, err := actingUser(c, input.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	following, err := h.svc.Unfollow(c.Request.Context(), userID, input.FollowID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unfollowed", "following": following})
}

// UpdateUser changes the user's declared genres
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var input struct {
		UserID string            `json:"userId"`
		Genre  *models.GenreList `json:"genre"`
	}
	if !bindJSON(c, &input) {
		return
	}
	userID, err := actingUser(c, input.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.svc.UpdateUser(c.Request.Context(), userID, input.Genre)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully", "user": user})
}

// UpdatePreferences applies explicit feedback to the user's accumulators
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	var input struct {
		UserID   string           `json:"userId"`
		AuthorID string           `json:"authorId"`
		Genres   models.GenreList `json:"genres"`
		Action   string           `json:"action"`
	}
	if !bindJSON(c, &input) {
		return
	}
	userID, err := actingUser(c, input.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	prefs, err := h.svc.UpdatePreferences(c.Request.Context(), social.PreferenceInput{
		UserID:   userID,
		AuthorID: input.AuthorID,
		Genres:   input.Genres,
		Action:   preferences.Action(input.Action),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Preferences updated successfully",
		"preferences": prefs,
	})
}
