package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/minifeed/backend/internal/models"
	"github.com/emilythestrangee/minifeed/backend/internal/social"
)

type AuthHandler struct {
	svc    *social.Service
	tokens TokenIssuer
}

func NewAuthHandler(svc *social.Service, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{svc: svc, tokens: tokens}
}

// Signup handles user registration
func (h *AuthHandler) Signup(c *gin.Context) {
	var input struct {
		Name     string           `json:"name"`
		Username string           `json:"username"`
		Password string           `json:"password"`
		Genre    models.GenreList `json:"genre"`
	}
	if !bindJSON(c, &input) {
		return
	}

	user, err := h.svc.Signup(c.Request.Context(), social.SignupInput{
		Name:     input.Name,
		Username: input.Username,
		Password: input.Password,
		Genre:    input.Genre,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Signup successful!",
		"token":   token,
		"user":    user.Snapshot(),
	})
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &input) {
		return
	}

	user, err := h.svc.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful!",
		"token":   token,
		"data": gin.H{
			"user": gin.H{
				"id":       user.ID,
				"username": user.Username,
				"name":     user.Name,
			},
		},
	})
}
