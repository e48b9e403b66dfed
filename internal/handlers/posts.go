package handlers

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/minifeed/backend/internal/apperr"
	"github.com/emilythestrangee/minifeed/backend/internal/media"
	"github.com/emilythestrangee/minifeed/backend/internal/models"
	"github.com/emilythestrangee/minifeed/backend/internal/social"
)

type PostHandler struct {
	svc    *social.Service
	images media.Store
	now    func() time.Time
}

func NewPostHandler(svc *social.Service, images media.Store, now func() time.Time) *PostHandler {
	return &PostHandler{svc: svc, images: images, now: now}
}

type postInput struct {
	UserID string `json:"userId"`
	PostID string `json:"postId"`
}

// CreatePost accepts JSON or a multipart form with an optional "image" file
func (h *PostHandler) CreatePost(c *gin.Context) {
	var (
		userID string
		text   string
		genres models.GenreList
		upload *multipart.FileHeader
	)

	switch c.ContentType() {
	case "multipart/form-data", "application/x-www-form-urlencoded":
		userID = c.PostForm("userId")
		text = c.PostForm("text")
		for _, g := range c.PostFormArray("genres") {
			genres = append(genres, models.ParseGenres(g)...)
		}
		if fh, err := c.FormFile("image"); err == nil {
			upload = fh
		}
	default:
		var input struct {
			UserID string           `json:"userId"`
			Text   string           `json:"text"`
			Genres models.GenreList `json:"genres"`
		}
		if !bindJSON(c, &input) {
			return
		}
		userID, text, genres = input.UserID, input.Text, input.Genres
	}

	userID, err := actingUser(c, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if userID == "" || strings.TrimSpace(text) == "" {
		respondError(c, apperr.InvalidInput("User ID and text required"))
		return
	}

	var image string
	if upload != nil {
		if image, err = h.saveImage(c, upload); err != nil {
			respondError(c, err)
			return
		}
	}

	post, err := h.svc.CreatePost(c.Request.Context(), social.NewPost{
		UserID: userID,
		Text:   text,
		Genres: genres,
		Image:  image,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Tweet posted successfully", "post": post})
}

func (h *PostHandler) saveImage(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	name := media.ObjectName(fh.Filename, h.now())
	if err := h.images.Save(c.Request.Context(), name, f, fh.Size, fh.Header.Get("Content-Type")); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	slog.Debug("image stored", "name", name, "size", fh.Size)
	return media.PublicPath(name), nil
}

// View records a view and returns the post's view counters
func (h *PostHandler) View(c *gin.Context) {
	var input postInput
	if !bindJSON(c, &input) {
		return
	}
	userID, err := actingUser(c, input.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.svc.View(c.Request.Context(), userID, input.PostID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Like toggles the acting user's like
func (h *PostHandler) Like(c *gin.Context) {
	var input postInput
	if !bindJSON(c, &input) {
		return
	}
	userID, err := actingUser(c, input.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.svc.Like(c.Request.Context(), userID, input.PostID)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Post liked"
	if !res.Liked {
		message = "Post unliked"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   message,
		"liked":     res.Liked,
		"likeCount": res.LikeCount,
	})
}

// Comment adds a comment to a post
func (h *PostHandler) Comment(c *gin.Context) {
	var input struct {
		UserID string `json:"userId"`
		PostID string `json:"postId"`
		Text   string `json:"text"`
	}
	if !bindJSON(c, &input) {
		return
	}
	userID, err := actingUser(c, input.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	comment, err := h.svc.Comment(c.Request.Context(), userID, input.PostID, input.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Comment added successfully", "comment": comment})
}
