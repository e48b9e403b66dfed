package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/minifeed/backend/internal/media"
)

type MediaHandler struct {
	images media.Store
}

func NewMediaHandler(images media.Store) *MediaHandler {
	return &MediaHandler{images: images}
}

// GetImage serves an upload by name, falling back to a file with the same
// timestamp prefix
func (h *MediaHandler) GetImage(c *gin.Context) {
	name := c.Param("filename")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No filename provided"})
		return
	}

	obj, err := h.images.Open(c.Request.Context(), name)
	if errors.Is(err, media.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	defer obj.Body.Close()

	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, map[string]string{
		"Cache-Control": "public, max-age=86400",
	})
}
