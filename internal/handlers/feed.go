package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/minifeed/backend/internal/apperr"
)

type FeedHandler struct {
	feed FeedSource
}

func NewFeedHandler(feed FeedSource) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// GetFeed returns one page of the ranked feed
func (h *FeedHandler) GetFeed(c *gin.Context) {
	userID, err := actingUser(c, c.Query("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if userID == "" {
		respondError(c, apperr.InvalidInput("User ID required"))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.feed.Feed(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
