// Package ratelimit throttles mutating requests per user with a fixed
// window counter in Redis.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/emilythestrangee/minifeed/backend/internal/apperr"
	"github.com/emilythestrangee/minifeed/backend/internal/middleware"
)

// Allower decides whether another request under key may proceed.
type Allower interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type Limiter struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
}

func New(client redis.Cmdable, limit int64, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: limit, window: window}
}

func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	k := "rl:" + key
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= l.limit, nil
}

// Middleware rejects requests over the limit with 429. Requests are keyed by
// the authenticated user, falling back to the client IP. Limiter failures
// let the request through.
func Middleware(a Allower) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := middleware.UserID(c)
		if !ok {
			key = "ip:" + c.ClientIP()
		}

		allowed, err := a.Allow(c.Request.Context(), key)
		if err != nil {
			slog.Warn("rate limiter unavailable", "key", key, "error", err)
			c.Next()
			return
		}
		if !allowed {
			err := apperr.RateLimited("Rate limit exceeded")
			c.AbortWithStatusJSON(apperr.Status(err), gin.H{"error": apperr.Message(err)})
			return
		}
		c.Next()
	}
}
