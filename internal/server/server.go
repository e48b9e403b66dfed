package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/emilythestrangee/minifeed/backend/internal/auth"
	"github.com/emilythestrangee/minifeed/backend/internal/config"
	"github.com/emilythestrangee/minifeed/backend/internal/database"
	"github.com/emilythestrangee/minifeed/backend/internal/events"
	"github.com/emilythestrangee/minifeed/backend/internal/feed"
	"github.com/emilythestrangee/minifeed/backend/internal/handlers"
	"github.com/emilythestrangee/minifeed/backend/internal/media"
	"github.com/emilythestrangee/minifeed/backend/internal/middleware"
	"github.com/emilythestrangee/minifeed/backend/internal/ratelimit"
	"github.com/emilythestrangee/minifeed/backend/internal/social"
	"github.com/emilythestrangee/minifeed/backend/internal/store"
)

type Server struct {
	cfg     *config.Config
	store   *store.Store
	tokens  *auth.TokenIssuer
	limiter ratelimit.Allower
	handler *handlers.Handler
	closers []func() error
}

// New wires every dependency named in cfg. Optional backends (Redis, Kafka)
// are only connected when configured.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	repo, err := OpenRepository(cfg)
	if err != nil {
		return nil, err
	}
	s.store = store.New(repo)
	s.closers = append(s.closers, s.store.Close)

	images, err := openMedia(ctx, cfg.Media)
	if err != nil {
		s.Close()
		return nil, err
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Brokers != "" {
		kp := events.NewKafkaPublisher(cfg.Kafka)
		publisher = kp
		s.closers = append(s.closers, kp.Close)
		log.Printf("📨 Publishing events to %s (topic %s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.limiter = ratelimit.New(rdb, cfg.Redis.Limit, cfg.Redis.Window)
		s.closers = append(s.closers, rdb.Close)
		log.Printf("🚦 Rate limiting %d requests per %s", cfg.Redis.Limit, cfg.Redis.Window)
	}

	s.tokens = auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	svc := social.NewService(s.store, auth.NewBcryptVerifier(), publisher)
	assembler := feed.NewAssembler(s.store,
		feed.WithTopN(cfg.Feed.TopN),
		feed.WithPageSize(cfg.Feed.PageSize),
	)

	s.handler = handlers.NewHandler(handlers.Deps{
		Social: svc,
		Feed:   assembler,
		Tokens: s.tokens,
		Media:  images,
	})
	return s, nil
}

// OpenRepository opens the storage backend selected by cfg.Storage.Driver.
func OpenRepository(cfg *config.Config) (store.Repository, error) {
	switch cfg.Storage.Driver {
	case config.StorageFile:
		return store.NewFileRepository(cfg.Storage.DataDir)
	case config.StoragePostgres:
		db, err := database.Open(cfg.Database.DSN())
		if err != nil {
			return nil, err
		}
		return store.NewGormRepository(db), nil
	case config.StorageMemory:
		return store.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func openMedia(ctx context.Context, cfg config.MediaConfig) (media.Store, error) {
	switch cfg.Driver {
	case config.MediaMinio:
		ms, err := media.NewMinioStore(cfg.Minio)
		if err != nil {
			return nil, err
		}
		if err := ms.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure bucket %s: %w", cfg.Minio.Bucket, err)
		}
		log.Printf("🪣 Storing uploads in bucket %s", cfg.Minio.Bucket)
		return ms, nil
	default:
		return media.NewLocalStore(cfg.UploadDir)
	}
}

// HTTPServer wraps the router in an http.Server with the API timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         "0.0.0.0:" + s.cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Close releases the storage and optional backends.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(otelgin.Middleware(s.cfg.Telemetry.ServiceName))

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		stats := s.store.Health(c.Request.Context())
		stats["storage_driver"] = s.cfg.Storage.Driver
		status := http.StatusOK
		if stats["status"] == "down" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, stats)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Uploaded images (public)
	r.GET("/get-image/:filename", s.handler.Media.GetImage)
	r.GET("/image-uploads/:filename", s.handler.Media.GetImage)
	r.GET("/uploads/:filename", s.handler.Media.GetImage)

	// Auth routes (public)
	public := r.Group("")
	public.Use(middleware.Authenticate(s.tokens, false))
	{
		public.POST("/signup", s.handler.Auth.Signup)
		public.POST("/login", s.handler.Auth.Login)
		public.GET("/users", s.handler.User.ListUsers)
	}

	// Acting routes: the token is optional unless auth.require_token is set
	acting := r.Group("")
	acting.Use(middleware.Authenticate(s.tokens, s.cfg.Auth.RequireToken))
	{
		acting.GET("/feed", s.handler.Feed.GetFeed)

		mutating := acting.Group("")
		if s.limiter != nil {
			mutating.Use(ratelimit.Middleware(s.limiter))
		}
		mutating.POST("/follow", s.handler.User.Follow)
		mutating.POST("/unfollow", s.handler.User.Unfollow)
		mutating.POST("/update-user", s.handler.User.UpdateUser)
		mutating.POST("/update-preferences", s.handler.User.UpdatePreferences)
		mutating.POST("/tweet", s.handler.Post.CreatePost)
		mutating.POST("/view", s.handler.Post.View)
		mutating.POST("/like", s.handler.Post.Like)
		mutating.POST("/comment", s.handler.Post.Comment)
	}

	return r
}
