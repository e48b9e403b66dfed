package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/emilythestrangee/minifeed/backend/internal/auth"
	"github.com/emilythestrangee/minifeed/backend/internal/config"
	"github.com/emilythestrangee/minifeed/backend/internal/seed"
	"github.com/emilythestrangee/minifeed/backend/internal/server"
	"github.com/emilythestrangee/minifeed/backend/internal/store"
	"github.com/emilythestrangee/minifeed/backend/internal/telemetry"
)

var (
	rootCmd = &cobra.Command{
		Use:   "minifeed",
		Short: "Personalized social feed API",
		RunE:  runServe,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Add generated users and posts to the configured storage",
		RunE:  runSeed,
	}

	configPath string
	seedUsers  int
	seedPosts  int
	seedValue  int64
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	seedCmd.Flags().IntVar(&seedUsers, "users", 50, "number of users to generate")
	seedCmd.Flags().IntVar(&seedPosts, "posts", 300, "number of posts to generate")
	seedCmd.Flags().Int64Var(&seedValue, "seed", time.Now().UnixNano(), "random seed")

	rootCmd.AddCommand(serveCmd, seedCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	})))
	return cfg, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(c)
	}()

	srv, err := server.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}
	defer srv.Close()

	httpServer := srv.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Server starting on port %s (storage: %s)", cfg.Port, cfg.Storage.Driver)
		fmt.Println("📝 Press Ctrl+C to stop the server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("🛑 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Println("✅ Server stopped")
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo, err := server.OpenRepository(cfg)
	if err != nil {
		return err
	}
	st := store.New(repo)
	defer st.Close()

	generated, err := seed.Generate(seed.Options{
		Users: seedUsers,
		Posts: seedPosts,
		Seed:  seedValue,
	}, auth.NewBcryptVerifier())
	if err != nil {
		return err
	}

	var addedUsers, addedPosts int
	err = st.Update(cmd.Context(), func(c *store.Corpus) (store.Changes, error) {
		skipped := map[string]bool{}
		for _, u := range generated.Users {
			if c.UserByUsername(u.Username) != nil {
				skipped[u.ID] = true
				continue
			}
			c.Users = append(c.Users, u)
			addedUsers++
		}
		for _, p := range generated.Posts {
			if skipped[p.UserID] {
				continue
			}
			c.Posts = append(c.Posts, p)
			addedPosts++
		}
		return store.UsersChanged | store.PostsChanged, nil
	})
	if err != nil {
		return fmt.Errorf("write seed data: %w", err)
	}

	log.Printf("🌱 Seeded %d users and %d posts (password %q)", addedUsers, addedPosts, seed.DefaultPassword)
	return nil
}
