package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/ashureev/mindbloom/internal/agent"
	"github.com/ashureev/mindbloom/internal/api"
	"github.com/ashureev/mindbloom/internal/companion"
	"github.com/ashureev/mindbloom/internal/config"
	"github.com/ashureev/mindbloom/internal/identity"
	"github.com/ashureev/mindbloom/internal/llm"
	"github.com/ashureev/mindbloom/internal/middleware"
	"github.com/ashureev/mindbloom/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat HTTP and WebSocket server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(slog.LevelInfo),
	}))
	slog.SetDefault(logger)

	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	slog.Info("Starting server",
		"port", cfg.Port,
		"dev", cfg.IsDevelopment(),
		"responder", cfg.Responder.Kind,
		"transcripts", cfg.TranscriptsEnabled(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	sessions := companion.NewSessionStore()
	svc := newService(cfg, logger, sessions, repo)

	chatHandler := agent.NewHandler(svc, agent.HandlerConfig{
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		RateLimitRequests:  cfg.RateLimit.RequestsPerWindow,
		RateLimitWindow:    cfg.RateLimit.WindowDuration,
	})
	defer chatHandler.Close()

	sessions.StartSweeper(ctx, cfg.SweepInterval, cfg.SessionIdleTTL, func(key string) {
		slog.Debug("Idle session evicted", "session_key", key)
	})
	if cfg.TranscriptsEnabled() {
		store.StartRetentionWorker(ctx, repo, store.DefaultRetentionInterval, cfg.TranscriptTTL)
	}

	wsHandler := chatHandler.WebSocket(agent.NewConnectionManager(), cfg.FrontendURL, cfg.IsDevelopment())

	// WebSocket chat holds connections open; no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(cfg, repo, chatHandler, wsHandler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	}
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := srv.Shutdown(shutdownCtx)
	// Hijacked chat connections outlive srv.Shutdown; drain them before the
	// deferred repository close.
	if err := wsHandler.Shutdown(shutdownCtx); err != nil {
		slog.Error("Chat connections did not drain", "error", err)
	}
	if shutdownErr != nil {
		return fmt.Errorf("server forced to shutdown: %w", shutdownErr)
	}

	slog.Info("Server stopped successfully")
	return nil
}

// openRepository returns the sqlite transcript store, or a no-op store when
// DB_PATH is empty.
func openRepository(ctx context.Context, cfg *config.Config) (store.Repository, error) {
	if !cfg.TranscriptsEnabled() {
		slog.Info("Transcripts disabled (DB_PATH is empty)")
		return store.Nop{}, nil
	}

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	if err := repo.Ping(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("database health check: %w", err)
	}
	slog.Info("Database connected", "path", cfg.DBPath)
	return repo, nil
}

func newService(cfg *config.Config, logger *slog.Logger, sessions *companion.SessionStore, repo store.Repository) *agent.Service {
	engine := companion.NewEngine(companion.WithLogger(logger))
	opts := []agent.ServiceOption{
		agent.WithRepository(repo),
		agent.WithServiceLogger(logger),
	}

	if cfg.Responder.Kind == config.ResponderOpenRouter {
		opts = append(opts, agent.WithResponder(llm.NewOpenRouterClient(llm.Config{
			APIKey:     cfg.Responder.APIKey,
			Model:      cfg.Responder.Model,
			BaseURL:    cfg.Responder.BaseURL,
			Timeout:    cfg.Responder.Timeout,
			MaxRetries: 1,
		}, logger)))
		slog.Info("Remote responder enabled", "model", cfg.Responder.Model)
	}

	return agent.NewService(engine, sessions, opts...)
}

func allowedOrigins(cfg *config.Config) []string {
	if cfg.FrontendURL == "" {
		return []string{"*"}
	}
	return []string{cfg.FrontendURL}
}

func newRouter(cfg *config.Config, repo store.Repository, chatHandler *agent.Handler, wsHandler *agent.WebSocketHandler) http.Handler {
	healthHandler := api.NewHealthHandler(repo, 0)

	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(allowedOrigins(cfg)))

	// Public routes.
	healthHandler.RegisterHealth(r)

	// Chat routes need an anonymous identity.
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(cfg.IsDevelopment()))
		chatHandler.RegisterRoutes(r)
		r.Get("/ws/chat", wsHandler.ServeHTTP)
	})

	return r
}
