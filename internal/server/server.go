// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware, and
// routes, and decides how the server starts and stops.
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go loads config.Config → server.New
//	server.New creates: store (sqlite or postgres) → UserService → UserHandler
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes) rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/user-accounts/internal/auth"
	"github.com/sakif/user-accounts/internal/config"
	"github.com/sakif/user-accounts/internal/handler"
	"github.com/sakif/user-accounts/internal/mapper"
	"github.com/sakif/user-accounts/internal/middleware"
	"github.com/sakif/user-accounts/internal/repository"
	"github.com/sakif/user-accounts/internal/repository/postgres"
	sqliteRepo "github.com/sakif/user-accounts/internal/repository/sqlite"
	"github.com/sakif/user-accounts/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store. It is closed after the HTTP server has drained
// so in-flight requests never see a closed pool.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.UserRepository
}

// New opens the configured store and wires the routes.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	passwords, err := auth.NewPasswordService(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("creating password service: %w", err)
	}

	store, err := openStore(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}
	s.setupRoutes(passwords)

	return s, nil
}

// openStore picks the repository implementation for cfg.DBDriver.
func openStore(ctx context.Context, cfg *config.Config) (repository.UserRepository, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.DatabaseURL)
	case config.DriverSQLite:
		if !isMemoryPath(cfg.DBPath) {
			// os.MkdirAll is like `mkdir -p`: a fresh checkout can run
			// without creating data/ by hand.
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		return sqliteRepo.New(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unsupported DB driver %q", cfg.DBDriver)
	}
}

func isMemoryPath(p string) bool {
	return p == ":memory:" || strings.HasPrefix(p, "file::memory:")
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET /healthz              → store ping
//	/users/...                → user CRUD (see handler.UserHandler.Mount)
//	/api/v1/users/...         → same routes under the versioned prefix
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: assigns the id echoed in error bodies and logs
//  2. RealIP: extracts real client IP from proxy headers
//  3. Logger: logs each request with timing info
//  4. Recoverer: catches panics and returns 500 instead of crashing
func (s *Server) setupRoutes(passwords *auth.PasswordService) {
	s.router.Use(middleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	// DEPENDENCY CHAIN:
	//   s.store → UserService → UserHandler
	// The handler never touches the database directly.
	userService := service.NewUserService(s.store, mapper.New(), passwords, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Route("/users", userHandler.Mount)
	s.router.Route("/api/v1/users", userHandler.Mount)
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store.
func (s *Server) Close() error {
	return s.store.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait up to ShutdownTimeout for in-flight requests to finish
//  3. Close the store (flushes WAL, releases file lock / pool)
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("failed to close store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("driver", s.config.DBDriver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
