// Package main is the entry point for the user accounts server.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal. Its job is to:
//  1. Read configuration (env vars, optionally a .env file)
//  2. Create the logger
//  3. Start the application
//
// All actual logic lives in imported packages (internal/server,
// internal/handler, ...), which keeps them testable without a process.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/user-accounts/internal/config"
	"github.com/sakif/user-accounts/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		// No configured logger yet; fall back to a plain text one.
		slog.New(slog.NewTextHandler(os.Stderr, nil)).
			Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// LOG_LEVEL picks the minimum level, LOG_FORMAT picks text or JSON.
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	// === 3. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
