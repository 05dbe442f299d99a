// Package main is the entry point for the repoedit server.
//
// main stays minimal:
// 1. Read configuration (environment, via internal/config)
// 2. Build the root logger
// 3. Build and start the server
//
// All actual logic lives in internal/ packages.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sakif/repoedit/internal/config"
	"github.com/sakif/repoedit/internal/logging"
	"github.com/sakif/repoedit/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// Required: GITHUB_CLIENT_ID, GITHUB_CLIENT_SECRET, GITHUB_REDIRECT_URI,
	// ACCESS_TOKEN_KEY (>= 32 chars), SESSION_SECRET (>= 16 chars).
	//   ACCESS_TOKEN_KEY=$(openssl rand -hex 32)
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// LOG_FORMAT=json in production, text locally.
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
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
