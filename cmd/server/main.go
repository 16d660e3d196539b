// Command server runs the package registry API.
//
// Configuration comes from the environment; see internal/config for the
// variables and their defaults. SESSION_SECRET is required.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/package-registry/internal/config"
	"github.com/sakif/package-registry/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "" {
		logger.Warn("GITHUB_CLIENT_ID or GITHUB_CLIENT_SECRET not set, sign-in will fail")
	}

	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
