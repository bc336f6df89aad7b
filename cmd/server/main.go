package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/matchpoint-dev/matchpoint/internal/config"
	"github.com/matchpoint-dev/matchpoint/internal/logger"
	"github.com/matchpoint-dev/matchpoint/internal/server"
	"github.com/matchpoint-dev/matchpoint/internal/telemetry"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	shutdownTracing := telemetry.Setup(context.Background(), "matchpoint-web", cfg.Telemetry, log)
	flushTraces := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to flush traces")
		}
	}

	// Create server
	srv, err := server.New(cfg, log, version)
	if err != nil {
		flushTraces()
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	log.Info().
		Str("version", version).
		Str("env", cfg.Env).
		Bool("expose_reset_links", cfg.Reset.ExposeLinks).
		Msg("Starting Matchpoint web server...")

	// Start HTTP server (this blocks)
	err = srv.Start()
	flushTraces()
	if err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
}
