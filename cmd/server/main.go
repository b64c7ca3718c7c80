// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

// Package main is the entry point for the Reelgraph server.
//
// Reelgraph serves personalized movie recommendations over a REST API,
// blending collaborative filtering (users with similar taste) with
// content-based filtering (genres the user gravitates toward) and
// falling back to global popularity for users with no history.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Database: Initialize DuckDB holding movies, users, ratings, and the genre index
//  3. Cache: Connect to Redis for rating-list and movie-metadata caching
//  4. Engine: Build the recommendation engine with the configured policy
//  5. Import (optional): Bulk-load a MovieLens CSV dataset when IMPORT_ENABLED=true
//  6. HTTP Server: REST API under /api/v1 plus Prometheus metrics at /metrics
//
// All runtime services live under a suture supervisor tree, which
// restarts a crashed service with exponential backoff instead of
// taking the process down.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (REELGRAPH_ prefix)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Closes the cache and database connections
//
// # Example Usage
//
// Serve an already-populated database:
//
//	export REELGRAPH_DATABASE_PATH=/data/reelgraph.duckdb
//	export REELGRAPH_REDIS_ADDR=localhost:6379
//	./reelgraph
//
// First run with a MovieLens dataset:
//
//	export REELGRAPH_DATABASE_PATH=/data/reelgraph.duckdb
//	export REELGRAPH_REDIS_ADDR=localhost:6379
//	export REELGRAPH_IMPORT_ENABLED=true
//	export REELGRAPH_IMPORT_MOVIES_PATH=/data/ml-latest-small/movies.csv
//	export REELGRAPH_IMPORT_RATINGS_PATH=/data/ml-latest-small/ratings.csv
//	./reelgraph
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/reelgraph/internal/api"
	"github.com/tomtom215/reelgraph/internal/cache"
	"github.com/tomtom215/reelgraph/internal/config"
	"github.com/tomtom215/reelgraph/internal/database"
	"github.com/tomtom215/reelgraph/internal/importer"
	"github.com/tomtom215/reelgraph/internal/logging"
	"github.com/tomtom215/reelgraph/internal/recommend"
	"github.com/tomtom215/reelgraph/internal/supervisor"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("redis_addr", cfg.Redis.Addr).
		Bool("import_enabled", cfg.Import.Enabled).
		Msg("Starting Reelgraph")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Redis is required: every read path goes through the cache layer.
	// Runtime outages are absorbed by the circuit breaker, but a server
	// that cannot reach Redis at startup is misconfigured.
	ratingsCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer func() {
		if err := ratingsCache.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing Redis client")
		}
	}()
	logging.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")

	engineCfg := engineConfig(&cfg.Recommend)
	engine, err := recommend.NewEngine(engineCfg, db, logging.WithComponent("recommend"))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build recommendation engine")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional bulk import runs to completion before the API comes up,
	// so the first request never races a half-loaded dataset.
	if cfg.Import.Enabled {
		if err := runImport(ctx, cfg, db, ratingsCache); err != nil {
			logging.Fatal().Err(err).Msg("Dataset import failed")
		}
	}

	handler := api.NewHandler(db, ratingsCache, engine, engineCfg)
	router := api.NewRouter(handler, &cfg.Server)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Create structured logger for supervisor using our slog adapter
	// This bridges zerolog to slog for sutureslog compatibility
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(supervisor.NewHTTPService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// engineConfig maps the koanf-loaded recommendation policy onto the
// engine's own config type, so the engine package stays free of any
// config-loading dependency.
func engineConfig(rc *config.RecommendConfig) *recommend.Config {
	return &recommend.Config{
		NeighborhoodSize:      rc.NeighborhoodSize,
		MinSharedMovies:       rc.MinSharedMovies,
		LikeThreshold:         rc.LikeThreshold,
		GenreCap:              rc.GenreCap,
		ContentMinAvgRating:   rc.ContentMinAvgRating,
		ContentMinRatingCount: rc.ContentMinRatingCount,
		PopularMinRatingCount: rc.PopularMinRatingCount,
		HybridMinRatings:      rc.HybridMinRatings,
		CollabWeight:          rc.CollabWeight,
		ContentWeight:         rc.ContentWeight,
		DefaultLimit:          rc.DefaultLimit,
		MaxLimit:              rc.MaxLimit,
		QueryTimeout:          rc.QueryTimeout,
	}
}

// runImport bulk-loads the configured MovieLens CSV pair and seeds the
// Redis metadata cache from the freshly computed aggregates.
func runImport(ctx context.Context, cfg *config.Config, db *database.DB, ratingsCache *cache.Cache) error {
	imp, err := importer.New(&cfg.Import, db, ratingsCache)
	if err != nil {
		return err
	}

	stats, err := imp.Run(ctx)
	if err != nil {
		return err
	}

	logging.Info().
		Int("movies_imported", stats.MoviesImported).
		Int("movies_skipped", stats.MoviesSkipped).
		Int("users_created", stats.UsersCreated).
		Int("ratings_imported", stats.RatingsImported).
		Int("ratings_skipped", stats.RatingsSkipped).
		Int("metadata_cached", stats.MetadataCached).
		Dur("duration", stats.Duration()).
		Msg("Dataset import completed")
	return nil
}
