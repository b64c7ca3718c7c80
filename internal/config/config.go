// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

// Package config provides layered configuration for Reelgraph.
//
// Configuration is loaded via Koanf v2 with layered sources, highest
// priority last:
//
//  1. Built-in defaults
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables (HTTP_PORT, DUCKDB_PATH, REDIS_ADDR, ...)
package config

import (
	"fmt"
	"time"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Recommend RecommendConfig `koanf:"recommend"`
	Import    ImportConfig    `koanf:"import"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimitReqs is the number of requests allowed per RateLimitWindow
	// per client IP. Zero disables rate limiting.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// CORSOrigins lists allowed CORS origins. "*" allows all.
	CORSOrigins []string `koanf:"cors_origins"`
}

// DatabaseConfig holds DuckDB settings for the movie graph store.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// RedisConfig holds settings for the ratings cache and movie metadata store.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`

	// DialTimeout bounds initial connection establishment.
	DialTimeout time.Duration `koanf:"dial_timeout"`

	// RatingsTTL is how long a user's cached rating list stays valid.
	RatingsTTL time.Duration `koanf:"ratings_ttl"`
}

// RecommendConfig holds the recommendation policy constants.
// These are fixed policy knobs, not tuned per request.
type RecommendConfig struct {
	// NeighborhoodSize caps the similar-user set used by the
	// collaborative scorer.
	NeighborhoodSize int `koanf:"neighborhood_size"`

	// MinSharedMovies is the minimum number of commonly rated movies
	// required before two users are comparable at all.
	MinSharedMovies int `koanf:"min_shared_movies"`

	// LikeThreshold is the rating at or above which a movie counts as
	// liked (drives both scorers' candidate selection).
	LikeThreshold float64 `koanf:"like_threshold"`

	// GenreCap is the number of top affinity genres the content scorer
	// considers.
	GenreCap int `koanf:"genre_cap"`

	// ContentMinAvgRating / ContentMinRatingCount gate which movies are
	// eligible content candidates.
	ContentMinAvgRating   float64 `koanf:"content_min_avg_rating"`
	ContentMinRatingCount int     `koanf:"content_min_rating_count"`

	// PopularMinRatingCount gates the popularity fallback.
	PopularMinRatingCount int `koanf:"popular_min_rating_count"`

	// HybridMinRatings is the rating count at which a user graduates
	// from content-only to hybrid scoring.
	HybridMinRatings int `koanf:"hybrid_min_ratings"`

	// CollabWeight / ContentWeight are the positional fusion weights.
	CollabWeight  float64 `koanf:"collab_weight"`
	ContentWeight float64 `koanf:"content_weight"`

	// DefaultLimit / MaxLimit bound the result list size.
	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`

	// QueryTimeout bounds each graph-store query issued by the scorers.
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// ImportConfig holds MovieLens CSV bulk import settings.
type ImportConfig struct {
	Enabled     bool   `koanf:"enabled"`
	MoviesPath  string `koanf:"movies_path"`
	RatingsPath string `koanf:"ratings_path"`
	BatchSize   int    `koanf:"batch_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis addr must not be empty")
	}
	if c.Redis.RatingsTTL <= 0 {
		return fmt.Errorf("redis ratings TTL must be positive, got %s", c.Redis.RatingsTTL)
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if c.Import.Enabled {
		if c.Import.MoviesPath == "" || c.Import.RatingsPath == "" {
			return fmt.Errorf("import enabled but movies/ratings paths not set")
		}
		if c.Import.BatchSize <= 0 {
			return fmt.Errorf("import batch size must be positive, got %d", c.Import.BatchSize)
		}
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.NeighborhoodSize <= 0 {
		return fmt.Errorf("recommend neighborhood size must be positive, got %d", r.NeighborhoodSize)
	}
	if r.MinSharedMovies < 1 {
		return fmt.Errorf("recommend min shared movies must be >= 1, got %d", r.MinSharedMovies)
	}
	if r.LikeThreshold < 0.5 || r.LikeThreshold > 5.0 {
		return fmt.Errorf("recommend like threshold must be within [0.5, 5.0], got %g", r.LikeThreshold)
	}
	if r.GenreCap <= 0 {
		return fmt.Errorf("recommend genre cap must be positive, got %d", r.GenreCap)
	}
	if r.CollabWeight <= 0 || r.ContentWeight <= 0 {
		return fmt.Errorf("recommend fusion weights must be positive, got %g/%g", r.CollabWeight, r.ContentWeight)
	}
	if r.DefaultLimit <= 0 || r.MaxLimit < r.DefaultLimit {
		return fmt.Errorf("recommend limits invalid: default %d, max %d", r.DefaultLimit, r.MaxLimit)
	}
	if r.HybridMinRatings < 1 {
		return fmt.Errorf("recommend hybrid min ratings must be >= 1, got %d", r.HybridMinRatings)
	}
	return nil
}
