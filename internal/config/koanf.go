// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "REELGRAPH_"

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			Path:      "data/reelgraph.duckdb",
			MaxMemory: "512MB",
			Threads:   0,
		},
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			DB:          0,
			DialTimeout: 5 * time.Second,
			RatingsTTL:  1800 * time.Second,
		},
		Recommend: RecommendConfig{
			NeighborhoodSize:      20,
			MinSharedMovies:       3,
			LikeThreshold:         3.5,
			GenreCap:              5,
			ContentMinAvgRating:   3.5,
			ContentMinRatingCount: 10,
			PopularMinRatingCount: 50,
			HybridMinRatings:      5,
			CollabWeight:          2.0,
			ContentWeight:         1.5,
			DefaultLimit:          10,
			MaxLimit:              50,
			QueryTimeout:          10 * time.Second,
		},
		Import: ImportConfig{
			Enabled:   false,
			BatchSize: 5000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and environment variables, then validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// envTransform maps REELGRAPH_SERVER_PORT to server.port and so on.
// Only the first underscore becomes a section separator so keys like
// redis.ratings_ttl survive the round trip.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 {
		return s
	}
	return parts[0] + "." + parts[1]
}

// findConfigFile resolves the YAML config path. CONFIG_PATH wins;
// otherwise the first existing candidate is used. Returns "" when no
// file is present, which is not an error.
func findConfigFile() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	candidates := []string{
		"config.yaml",
		"config.yml",
		"/etc/reelgraph/config.yaml",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
