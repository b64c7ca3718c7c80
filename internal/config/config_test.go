// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration should validate: %v", err)
	}
	if cfg.Recommend.NeighborhoodSize != 20 {
		t.Errorf("neighborhood size = %d, want 20", cfg.Recommend.NeighborhoodSize)
	}
	if cfg.Redis.RatingsTTL != 1800*time.Second {
		t.Errorf("ratings TTL = %s, want 30m", cfg.Redis.RatingsTTL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"empty redis addr", func(c *Config) { c.Redis.Addr = "" }},
		{"zero ttl", func(c *Config) { c.Redis.RatingsTTL = 0 }},
		{"zero neighborhood", func(c *Config) { c.Recommend.NeighborhoodSize = 0 }},
		{"zero min shared", func(c *Config) { c.Recommend.MinSharedMovies = 0 }},
		{"threshold out of range", func(c *Config) { c.Recommend.LikeThreshold = 6.0 }},
		{"negative weight", func(c *Config) { c.Recommend.CollabWeight = -1 }},
		{"max below default limit", func(c *Config) { c.Recommend.MaxLimit = 1 }},
		{"import without paths", func(c *Config) { c.Import.Enabled = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"REELGRAPH_SERVER_PORT", "server.port"},
		{"REELGRAPH_REDIS_RATINGS_TTL", "redis.ratings_ttl"},
		{"REELGRAPH_RECOMMEND_NEIGHBORHOOD_SIZE", "recommend.neighborhood_size"},
		{"REELGRAPH_LOGGING_LEVEL", "logging.level"},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "server:\n  port: 9090\nrecommend:\n  default_limit: 15\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090 from file", cfg.Server.Port)
	}
	if cfg.Recommend.DefaultLimit != 15 {
		t.Errorf("default limit = %d, want 15 from file", cfg.Recommend.DefaultLimit)
	}
	// Untouched keys keep defaults.
	if cfg.Recommend.GenreCap != 5 {
		t.Errorf("genre cap = %d, want default 5", cfg.Recommend.GenreCap)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("REELGRAPH_SERVER_PORT", "7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want env override 7070", cfg.Server.Port)
	}
}
