// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package recommend

import (
	"fmt"
	"time"
)

// Config contains the policy constants of the recommendation engine.
// The thresholds are deliberate product decisions, not tuning
// parameters, but they live here rather than as literals in the
// scorers so deployments can adjust them.
type Config struct {
	// NeighborhoodSize caps the similar-user set. Fixed at 20 by
	// default; larger neighborhoods dilute the similarity signal.
	NeighborhoodSize int `json:"neighborhood_size"`

	// MinSharedMovies is the minimum co-rated movie count before two
	// users are comparable. Below this the cosine over the overlap is
	// noise.
	MinSharedMovies int `json:"min_shared_movies"`

	// LikeThreshold is the rating at or above which a movie counts as
	// liked.
	LikeThreshold float64 `json:"like_threshold"`

	// GenreCap is how many top affinity genres the content scorer uses.
	GenreCap int `json:"genre_cap"`

	// ContentMinAvgRating and ContentMinRatingCount gate content
	// candidates to movies with an established positive reputation.
	ContentMinAvgRating   float64 `json:"content_min_avg_rating"`
	ContentMinRatingCount int     `json:"content_min_rating_count"`

	// PopularMinRatingCount gates the popularity fallback.
	PopularMinRatingCount int `json:"popular_min_rating_count"`

	// HybridMinRatings is the rating count at which a user graduates
	// from content-only to hybrid scoring.
	HybridMinRatings int `json:"hybrid_min_ratings"`

	// CollabWeight and ContentWeight are the positional fusion weights.
	// Collaborative is weighted higher because behavioral similarity is
	// a stronger signal than genre affinity alone.
	CollabWeight  float64 `json:"collab_weight"`
	ContentWeight float64 `json:"content_weight"`

	// DefaultLimit and MaxLimit bound the result list size.
	DefaultLimit int `json:"default_limit"`
	MaxLimit     int `json:"max_limit"`

	// QueryTimeout bounds each store query issued by a scorer.
	QueryTimeout time.Duration `json:"query_timeout"`
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() *Config {
	return &Config{
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
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.NeighborhoodSize <= 0 {
		return fmt.Errorf("neighborhood size must be positive, got %d", c.NeighborhoodSize)
	}
	if c.MinSharedMovies < 1 {
		return fmt.Errorf("min shared movies must be >= 1, got %d", c.MinSharedMovies)
	}
	if c.LikeThreshold < 0.5 || c.LikeThreshold > 5.0 {
		return fmt.Errorf("like threshold must be within [0.5, 5.0], got %g", c.LikeThreshold)
	}
	if c.GenreCap <= 0 {
		return fmt.Errorf("genre cap must be positive, got %d", c.GenreCap)
	}
	if c.CollabWeight <= 0 || c.ContentWeight <= 0 {
		return fmt.Errorf("fusion weights must be positive, got %g/%g", c.CollabWeight, c.ContentWeight)
	}
	if c.HybridMinRatings < 1 {
		return fmt.Errorf("hybrid min ratings must be >= 1, got %d", c.HybridMinRatings)
	}
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("default limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("max limit %d below default limit %d", c.MaxLimit, c.DefaultLimit)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("query timeout must be positive, got %s", c.QueryTimeout)
	}
	return nil
}
