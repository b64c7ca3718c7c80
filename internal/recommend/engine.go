// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package recommend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelgraph/internal/metrics"
)

// Engine is the recommendation pipeline entry point. It is stateless
// across requests and safe for concurrent use; every call re-reads
// current graph state through the Store.
type Engine struct {
	config *Config
	logger zerolog.Logger
	store  Store
}

// NewEngine creates a recommendation engine backed by the given store.
func NewEngine(cfg *Config, store Store, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}

	return &Engine{
		config: cfg,
		logger: logger.With().Str("component", "recommend").Logger(),
		store:  store,
	}, nil
}

// SelectStrategy classifies the user's rating count into a scoring
// strategy. Pure function of a single integer; no history is kept.
func (e *Engine) SelectStrategy(ratingCount int) Strategy {
	switch {
	case ratingCount == 0:
		return StrategyPopularity
	case ratingCount < e.config.HybridMinRatings:
		return StrategyContent
	default:
		return StrategyHybrid
	}
}

// Recommend produces up to limit ranked movie candidates for userID.
//
// Store failures propagate to the caller; the request fails closed
// rather than returning a partial ranking. Data sufficiency conditions
// (no ratings, few ratings) are not errors and are handled by strategy
// branching.
func (e *Engine) Recommend(ctx context.Context, userID, limit int) (*Response, error) {
	start := time.Now()
	limit = e.clampLimit(limit)

	count, err := e.store.RatingCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("rating count for user %d: %w", userID, err)
	}

	strategy := e.SelectStrategy(count)
	logger := e.logger.With().
		Int("user_id", userID).
		Int("rating_count", count).
		Str("strategy", strategy.String()).
		Logger()
	logger.Debug().Msg("processing recommendation request")

	rated, err := e.store.RatedMovieIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("rated movies for user %d: %w", userID, err)
	}

	var candidates []Candidate
	switch strategy {
	case StrategyPopularity:
		candidates, err = e.popularityCandidates(ctx, rated, limit)
	case StrategyContent:
		candidates, err = e.contentCandidates(ctx, userID, rated, limit)
	case StrategyHybrid:
		candidates, err = e.hybridCandidates(ctx, userID, rated, limit)
	}
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	metrics.RecordRecommendation(strategy.String(), elapsed, len(candidates))

	logger.Debug().
		Int("returned", len(candidates)).
		Int64("latency_ms", elapsed.Milliseconds()).
		Msg("recommendation complete")

	return &Response{
		UserID:      userID,
		Strategy:    strategy.String(),
		Candidates:  candidates,
		RatingCount: count,
		LatencyMS:   elapsed.Milliseconds(),
	}, nil
}

// scorerResult holds the output of one concurrently-run scorer.
type scorerResult struct {
	candidates []Candidate
	err        error
}

// hybridCandidates runs the collaborative and content scorers
// concurrently and fuses their outputs. The scorers are independent
// read-only views of the graph; the fuser waits for both. Each scorer
// gets 2*limit slots so the fusion has enough overlap to work with.
func (e *Engine) hybridCandidates(ctx context.Context, userID int, rated map[int]struct{}, limit int) ([]Candidate, error) {
	fetchLimit := 2 * limit

	var wg sync.WaitGroup
	var collab, content scorerResult

	wg.Add(2)
	go func() {
		defer wg.Done()
		start := time.Now()
		collab.candidates, collab.err = e.collaborativeCandidates(ctx, userID, rated, fetchLimit)
		metrics.RecordScorer("collaborative", time.Since(start))
	}()
	go func() {
		defer wg.Done()
		start := time.Now()
		content.candidates, content.err = e.contentCandidates(ctx, userID, rated, fetchLimit)
		metrics.RecordScorer("content", time.Since(start))
	}()
	wg.Wait()

	if collab.err != nil {
		return nil, fmt.Errorf("collaborative scorer: %w", collab.err)
	}
	if content.err != nil {
		return nil, fmt.Errorf("content scorer: %w", content.err)
	}

	return fuseRanked(collab.candidates, content.candidates, e.config.CollabWeight, e.config.ContentWeight, limit), nil
}

// clampLimit applies the default and maximum result list bounds.
func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		return e.config.DefaultLimit
	}
	if limit > e.config.MaxLimit {
		return e.config.MaxLimit
	}
	return limit
}
