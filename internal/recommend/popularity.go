// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package recommend

import (
	"context"
	"fmt"
)

// popularityCandidates is the cold-start fallback: globally popular
// movies with at least PopularMinRatingCount ratings, best average
// first. A brand-new user has nothing to exclude, but the already-rated
// filter is applied anyway so the fallback is safe to serve to any
// user.
func (e *Engine) popularityCandidates(ctx context.Context, rated map[int]struct{}, limit int) ([]Candidate, error) {
	// Over-fetch so the rated filter cannot leave the list short.
	movies, err := e.store.PopularMovies(ctx, e.config.PopularMinRatingCount, limit+len(rated))
	if err != nil {
		return nil, fmt.Errorf("popular movies: %w", err)
	}

	candidates := make([]Candidate, 0, limit)
	for _, m := range movies {
		if _, already := rated[m.MovieID]; already {
			continue
		}
		candidates = append(candidates, Candidate{
			MovieID:   m.MovieID,
			Title:     m.Title,
			FullTitle: m.FullTitle,
			Year:      m.Year,
			AvgRating: m.AvgRating,
			Score:     m.AvgRating,
			Source:    SourcePopular,
		})
		if len(candidates) == limit {
			break
		}
	}
	return candidates, nil
}
