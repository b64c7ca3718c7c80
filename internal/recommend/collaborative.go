// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package recommend

import (
	"context"
	"fmt"
	"sort"
)

// collabAccum accumulates the weighted score of one candidate movie
// across the neighborhood.
type collabAccum struct {
	movie        MovieStats
	score        float64
	recommenders int
	ratingSum    float64
}

// collaborativeCandidates ranks movies liked by the target user's
// neighbors, weighted by each neighbor's similarity.
//
// For every movie any neighbor rated at or above LikeThreshold, the
// candidate accumulates similarity * neighbor_rating. Movies the
// target has already rated are excluded. Ties on accumulated score
// break on the movie's global average rating descending. An empty
// neighbor set yields an empty result; the strategy selector falls
// back to other signals in that case.
func (e *Engine) collaborativeCandidates(ctx context.Context, userID int, rated map[int]struct{}, limit int) ([]Candidate, error) {
	neighbors, err := e.neighbors(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(neighbors) == 0 {
		return nil, nil
	}

	similarity := make(map[int]float64, len(neighbors))
	userIDs := make([]int, 0, len(neighbors))
	for _, n := range neighbors {
		similarity[n.UserID] = n.Similarity
		userIDs = append(userIDs, n.UserID)
	}

	ratings, err := e.store.RatingsByUsers(ctx, userIDs, e.config.LikeThreshold)
	if err != nil {
		return nil, fmt.Errorf("neighbor ratings for user %d: %w", userID, err)
	}

	accum := make(map[int]*collabAccum)
	for _, r := range ratings {
		if _, already := rated[r.MovieID]; already {
			continue
		}
		sim, ok := similarity[r.UserID]
		if !ok {
			continue
		}
		a, ok := accum[r.MovieID]
		if !ok {
			a = &collabAccum{movie: MovieStats{
				MovieID:   r.MovieID,
				Title:     r.Title,
				FullTitle: r.FullTitle,
				Year:      r.Year,
				AvgRating: r.AvgRating,
				NumRating: r.NumRating,
			}}
			accum[r.MovieID] = a
		}
		a.score += sim * r.Rating
		a.recommenders++
		a.ratingSum += r.Rating
	}

	ranked := make([]*collabAccum, 0, len(accum))
	for _, a := range accum {
		ranked = append(ranked, a)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if ranked[i].movie.AvgRating != ranked[j].movie.AvgRating {
			return ranked[i].movie.AvgRating > ranked[j].movie.AvgRating
		}
		return ranked[i].movie.MovieID < ranked[j].movie.MovieID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	candidates := make([]Candidate, 0, len(ranked))
	for _, a := range ranked {
		candidates = append(candidates, Candidate{
			MovieID:   a.movie.MovieID,
			Title:     a.movie.Title,
			FullTitle: a.movie.FullTitle,
			Year:      a.movie.Year,
			AvgRating: a.movie.AvgRating,
			Score:     a.score,
			Source:    SourceCollaborative,
		})
	}
	return candidates, nil
}
