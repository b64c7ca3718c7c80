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

// contentCandidates ranks movies by genre-affinity popularity.
//
// The target user's top GenreCap genres are those attached to movies
// they rated at or above LikeThreshold, ordered by the user's mean
// rating in the genre then by movie count. Candidates are movies in
// any of those genres with an established global reputation
// (avg >= ContentMinAvgRating, count >= ContentMinRatingCount), ranked
// by avg_rating * rating_count. A user with no liked movies yields an
// empty result.
func (e *Engine) contentCandidates(ctx context.Context, userID int, rated map[int]struct{}, limit int) ([]Candidate, error) {
	genres, err := e.topGenres(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(genres) == 0 {
		return nil, nil
	}

	movies, err := e.store.MoviesInGenres(ctx, genres, e.config.ContentMinAvgRating, e.config.ContentMinRatingCount)
	if err != nil {
		return nil, fmt.Errorf("movies in genres for user %d: %w", userID, err)
	}

	// The store may return a movie once per matching genre; dedupe by
	// movie ID before ranking.
	seen := make(map[int]struct{}, len(movies))
	candidates := make([]Candidate, 0, len(movies))
	for _, m := range movies {
		if _, already := rated[m.MovieID]; already {
			continue
		}
		if _, dup := seen[m.MovieID]; dup {
			continue
		}
		seen[m.MovieID] = struct{}{}
		candidates = append(candidates, Candidate{
			MovieID:   m.MovieID,
			Title:     m.Title,
			FullTitle: m.FullTitle,
			Year:      m.Year,
			AvgRating: m.AvgRating,
			Score:     m.AvgRating * float64(m.NumRating),
			Source:    SourceContent,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].MovieID < candidates[j].MovieID
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// topGenres returns the user's highest-affinity genres, at most
// GenreCap of them.
func (e *Engine) topGenres(ctx context.Context, userID int) ([]string, error) {
	affinities, err := e.store.GenreAffinity(ctx, userID, e.config.LikeThreshold)
	if err != nil {
		return nil, fmt.Errorf("genre affinity for user %d: %w", userID, err)
	}

	sort.Slice(affinities, func(i, j int) bool {
		if affinities[i].MeanRating != affinities[j].MeanRating {
			return affinities[i].MeanRating > affinities[j].MeanRating
		}
		if affinities[i].MovieCount != affinities[j].MovieCount {
			return affinities[i].MovieCount > affinities[j].MovieCount
		}
		return affinities[i].Genre < affinities[j].Genre
	})

	if len(affinities) > e.config.GenreCap {
		affinities = affinities[:e.config.GenreCap]
	}

	genres := make([]string, 0, len(affinities))
	for _, a := range affinities {
		genres = append(genres, a.Genre)
	}
	return genres, nil
}
