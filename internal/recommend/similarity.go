// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// neighbors computes the similar-user set for userID.
//
// For every other user sharing at least MinSharedMovies co-rated
// movies, the two users' ratings over the shared movies form a pair of
// aligned vectors; the cosine of those vectors is the similarity.
// Non-positive similarities are discarded and the result is capped at
// NeighborhoodSize, ordered by similarity descending. A user with no
// ratings yields an empty set.
func (e *Engine) neighbors(ctx context.Context, userID int) ([]Neighbor, error) {
	pairs, err := e.store.CoRatedVectors(ctx, userID, e.config.MinSharedMovies)
	if err != nil {
		return nil, fmt.Errorf("co-rated vectors for user %d: %w", userID, err)
	}

	neighbors := make([]Neighbor, 0, len(pairs))
	for _, p := range pairs {
		// The store should never hand back the target user or an
		// undersized overlap, but the similarity contract does not
		// depend on that.
		if p.OtherUserID == userID || len(p.TargetRatings) < e.config.MinSharedMovies {
			continue
		}
		sim := cosineSimilarity(p.TargetRatings, p.OtherRatings)
		if sim <= 0 {
			continue
		}
		neighbors = append(neighbors, Neighbor{
			UserID:       p.OtherUserID,
			Similarity:   sim,
			SharedMovies: len(p.TargetRatings),
		})
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Similarity != neighbors[j].Similarity {
			return neighbors[i].Similarity > neighbors[j].Similarity
		}
		// Stable order for equal similarities.
		return neighbors[i].UserID < neighbors[j].UserID
	})

	if len(neighbors) > e.config.NeighborhoodSize {
		neighbors = neighbors[:e.config.NeighborhoodSize]
	}
	return neighbors, nil
}

// cosineSimilarity returns the cosine of two aligned rating vectors:
// dot product over the product of magnitudes, range [-1, 1]. Returns 0
// when either vector has zero magnitude or the lengths differ.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
