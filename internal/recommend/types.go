// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package recommend

import (
	"context"
	"time"
)

// Source identifies which scorer produced a candidate.
type Source string

const (
	// SourceCollaborative marks candidates from the collaborative scorer only.
	SourceCollaborative Source = "collaborative"
	// SourceContent marks candidates from the content scorer only.
	SourceContent Source = "content"
	// SourceHybrid marks candidates present in both scorers' output.
	SourceHybrid Source = "hybrid"
	// SourcePopular marks candidates from the popularity fallback.
	SourcePopular Source = "popular"
)

// Strategy is the per-request scoring strategy picked from the user's
// rating count. It is recomputed on every call, never persisted.
type Strategy int

const (
	// StrategyPopularity serves users with no ratings at all.
	StrategyPopularity Strategy = iota
	// StrategyContent serves users with too few ratings for a useful
	// neighbor set.
	StrategyContent
	// StrategyHybrid serves established users with both scorers.
	StrategyHybrid
)

// String returns a human-readable strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyPopularity:
		return "popularity"
	case StrategyContent:
		return "content"
	case StrategyHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// Rating is one user->movie rating edge.
type Rating struct {
	// MovieID is the rated movie.
	MovieID int `json:"movie_id"`

	// Title is the display title without the year suffix.
	Title string `json:"title"`

	// FullTitle is the title including the release-year suffix.
	FullTitle string `json:"full_title"`

	// Rating is the score, 0.5-5.0 in half-point steps.
	Rating float64 `json:"rating"`

	// Timestamp is when the rating was created or last updated.
	Timestamp time.Time `json:"timestamp"`
}

// Neighbor is another user with a positive cosine similarity to the
// target user over their co-rated movies.
type Neighbor struct {
	// UserID is the neighbor's identifier.
	UserID int `json:"user_id"`

	// Similarity is the cosine similarity, (0, 1].
	Similarity float64 `json:"similarity"`

	// SharedMovies is how many movies both users rated.
	SharedMovies int `json:"shared_movies"`
}

// RatingVectorPair holds the aligned rating vectors of the target user
// and one co-rating user. TargetRatings[i] and OtherRatings[i] refer to
// the same movie.
type RatingVectorPair struct {
	OtherUserID   int
	TargetRatings []float64
	OtherRatings  []float64
}

// NeighborRating is one liked movie of one neighbor, joined with the
// movie's global statistics for tie-breaking and display.
type NeighborRating struct {
	UserID    int
	MovieID   int
	Title     string
	FullTitle string
	Year      int
	Rating    float64
	AvgRating float64
	NumRating int
}

// GenreAffinity is the target user's relationship with one genre,
// derived from the movies they rated at or above the like threshold.
type GenreAffinity struct {
	Genre      string  `json:"genre"`
	MeanRating float64 `json:"mean_rating"`
	MovieCount int     `json:"movie_count"`
}

// MovieStats is a movie with its global aggregate statistics.
type MovieStats struct {
	MovieID   int
	Title     string
	FullTitle string
	Year      int
	AvgRating float64
	NumRating int
}

// Candidate is a scored movie produced by one recommendation request.
// Candidates are transient and never persisted.
type Candidate struct {
	MovieID   int     `json:"movie_id"`
	Title     string  `json:"title"`
	FullTitle string  `json:"full_title"`
	Year      int     `json:"year,omitempty"`
	AvgRating float64 `json:"avg_rating"`
	Score     float64 `json:"score"`
	Source    Source  `json:"source"`
}

// Response is the result of one recommendation request.
type Response struct {
	// UserID is the user the recommendations are for.
	UserID int `json:"user_id"`

	// Strategy names the branch the selector took.
	Strategy string `json:"strategy"`

	// Candidates is the final ranked list, best first.
	Candidates []Candidate `json:"candidates"`

	// RatingCount is the user's rating count at selection time.
	RatingCount int `json:"rating_count"`

	// LatencyMS is the total pipeline latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`
}

// Store defines the graph-store capabilities the engine consumes.
// Implemented by the database layer.
type Store interface {
	// RatingCount returns how many movies the user has rated.
	RatingCount(ctx context.Context, userID int) (int, error)

	// RatedMovieIDs returns the set of movie IDs the user has rated.
	RatedMovieIDs(ctx context.Context, userID int) (map[int]struct{}, error)

	// CoRatedVectors returns, for every other user sharing at least
	// minShared rated movies with userID, the aligned rating vectors
	// over the shared movies. The target user itself is never included.
	CoRatedVectors(ctx context.Context, userID, minShared int) ([]RatingVectorPair, error)

	// RatingsByUsers returns every rating at or above minRating made by
	// any of the given users, joined with global movie statistics.
	RatingsByUsers(ctx context.Context, userIDs []int, minRating float64) ([]NeighborRating, error)

	// GenreAffinity returns, per genre, the user's mean rating and movie
	// count over movies the user rated at or above minRating. The
	// "no genres listed" sentinel is never returned.
	GenreAffinity(ctx context.Context, userID int, minRating float64) ([]GenreAffinity, error)

	// MoviesInGenres returns movies attached to any of the given genres
	// with global average rating >= minAvg and rating count >= minCount.
	MoviesInGenres(ctx context.Context, genres []string, minAvg float64, minCount int) ([]MovieStats, error)

	// PopularMovies returns movies with rating count >= minCount ordered
	// by average rating descending, then rating count descending.
	PopularMovies(ctx context.Context, minCount, limit int) ([]MovieStats, error)
}
