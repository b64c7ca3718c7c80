// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/reelgraph/internal/logging"
	"github.com/tomtom215/reelgraph/internal/metrics"
	"github.com/tomtom215/reelgraph/internal/recommend"
)

// RatingCount returns how many movies the user has rated.
func (db *DB) RatingCount(ctx context.Context, userID int) (int, error) {
	start := time.Now()
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ratings WHERE user_id = ?`, userID).Scan(&count)
	metrics.RecordDBQuery("rating_count", "ratings", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("rating count for user %d: %w", userID, err)
	}
	return count, nil
}

// RatedMovieIDs returns the set of movie IDs the user has rated.
func (db *DB) RatedMovieIDs(ctx context.Context, userID int) (map[int]struct{}, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT movie_id FROM ratings WHERE user_id = ?`, userID)
	metrics.RecordDBQuery("rated_movie_ids", "ratings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("rated movies for user %d: %w", userID, err)
	}
	defer closeWithLog(rows, "rows")

	ids := make(map[int]struct{})
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan movie id: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rated movies: %w", err)
	}
	return ids, nil
}

// UserRatings returns the user's ratings with movie titles, most
// recent first.
func (db *DB) UserRatings(ctx context.Context, userID int) ([]recommend.Rating, error) {
	query := `
		SELECT r.movie_id, m.title, m.full_title, r.rating, r.rated_at
		FROM ratings r
		JOIN movies m ON m.movie_id = r.movie_id
		WHERE r.user_id = ?
		ORDER BY r.rated_at DESC
	`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, userID)
	metrics.RecordDBQuery("user_ratings", "ratings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("ratings for user %d: %w", userID, err)
	}
	defer closeWithLog(rows, "rows")

	ratings := make([]recommend.Rating, 0)
	for rows.Next() {
		var r recommend.Rating
		if err := rows.Scan(&r.MovieID, &r.Title, &r.FullTitle, &r.Rating, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return ratings, nil
}

// CoRatedVectors returns, per other user sharing at least minShared
// rated movies with userID, the two users' ratings over the shared
// movies as aligned vectors. Rows come back flat and are grouped here;
// the ORDER BY keeps the vectors aligned movie-by-movie.
func (db *DB) CoRatedVectors(ctx context.Context, userID, minShared int) ([]recommend.RatingVectorPair, error) {
	query := `
		SELECT o.user_id, t.rating, o.rating
		FROM ratings t
		JOIN ratings o ON o.movie_id = t.movie_id AND o.user_id <> t.user_id
		WHERE t.user_id = ?
		ORDER BY o.user_id, t.movie_id
	`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, userID)
	metrics.RecordDBQuery("co_rated_vectors", "ratings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("co-rated vectors for user %d: %w", userID, err)
	}
	defer closeWithLog(rows, "rows")

	var pairs []recommend.RatingVectorPair
	var current *recommend.RatingVectorPair
	for rows.Next() {
		var otherID int
		var targetRating, otherRating float64
		if err := rows.Scan(&otherID, &targetRating, &otherRating); err != nil {
			return nil, fmt.Errorf("scan co-rated row: %w", err)
		}
		if current == nil || current.OtherUserID != otherID {
			pairs = append(pairs, recommend.RatingVectorPair{OtherUserID: otherID})
			current = &pairs[len(pairs)-1]
		}
		current.TargetRatings = append(current.TargetRatings, targetRating)
		current.OtherRatings = append(current.OtherRatings, otherRating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate co-rated rows: %w", err)
	}

	// Enforce the shared-movie floor here rather than in SQL so one
	// pass over the flat rows suffices.
	filtered := pairs[:0]
	for _, p := range pairs {
		if len(p.TargetRatings) >= minShared {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// RatingsByUsers returns every rating at or above minRating made by
// any of the given users, joined with global movie statistics.
func (db *DB) RatingsByUsers(ctx context.Context, userIDs []int, minRating float64) ([]recommend.NeighborRating, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(userIDs)), ",")
	query := fmt.Sprintf(`
		SELECT r.user_id, r.movie_id, m.title, m.full_title,
		       COALESCE(m.year, 0), r.rating, m.avg_rating, m.num_ratings
		FROM ratings r
		JOIN movies m ON m.movie_id = r.movie_id
		WHERE r.user_id IN (%s) AND r.rating >= ?
	`, placeholders)

	args := make([]any, 0, len(userIDs)+1)
	for _, id := range userIDs {
		args = append(args, id)
	}
	args = append(args, minRating)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("ratings_by_users", "ratings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("ratings by %d users: %w", len(userIDs), err)
	}
	defer closeWithLog(rows, "rows")

	var ratings []recommend.NeighborRating
	for rows.Next() {
		var r recommend.NeighborRating
		if err := rows.Scan(&r.UserID, &r.MovieID, &r.Title, &r.FullTitle,
			&r.Year, &r.Rating, &r.AvgRating, &r.NumRating); err != nil {
			return nil, fmt.Errorf("scan neighbor rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate neighbor ratings: %w", err)
	}
	return ratings, nil
}

// GenreAffinity returns, per genre, the user's mean rating and movie
// count over movies rated at or above minRating. The "no genres
// listed" sentinel never appears in movie_genres, but the predicate
// guards against legacy imports anyway.
func (db *DB) GenreAffinity(ctx context.Context, userID int, minRating float64) ([]recommend.GenreAffinity, error) {
	query := `
		SELECT g.genre, AVG(r.rating), COUNT(*)
		FROM ratings r
		JOIN movie_genres g ON g.movie_id = r.movie_id
		WHERE r.user_id = ? AND r.rating >= ? AND g.genre <> 'no genres listed'
		GROUP BY g.genre
	`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, userID, minRating)
	metrics.RecordDBQuery("genre_affinity", "movie_genres", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("genre affinity for user %d: %w", userID, err)
	}
	defer closeWithLog(rows, "rows")

	var affinities []recommend.GenreAffinity
	for rows.Next() {
		var a recommend.GenreAffinity
		if err := rows.Scan(&a.Genre, &a.MeanRating, &a.MovieCount); err != nil {
			return nil, fmt.Errorf("scan genre affinity: %w", err)
		}
		affinities = append(affinities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genre affinities: %w", err)
	}
	return affinities, nil
}

// UpsertRating writes or overwrites the user's rating for a movie and
// recomputes the movie's aggregate statistics.
//
// The two mutations run in sequence as one logical unit. If the
// recompute fails after the edge write succeeded, the stale aggregate
// is logged and accepted; it self-corrects on the next successful
// recompute for the same movie.
func (db *DB) UpsertRating(ctx context.Context, userID, movieID int, rating float64) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO ratings (user_id, movie_id, rating, rated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, movie_id)
		DO UPDATE SET rating = excluded.rating, rated_at = excluded.rated_at
	`, userID, movieID, rating)
	metrics.RecordDBQuery("upsert_rating", "ratings", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("upsert rating user %d movie %d: %w", userID, movieID, err)
	}

	if err := db.RecomputeMovieStats(ctx, movieID); err != nil {
		metrics.RatingStatsRecomputeFailures.Inc()
		logging.Warn().
			Int("movie_id", movieID).
			Err(err).
			Msg("movie stats recompute failed, aggregates stale until next recompute")
	}
	return nil
}

// RecomputeMovieStats recomputes the movie's average rating and rating
// count from its current rating edges. A full recompute, not an
// incremental update, so the aggregates cannot drift.
func (db *DB) RecomputeMovieStats(ctx context.Context, movieID int) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		UPDATE movies SET
			avg_rating = COALESCE((SELECT AVG(rating) FROM ratings WHERE movie_id = ?), 0),
			num_ratings = (SELECT COUNT(*) FROM ratings WHERE movie_id = ?)
		WHERE movie_id = ?
	`, movieID, movieID, movieID)
	metrics.RecordDBQuery("recompute_stats", "movies", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("recompute stats for movie %d: %w", movieID, err)
	}
	return nil
}
