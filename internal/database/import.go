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

	"github.com/tomtom215/reelgraph/internal/metrics"
)

// MovieRow is one parsed movies.csv record ready for insertion.
type MovieRow struct {
	MovieID   int
	Title     string
	FullTitle string
	Year      int
	Genres    []string
}

// RatingRow is one parsed ratings.csv record ready for insertion.
type RatingRow struct {
	UserID  int
	MovieID int
	Rating  float64
	RatedAt time.Time
}

// InsertMovies bulk-inserts a batch of movies with their genre index rows
// in a single transaction. Re-running an import replaces existing movie
// rows rather than duplicating them.
func (db *DB) InsertMovies(ctx context.Context, movies []MovieRow) error {
	if len(movies) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin movie batch: %w", err)
	}
	defer rollbackQuietly(tx)

	movieStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO movies (movie_id, title, full_title, year, avg_rating, num_ratings)
		 VALUES (?, ?, ?, ?, 0, 0)`)
	if err != nil {
		return fmt.Errorf("failed to prepare movie insert: %w", err)
	}
	defer closeQuietly(movieStmt)

	genreStmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO genres (name) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare genre insert: %w", err)
	}
	defer closeQuietly(genreStmt)

	linkStmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO movie_genres (movie_id, genre) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare movie genre insert: %w", err)
	}
	defer closeQuietly(linkStmt)

	for _, m := range movies {
		var year any
		if m.Year > 0 {
			year = m.Year
		}
		if _, err := movieStmt.ExecContext(ctx, m.MovieID, m.Title, m.FullTitle, year); err != nil {
			return fmt.Errorf("failed to insert movie %d: %w", m.MovieID, err)
		}
		for _, g := range m.Genres {
			if _, err := genreStmt.ExecContext(ctx, g); err != nil {
				return fmt.Errorf("failed to insert genre %q: %w", g, err)
			}
			if _, err := linkStmt.ExecContext(ctx, m.MovieID, g); err != nil {
				return fmt.Errorf("failed to link movie %d to genre %q: %w", m.MovieID, g, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit movie batch: %w", err)
	}
	metrics.RecordDBQuery("insert_batch", "movies", time.Since(start), nil)
	return nil
}

// InsertUsers bulk-inserts user IDs, ignoring ones already present.
func (db *DB) InsertUsers(ctx context.Context, userIDs []int) error {
	if len(userIDs) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin user batch: %w", err)
	}
	defer rollbackQuietly(tx)

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO users (user_id, created_at) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare user insert: %w", err)
	}
	defer closeQuietly(stmt)

	now := time.Now()
	for _, id := range userIDs {
		if _, err := stmt.ExecContext(ctx, id, now); err != nil {
			return fmt.Errorf("failed to insert user %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user batch: %w", err)
	}
	metrics.RecordDBQuery("insert_batch", "users", time.Since(start), nil)
	return nil
}

// InsertRatings bulk-inserts a batch of ratings. The per-movie aggregates
// are intentionally left untouched; callers run RecomputeAllMovieStats
// once after the last batch instead of paying a recompute per row.
func (db *DB) InsertRatings(ctx context.Context, ratings []RatingRow) error {
	if len(ratings) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rating batch: %w", err)
	}
	defer rollbackQuietly(tx)

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO ratings (user_id, movie_id, rating, rated_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare rating insert: %w", err)
	}
	defer closeQuietly(stmt)

	for _, r := range ratings {
		if _, err := stmt.ExecContext(ctx, r.UserID, r.MovieID, r.Rating, r.RatedAt); err != nil {
			return fmt.Errorf("failed to insert rating (%d, %d): %w", r.UserID, r.MovieID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rating batch: %w", err)
	}
	metrics.RecordDBQuery("insert_batch", "ratings", time.Since(start), nil)
	return nil
}

// RecomputeAllMovieStats refreshes avg_rating and num_ratings for every
// movie in one statement. Movies without ratings get 0/0.
func (db *DB) RecomputeAllMovieStats(ctx context.Context) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		UPDATE movies SET
			avg_rating = COALESCE((SELECT AVG(r.rating) FROM ratings r WHERE r.movie_id = movies.movie_id), 0),
			num_ratings = (SELECT COUNT(*) FROM ratings r WHERE r.movie_id = movies.movie_id)`)
	metrics.RecordDBQuery("recompute_all_stats", "movies", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to recompute movie stats: %w", err)
	}
	return nil
}

// AllMovieStats streams every movie's current aggregate row, used to
// populate the metadata cache after an import.
func (db *DB) AllMovieStats(ctx context.Context) ([]MovieDetail, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT m.movie_id, m.title, m.full_title, COALESCE(m.year, 0), m.avg_rating, m.num_ratings,
		       COALESCE(string_agg(mg.genre, '|' ORDER BY mg.genre), '')
		FROM movies m
		LEFT JOIN movie_genres mg ON mg.movie_id = m.movie_id
		GROUP BY m.movie_id, m.title, m.full_title, m.year, m.avg_rating, m.num_ratings
		ORDER BY m.movie_id`)
	metrics.RecordDBQuery("all_movie_stats", "movies", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query movie stats: %w", err)
	}
	defer closeQuietly(rows)

	var out []MovieDetail
	for rows.Next() {
		var d MovieDetail
		var joined string
		if err := rows.Scan(&d.MovieID, &d.Title, &d.FullTitle, &d.Year, &d.AvgRating, &d.NumRating, &joined); err != nil {
			return nil, fmt.Errorf("failed to scan movie stats: %w", err)
		}
		if joined != "" {
			d.Genres = splitJoined(joined)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate movie stats: %w", err)
	}
	return out, nil
}

func splitJoined(joined string) []string {
	return strings.Split(joined, "|")
}
