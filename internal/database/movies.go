// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/reelgraph/internal/metrics"
	"github.com/tomtom215/reelgraph/internal/recommend"
)

// MovieDetail is a movie with its genres, used for display enrichment
// and cache population.
type MovieDetail struct {
	recommend.MovieStats
	Genres []string `json:"genres"`
}

// MoviesInGenres returns movies attached to any of the given genres
// with an established global reputation. A movie matching several
// genres is returned once.
func (db *DB) MoviesInGenres(ctx context.Context, genres []string, minAvg float64, minCount int) ([]recommend.MovieStats, error) {
	if len(genres) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(genres)), ",")
	query := fmt.Sprintf(`
		SELECT DISTINCT m.movie_id, m.title, m.full_title,
		       COALESCE(m.year, 0), m.avg_rating, m.num_ratings
		FROM movies m
		JOIN movie_genres g ON g.movie_id = m.movie_id
		WHERE g.genre IN (%s) AND m.avg_rating >= ? AND m.num_ratings >= ?
	`, placeholders)

	args := make([]any, 0, len(genres)+2)
	for _, g := range genres {
		args = append(args, g)
	}
	args = append(args, minAvg, minCount)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("movies_in_genres", "movies", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("movies in %d genres: %w", len(genres), err)
	}
	defer closeWithLog(rows, "rows")

	return scanMovieStats(rows)
}

// PopularMovies returns movies with at least minCount ratings, best
// average first, ties broken by rating count.
func (db *DB) PopularMovies(ctx context.Context, minCount, limit int) ([]recommend.MovieStats, error) {
	query := `
		SELECT movie_id, title, full_title, COALESCE(year, 0), avg_rating, num_ratings
		FROM movies
		WHERE num_ratings >= ?
		ORDER BY avg_rating DESC, num_ratings DESC, movie_id
		LIMIT ?
	`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, minCount, limit)
	metrics.RecordDBQuery("popular_movies", "movies", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("popular movies: %w", err)
	}
	defer closeWithLog(rows, "rows")

	return scanMovieStats(rows)
}

// MovieByID returns one movie with its genres, or ErrMovieNotFound.
func (db *DB) MovieByID(ctx context.Context, movieID int) (*MovieDetail, error) {
	start := time.Now()
	var m MovieDetail
	err := db.conn.QueryRowContext(ctx, `
		SELECT movie_id, title, full_title, COALESCE(year, 0), avg_rating, num_ratings
		FROM movies WHERE movie_id = ?
	`, movieID).Scan(&m.MovieID, &m.Title, &m.FullTitle, &m.Year, &m.AvgRating, &m.NumRating)
	metrics.RecordDBQuery("movie_by_id", "movies", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("movie %d: %w", movieID, err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT genre FROM movie_genres WHERE movie_id = ? ORDER BY genre`, movieID)
	if err != nil {
		return nil, fmt.Errorf("genres for movie %d: %w", movieID, err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		m.Genres = append(m.Genres, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genres: %w", err)
	}
	return &m, nil
}

// MovieExists reports whether the movie ID has a row.
func (db *DB) MovieExists(ctx context.Context, movieID int) (bool, error) {
	start := time.Now()
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM movies WHERE movie_id = ?)`, movieID).Scan(&exists)
	metrics.RecordDBQuery("movie_exists", "movies", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("movie %d existence: %w", movieID, err)
	}
	return exists, nil
}

func scanMovieStats(rows *sql.Rows) ([]recommend.MovieStats, error) {
	var movies []recommend.MovieStats
	for rows.Next() {
		var m recommend.MovieStats
		if err := rows.Scan(&m.MovieID, &m.Title, &m.FullTitle, &m.Year, &m.AvgRating, &m.NumRating); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return movies, nil
}
