// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/reelgraph/internal/logging"
)

// schemaStatements are applied in order at startup. All statements are
// idempotent so restarting against an existing database is safe.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id INTEGER PRIMARY KEY,
		name VARCHAR,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS movies (
		movie_id INTEGER PRIMARY KEY,
		title VARCHAR NOT NULL,
		full_title VARCHAR NOT NULL,
		year INTEGER,
		avg_rating DOUBLE NOT NULL DEFAULT 0,
		num_ratings INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS genres (
		name VARCHAR PRIMARY KEY
	)`,

	`CREATE TABLE IF NOT EXISTS movie_genres (
		movie_id INTEGER NOT NULL,
		genre VARCHAR NOT NULL,
		PRIMARY KEY (movie_id, genre)
	)`,

	// One rating edge per (user, movie); resubmission overwrites.
	`CREATE TABLE IF NOT EXISTS ratings (
		user_id INTEGER NOT NULL,
		movie_id INTEGER NOT NULL,
		rating DOUBLE NOT NULL,
		rated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, movie_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_ratings_movie ON ratings (movie_id)`,
	`CREATE INDEX IF NOT EXISTS idx_movie_genres_genre ON movie_genres (genre)`,
	`CREATE INDEX IF NOT EXISTS idx_movies_popularity ON movies (num_ratings, avg_rating)`,
}

// initialize applies the schema.
func (db *DB) initialize() error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}

	logging.Debug().
		Dur("elapsed", time.Since(start)).
		Msg("database schema initialized")
	return nil
}
