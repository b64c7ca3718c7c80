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
	"time"

	"github.com/tomtom215/reelgraph/internal/metrics"
)

// User is one registered user.
type User struct {
	UserID    int       `json:"user_id"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// GetOrCreateUser looks the user up, creating the row on first sight.
// The created flag tells the caller which happened. A non-empty name
// on an existing user updates the stored name.
func (db *DB) GetOrCreateUser(ctx context.Context, userID int, name string) (user *User, created bool, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordDBQuery("get_or_create_user", "users", time.Since(start), err)
	}()

	var u User
	var stored sql.NullString
	scanErr := db.conn.QueryRowContext(ctx,
		`SELECT user_id, name, created_at FROM users WHERE user_id = ?`, userID).
		Scan(&u.UserID, &stored, &u.CreatedAt)

	switch {
	case scanErr == nil:
		u.Name = stored.String
		if name != "" && name != u.Name {
			if _, err = db.conn.ExecContext(ctx,
				`UPDATE users SET name = ? WHERE user_id = ?`, name, userID); err != nil {
				return nil, false, fmt.Errorf("update user %d name: %w", userID, err)
			}
			u.Name = name
		}
		return &u, false, nil

	case errors.Is(scanErr, sql.ErrNoRows):
		var nameArg any
		if name != "" {
			nameArg = name
		}
		if _, err = db.conn.ExecContext(ctx,
			`INSERT INTO users (user_id, name) VALUES (?, ?)`, userID, nameArg); err != nil {
			return nil, false, fmt.Errorf("create user %d: %w", userID, err)
		}
		return &User{UserID: userID, Name: name, CreatedAt: time.Now().UTC()}, true, nil

	default:
		err = fmt.Errorf("lookup user %d: %w", userID, scanErr)
		return nil, false, err
	}
}

// UserExists reports whether the user ID has a row.
func (db *DB) UserExists(ctx context.Context, userID int) (bool, error) {
	start := time.Now()
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE user_id = ?)`, userID).Scan(&exists)
	metrics.RecordDBQuery("user_exists", "users", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("user %d existence: %w", userID, err)
	}
	return exists, nil
}
