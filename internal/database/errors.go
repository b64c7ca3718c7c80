// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package database

import (
	"database/sql"
	"errors"
	"io"

	"github.com/tomtom215/reelgraph/internal/logging"
)

// ErrMovieNotFound is returned when a movie ID has no row.
var ErrMovieNotFound = errors.New("movie not found")

// closeWithLog closes a resource and logs any error.
// Use this for cleanup operations where errors should be acknowledged
// but not fail the operation.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use this in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}

// rollbackQuietly rolls a transaction back, ignoring the ErrTxDone that
// deferred rollbacks see after a successful Commit.
func rollbackQuietly(tx *sql.Tx) {
	if tx != nil {
		_ = tx.Rollback()
	}
}
