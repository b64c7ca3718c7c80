// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

/*
Package database provides the DuckDB-backed movie graph store.

The store holds users, movies, genres and the rating edges between
users and movies, and implements the query surface the recommendation
engine consumes: rating counts, co-rated rating vectors for similarity,
genre affinity aggregates, and global popularity rankings.

Write semantics: a rating is unique per (user, movie) pair and a
resubmission overwrites the prior value. Every successful rating write
triggers a full recompute of the movie's aggregate statistics; the
aggregates are recomputed rather than incrementally maintained so they
cannot drift. A failed recompute leaves a stale but valid aggregate
that self-corrects on the next recompute.
*/
package database
