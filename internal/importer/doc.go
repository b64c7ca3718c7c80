// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

// Package importer bulk-loads the MovieLens CSV dataset into the movie
// graph store and the metadata cache.
//
// An import runs four phases in order: movies.csv (titles, years, genre
// index), ratings.csv (users plus ratings, batched), a single aggregate
// recompute across all movies, and finally metadata cache population.
// Malformed rows are counted and skipped, never fatal.
package importer
