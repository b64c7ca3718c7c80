// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

/*
Package cache provides the Redis-backed ratings cache and movie
metadata lookup.

A user's rating list is cached for the configured TTL and invalidated
on every successful rating write. Lookups return an explicit hit/miss
flag; an empty rating list is a valid cached value, distinct from a
miss. All Redis calls run through a circuit breaker so a struggling
cache degrades to direct store reads instead of stalling requests.
*/
package cache
