// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for request ID tracking,
Prometheus metrics instrumentation, and gzip compression. CORS and rate
limiting come from the chi ecosystem and are applied at the router level.

The typical stack for an endpoint is:

	cors -> rate limit -> RequestID -> PrometheusMetrics -> Compression -> handler
*/
package middleware
