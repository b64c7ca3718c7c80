// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

// Package api provides the HTTP surface of the recommendation service.
//
// Routing uses Chi with middleware from the Chi ecosystem (go-chi/cors,
// go-chi/httprate) plus the in-house request ID, Prometheus, and gzip
// middleware. All endpoints return the standardized APIResponse envelope.
//
// Endpoints (v1):
//
//	GET  /api/v1/recommendations/{userID}   personalized recommendations
//	POST /api/v1/ratings                    submit or update a rating
//	GET  /api/v1/users/{userID}/ratings     rating history (Redis read-through)
//	POST /api/v1/users                      create or update a user
//	GET  /api/v1/movies/top                 globally popular movies
//	GET  /api/v1/movies/{movieID}           movie detail
//	GET  /api/v1/health{,/live,/ready}      dependency and probe status
//	GET  /metrics                           Prometheus exposition
package api
