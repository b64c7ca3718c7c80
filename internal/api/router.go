// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/reelgraph/internal/config"
	"github.com/tomtom215/reelgraph/internal/middleware"
)

// Health probes get a permissive per-IP limit so monitoring can poll
// frequently without opening an abuse vector.
const healthRateLimit = 1000

// Router assembles the Chi route tree for the service.
type Router struct {
	handler *Handler
	cfg     *config.ServerConfig
}

// NewRouter creates a router for the given handler and server config.
func NewRouter(handler *Handler, cfg *config.ServerConfig) *Router {
	return &Router{
		handler: handler,
		cfg:     cfg,
	}
}

// Setup builds the full middleware stack and route tree.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         86400,
	}))

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(healthRateLimit, time.Minute))
		r.Get("/", rt.handler.Health)
		r.Get("/live", rt.handler.HealthLive)
		r.Get("/ready", rt.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.rateLimit())
		r.Use(middleware.PrometheusMetrics)
		r.Use(middleware.Compression)

		r.Get("/recommendations/{userID}", rt.handler.GetRecommendations)
		r.Post("/ratings", rt.handler.SubmitRating)
		r.Post("/users", rt.handler.CreateUser)
		r.Get("/users/{userID}/ratings", rt.handler.GetUserRatings)
		r.Get("/movies/top", rt.handler.TopMovies)
		r.Get("/movies/{movieID}", rt.handler.GetMovie)
	})

	return r
}

// rateLimit returns the per-IP limiter for data endpoints, or a no-op
// when rate limiting is disabled in config.
func (rt *Router) rateLimit() func(http.Handler) http.Handler {
	if rt.cfg.RateLimitReqs <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.LimitByIP(rt.cfg.RateLimitReqs, rt.cfg.RateLimitWindow)
}
