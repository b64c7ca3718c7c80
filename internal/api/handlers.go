// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/reelgraph/internal/cache"
	"github.com/tomtom215/reelgraph/internal/database"
	"github.com/tomtom215/reelgraph/internal/logging"
	"github.com/tomtom215/reelgraph/internal/metrics"
	"github.com/tomtom215/reelgraph/internal/recommend"
)

// Store is the persistence surface the handlers depend on.
// *database.DB satisfies it.
type Store interface {
	UserRatings(ctx context.Context, userID int) ([]recommend.Rating, error)
	UpsertRating(ctx context.Context, userID, movieID int, rating float64) error
	GetOrCreateUser(ctx context.Context, userID int, name string) (*database.User, bool, error)
	UserExists(ctx context.Context, userID int) (bool, error)
	MovieExists(ctx context.Context, movieID int) (bool, error)
	MovieByID(ctx context.Context, movieID int) (*database.MovieDetail, error)
	PopularMovies(ctx context.Context, minCount, limit int) ([]recommend.MovieStats, error)
	Ping(ctx context.Context) error
}

// RatingsCache is the Redis surface the handlers depend on.
// *cache.Cache satisfies it.
type RatingsCache interface {
	GetRatings(ctx context.Context, userID int) ([]recommend.Rating, bool, error)
	SetRatings(ctx context.Context, userID int, ratings []recommend.Rating) error
	InvalidateRatings(ctx context.Context, userID int) error
	MovieMetadata(ctx context.Context, movieID int) (*cache.MovieMeta, bool, error)
	Ping(ctx context.Context) error
}

// Recommender generates ranked recommendations for a user.
// *recommend.Engine satisfies it.
type Recommender interface {
	Recommend(ctx context.Context, userID, limit int) (*recommend.Response, error)
}

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	store        Store
	cache        RatingsCache
	engine       Recommender
	recommendCfg *recommend.Config
}

// NewHandler creates a handler with the given dependencies.
func NewHandler(store Store, ratingsCache RatingsCache, engine Recommender, recommendCfg *recommend.Config) *Handler {
	if recommendCfg == nil {
		recommendCfg = recommend.DefaultConfig()
	}
	return &Handler{
		store:        store,
		cache:        ratingsCache,
		engine:       engine,
		recommendCfg: recommendCfg,
	}
}

// RecommendationItem is a scored candidate enriched with cached display metadata.
type RecommendationItem struct {
	recommend.Candidate
	Genres []string `json:"genres,omitempty"`
}

// recommendationsPayload is the data body for GET /recommendations/{userID}.
type recommendationsPayload struct {
	UserID      int                  `json:"user_id"`
	Strategy    string               `json:"strategy"`
	RatingCount int                  `json:"rating_count"`
	Items       []RecommendationItem `json:"items"`
	Count       int                  `json:"count"`
	LatencyMS   int64                `json:"latency_ms"`
}

// GetRecommendations handles GET /api/v1/recommendations/{userID}.
// Unknown users fall through to the popularity strategy; thin data is
// never an error, only an empty or shorter list.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := pathInt(rw, r, "userID")
	if !ok {
		return
	}
	limit := getIntParam(r, "limit", 0)

	ctx, cancel := context.WithTimeout(r.Context(), h.recommendCfg.QueryTimeout)
	defer cancel()

	resp, err := h.engine.Recommend(ctx, userID, limit)
	if err != nil {
		logging.Error().Err(err).Int("user_id", userID).Msg("Recommendation request failed")
		rw.Error(http.StatusInternalServerError, ErrCodeInternalError, "Failed to generate recommendations")
		return
	}

	items := h.enrichCandidates(ctx, resp.Candidates)
	rw.Success(recommendationsPayload{
		UserID:      resp.UserID,
		Strategy:    resp.Strategy,
		RatingCount: resp.RatingCount,
		Items:       items,
		Count:       len(items),
		LatencyMS:   resp.LatencyMS,
	})
}

// enrichCandidates attaches cached genre metadata to each candidate.
// Lookups are best effort; a cold or unavailable cache only costs genres.
func (h *Handler) enrichCandidates(ctx context.Context, candidates []recommend.Candidate) []RecommendationItem {
	items := make([]RecommendationItem, len(candidates))
	for i, c := range candidates {
		items[i] = RecommendationItem{Candidate: c}
		meta, found, err := h.cache.MovieMetadata(ctx, c.MovieID)
		if err != nil || !found {
			continue
		}
		items[i].Genres = splitGenres(meta.Genres)
	}
	return items
}

// splitGenres expands the pipe-joined genre field stored in the movie
// metadata hash.
func splitGenres(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, "|")
}

// SubmitRating handles POST /api/v1/ratings.
// The write is an upsert per (user, movie); a successful write triggers a
// full stats recompute for the movie and invalidates the user's cached
// rating history.
func (h *Handler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req SubmitRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Invalid JSON body")
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.recommendCfg.QueryTimeout)
	defer cancel()

	exists, err := h.store.UserExists(ctx, req.UserID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if !exists {
		rw.NotFound("User not found")
		return
	}

	exists, err = h.store.MovieExists(ctx, req.MovieID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if !exists {
		rw.NotFound("Movie not found")
		return
	}

	if err := h.store.UpsertRating(ctx, req.UserID, req.MovieID, req.Rating); err != nil {
		rw.DatabaseError(err)
		return
	}
	metrics.RatingsSubmitted.Inc()

	// Stale history must not outlive a successful write.
	if err := h.cache.InvalidateRatings(ctx, req.UserID); err != nil {
		logging.Warn().Err(err).Int("user_id", req.UserID).Msg("Failed to invalidate cached ratings")
	}

	rw.Created(map[string]interface{}{
		"user_id":  req.UserID,
		"movie_id": req.MovieID,
		"rating":   req.Rating,
	})
}

// ratingsPayload is the data body for GET /users/{userID}/ratings.
type ratingsPayload struct {
	UserID  int                `json:"user_id"`
	Ratings []recommend.Rating `json:"ratings"`
	Count   int                `json:"count"`
}

// GetUserRatings handles GET /api/v1/users/{userID}/ratings with a Redis
// read-through: cache hit serves directly, miss loads from the store and
// repopulates best effort. An empty history is a valid cacheable value.
func (h *Handler) GetUserRatings(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := pathInt(rw, r, "userID")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.recommendCfg.QueryTimeout)
	defer cancel()

	cacheHit := false
	ratings, found, err := h.cache.GetRatings(ctx, userID)
	if err != nil {
		logging.Warn().Err(err).Int("user_id", userID).Msg("Ratings cache read failed, falling back to store")
	}

	if found {
		cacheHit = true
	} else {
		ratings, err = h.store.UserRatings(ctx, userID)
		if err != nil {
			rw.DatabaseError(err)
			return
		}
		if err := h.cache.SetRatings(ctx, userID, ratings); err != nil {
			logging.Warn().Err(err).Int("user_id", userID).Msg("Failed to repopulate ratings cache")
		}
	}

	if ratings == nil {
		ratings = []recommend.Rating{}
	}

	rw.SuccessWithMeta(ratingsPayload{
		UserID:  userID,
		Ratings: ratings,
		Count:   len(ratings),
	}, &APIMeta{CacheHit: &cacheHit})
}

// CreateUser handles POST /api/v1/users. Creating an existing user is not
// an error; it updates the name and returns 200 instead of 201.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Invalid JSON body")
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.recommendCfg.QueryTimeout)
	defer cancel()

	user, created, err := h.store.GetOrCreateUser(ctx, req.UserID, req.Name)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	if created {
		rw.Created(user)
		return
	}
	rw.Success(user)
}

// topMoviesPayload is the data body for GET /movies/top.
type topMoviesPayload struct {
	Movies []RecommendationItem `json:"movies"`
	Count  int                  `json:"count"`
}

// TopMovies handles GET /api/v1/movies/top, the home-page list of globally
// popular movies. Uses the same minimum rating count as the popularity
// strategy so single-vote obscurities never surface.
func (h *Handler) TopMovies(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit := getIntParam(r, "limit", h.recommendCfg.DefaultLimit)
	if limit <= 0 {
		limit = h.recommendCfg.DefaultLimit
	}
	if limit > h.recommendCfg.MaxLimit {
		limit = h.recommendCfg.MaxLimit
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.recommendCfg.QueryTimeout)
	defer cancel()

	movies, err := h.store.PopularMovies(ctx, h.recommendCfg.PopularMinRatingCount, limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	items := make([]RecommendationItem, len(movies))
	for i, m := range movies {
		items[i] = RecommendationItem{Candidate: recommend.Candidate{
			MovieID:   m.MovieID,
			Title:     m.Title,
			FullTitle: m.FullTitle,
			Year:      m.Year,
			AvgRating: m.AvgRating,
			Score:     m.AvgRating,
			Source:    recommend.SourcePopular,
		}}
		if meta, found, err := h.cache.MovieMetadata(ctx, m.MovieID); err == nil && found {
			items[i].Genres = splitGenres(meta.Genres)
		}
	}

	rw.Success(topMoviesPayload{Movies: items, Count: len(items)})
}

// GetMovie handles GET /api/v1/movies/{movieID}.
func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	movieID, ok := pathInt(rw, r, "movieID")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.recommendCfg.QueryTimeout)
	defer cancel()

	movie, err := h.store.MovieByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, database.ErrMovieNotFound) {
			rw.NotFound("Movie not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(movie)
}

// Health handles GET /api/v1/health. Reports per-dependency status and
// degrades rather than failing when only the cache is down.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "ok"
	cacheStatus := "ok"
	status := "healthy"

	if err := h.store.Ping(ctx); err != nil {
		dbStatus = "unavailable"
		status = "unhealthy"
	}
	if err := h.cache.Ping(ctx); err != nil {
		cacheStatus = "unavailable"
		if status == "healthy" {
			status = "degraded"
		}
	}

	body := map[string]interface{}{
		"status":   status,
		"database": dbStatus,
		"cache":    cacheStatus,
	}

	if status == "unhealthy" {
		rw.writeJSON(http.StatusServiceUnavailable, APIResponse{Success: false, Data: body})
		return
	}
	rw.Success(body)
}

// HealthLive handles GET /api/v1/health/live. Process-up probe only.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// HealthReady handles GET /api/v1/health/ready. Ready means the store
// answers; the cache is optional for serving traffic.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		rw.ServiceUnavailable("Store not ready")
		return
	}
	rw.Success(map[string]string{"status": "ready"})
}

// pathInt parses a positive integer chi URL parameter, writing a 400 on
// failure.
func pathInt(rw *ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		rw.BadRequest("Invalid " + name)
		return 0, false
	}
	return id, true
}
