// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelgraph/internal/cache"
	"github.com/tomtom215/reelgraph/internal/config"
	"github.com/tomtom215/reelgraph/internal/database"
	"github.com/tomtom215/reelgraph/internal/recommend"
)

var errStore = errors.New("store failure")

type upsertCall struct {
	userID  int
	movieID int
	rating  float64
}

type mockStore struct {
	userRatings    map[int][]recommend.Rating
	userRatingsErr error
	ratingsQueried bool

	users      map[int]*database.User
	usersErr   error
	movies     map[int]*database.MovieDetail
	popular    []recommend.MovieStats
	popularErr error

	popularMinCount int
	popularLimit    int

	upserts   []upsertCall
	upsertErr error

	pingErr error
}

func (m *mockStore) UserRatings(_ context.Context, userID int) ([]recommend.Rating, error) {
	m.ratingsQueried = true
	if m.userRatingsErr != nil {
		return nil, m.userRatingsErr
	}
	return m.userRatings[userID], nil
}

func (m *mockStore) UpsertRating(_ context.Context, userID, movieID int, rating float64) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts = append(m.upserts, upsertCall{userID, movieID, rating})
	return nil
}

func (m *mockStore) GetOrCreateUser(_ context.Context, userID int, name string) (*database.User, bool, error) {
	if m.usersErr != nil {
		return nil, false, m.usersErr
	}
	if u, ok := m.users[userID]; ok {
		u.Name = name
		return u, false, nil
	}
	u := &database.User{UserID: userID, Name: name}
	if m.users == nil {
		m.users = map[int]*database.User{}
	}
	m.users[userID] = u
	return u, true, nil
}

func (m *mockStore) UserExists(_ context.Context, userID int) (bool, error) {
	if m.usersErr != nil {
		return false, m.usersErr
	}
	_, ok := m.users[userID]
	return ok, nil
}

func (m *mockStore) MovieExists(_ context.Context, movieID int) (bool, error) {
	_, ok := m.movies[movieID]
	return ok, nil
}

func (m *mockStore) MovieByID(_ context.Context, movieID int) (*database.MovieDetail, error) {
	mv, ok := m.movies[movieID]
	if !ok {
		return nil, database.ErrMovieNotFound
	}
	return mv, nil
}

func (m *mockStore) PopularMovies(_ context.Context, minCount, limit int) ([]recommend.MovieStats, error) {
	m.popularMinCount = minCount
	m.popularLimit = limit
	if m.popularErr != nil {
		return nil, m.popularErr
	}
	return m.popular, nil
}

func (m *mockStore) Ping(_ context.Context) error {
	return m.pingErr
}

type mockCache struct {
	ratings map[int][]recommend.Rating
	getErr  error

	setCalls    map[int][]recommend.Rating
	setErr      error
	invalidated []int

	meta    map[int]*cache.MovieMeta
	pingErr error
}

func (m *mockCache) GetRatings(_ context.Context, userID int) ([]recommend.Rating, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	r, ok := m.ratings[userID]
	return r, ok, nil
}

func (m *mockCache) SetRatings(_ context.Context, userID int, ratings []recommend.Rating) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.setCalls == nil {
		m.setCalls = map[int][]recommend.Rating{}
	}
	m.setCalls[userID] = ratings
	return nil
}

func (m *mockCache) InvalidateRatings(_ context.Context, userID int) error {
	m.invalidated = append(m.invalidated, userID)
	return nil
}

func (m *mockCache) MovieMetadata(_ context.Context, movieID int) (*cache.MovieMeta, bool, error) {
	meta, ok := m.meta[movieID]
	return meta, ok, nil
}

func (m *mockCache) Ping(_ context.Context) error {
	return m.pingErr
}

type mockEngine struct {
	resp      *recommend.Response
	err       error
	gotUserID int
	gotLimit  int
}

func (m *mockEngine) Recommend(_ context.Context, userID, limit int) (*recommend.Response, error) {
	m.gotUserID = userID
	m.gotLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

// newTestServer wires the mocks through the real router so the chi URL
// parameters and middleware stack are exercised.
func newTestServer(t *testing.T, store *mockStore, mc *mockCache, engine *mockEngine) http.Handler {
	t.Helper()
	handler := NewHandler(store, mc, engine, recommend.DefaultConfig())
	router := NewRouter(handler, &config.ServerConfig{
		CORSOrigins: []string{"*"},
	})
	return router.Setup()
}

func doRequest(t *testing.T, h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return envelope
}

func dataField(t *testing.T, envelope map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := envelope["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing data field in %v", envelope)
	}
	return data
}

func TestGetRecommendationsEnrichesFromCache(t *testing.T) {
	engine := &mockEngine{resp: &recommend.Response{
		UserID:   7,
		Strategy: "hybrid",
		Candidates: []recommend.Candidate{
			{MovieID: 10, Title: "Heat", Score: 4.0, Source: recommend.SourceHybrid},
			{MovieID: 20, Title: "Ronin", Score: 2.0, Source: recommend.SourceCollaborative},
		},
		RatingCount: 12,
	}}
	mc := &mockCache{meta: map[int]*cache.MovieMeta{
		10: {Title: "Heat", Genres: "Crime|Thriller"},
	}}

	srv := newTestServer(t, &mockStore{}, mc, engine)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/recommendations/7?limit=2", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if engine.gotUserID != 7 || engine.gotLimit != 2 {
		t.Fatalf("engine called with user=%d limit=%d", engine.gotUserID, engine.gotLimit)
	}

	data := dataField(t, decodeEnvelope(t, rec))
	if data["strategy"] != "hybrid" {
		t.Errorf("strategy = %v", data["strategy"])
	}
	items, ok := data["items"].([]interface{})
	if !ok || len(items) != 2 {
		t.Fatalf("expected 2 items, got %v", data["items"])
	}
	first := items[0].(map[string]interface{})
	genres, ok := first["genres"].([]interface{})
	if !ok || len(genres) != 2 {
		t.Errorf("expected cached genres on first item, got %v", first["genres"])
	}
	second := items[1].(map[string]interface{})
	if _, hasGenres := second["genres"]; hasGenres {
		t.Errorf("expected no genres for uncached movie, got %v", second["genres"])
	}
}

func TestGetRecommendationsInvalidUserID(t *testing.T) {
	srv := newTestServer(t, &mockStore{}, &mockCache{}, &mockEngine{})
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/recommendations/abc", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope["success"] != false {
		t.Errorf("success = %v", envelope["success"])
	}
}

func TestGetRecommendationsEngineFailure(t *testing.T) {
	engine := &mockEngine{err: errStore}
	srv := newTestServer(t, &mockStore{}, &mockCache{}, engine)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/recommendations/1", nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSubmitRatingUpsertsAndInvalidates(t *testing.T) {
	store := &mockStore{
		users:  map[int]*database.User{3: {UserID: 3}},
		movies: map[int]*database.MovieDetail{50: {}},
	}
	mc := &mockCache{}
	srv := newTestServer(t, store, mc, &mockEngine{})

	body, _ := json.Marshal(SubmitRatingRequest{UserID: 3, MovieID: 50, Rating: 4.5})
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/ratings", body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if len(store.upserts) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(store.upserts))
	}
	if got := store.upserts[0]; got != (upsertCall{3, 50, 4.5}) {
		t.Errorf("upsert = %+v", got)
	}
	if len(mc.invalidated) != 1 || mc.invalidated[0] != 3 {
		t.Errorf("expected cache invalidation for user 3, got %v", mc.invalidated)
	}
}

func TestSubmitRatingValidation(t *testing.T) {
	cases := []struct {
		name string
		req  SubmitRatingRequest
	}{
		{"rating above scale", SubmitRatingRequest{UserID: 1, MovieID: 1, Rating: 5.5}},
		{"rating below scale", SubmitRatingRequest{UserID: 1, MovieID: 1, Rating: 0.25}},
		{"rating off half-point grid", SubmitRatingRequest{UserID: 1, MovieID: 1, Rating: 3.7}},
		{"missing user", SubmitRatingRequest{MovieID: 1, Rating: 3.0}},
		{"missing movie", SubmitRatingRequest{UserID: 1, Rating: 3.0}},
	}

	store := &mockStore{
		users:  map[int]*database.User{1: {UserID: 1}},
		movies: map[int]*database.MovieDetail{1: {}},
	}
	srv := newTestServer(t, store, &mockCache{}, &mockEngine{})

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.req)
			rec := doRequest(t, srv, http.MethodPost, "/api/v1/ratings", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
			}
			envelope := decodeEnvelope(t, rec)
			apiErr := envelope["error"].(map[string]interface{})
			if apiErr["code"] != ErrCodeValidationFailed {
				t.Errorf("code = %v", apiErr["code"])
			}
		})
	}

	if len(store.upserts) != 0 {
		t.Errorf("invalid requests must not reach the store, got %v", store.upserts)
	}
}

func TestSubmitRatingUnknownUserAndMovie(t *testing.T) {
	store := &mockStore{
		users:  map[int]*database.User{1: {UserID: 1}},
		movies: map[int]*database.MovieDetail{1: {}},
	}
	srv := newTestServer(t, store, &mockCache{}, &mockEngine{})

	body, _ := json.Marshal(SubmitRatingRequest{UserID: 99, MovieID: 1, Rating: 3.0})
	if rec := doRequest(t, srv, http.MethodPost, "/api/v1/ratings", body); rec.Code != http.StatusNotFound {
		t.Errorf("unknown user: status = %d", rec.Code)
	}

	body, _ = json.Marshal(SubmitRatingRequest{UserID: 1, MovieID: 99, Rating: 3.0})
	if rec := doRequest(t, srv, http.MethodPost, "/api/v1/ratings", body); rec.Code != http.StatusNotFound {
		t.Errorf("unknown movie: status = %d", rec.Code)
	}
}

func TestGetUserRatingsCacheHit(t *testing.T) {
	cached := []recommend.Rating{{MovieID: 5, Title: "Alien", Rating: 5.0}}
	store := &mockStore{}
	mc := &mockCache{ratings: map[int][]recommend.Rating{4: cached}}
	srv := newTestServer(t, store, mc, &mockEngine{})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/users/4/ratings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if store.ratingsQueried {
		t.Error("cache hit must not query the store")
	}

	envelope := decodeEnvelope(t, rec)
	meta := envelope["meta"].(map[string]interface{})
	if meta["cache_hit"] != true {
		t.Errorf("cache_hit = %v", meta["cache_hit"])
	}
	data := dataField(t, envelope)
	if data["count"].(float64) != 1 {
		t.Errorf("count = %v", data["count"])
	}
}

func TestGetUserRatingsCacheMissRepopulates(t *testing.T) {
	fromStore := []recommend.Rating{
		{MovieID: 5, Title: "Alien", Rating: 5.0},
		{MovieID: 6, Title: "Aliens", Rating: 4.5},
	}
	store := &mockStore{userRatings: map[int][]recommend.Rating{4: fromStore}}
	mc := &mockCache{}
	srv := newTestServer(t, store, mc, &mockEngine{})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/users/4/ratings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	envelope := decodeEnvelope(t, rec)
	meta := envelope["meta"].(map[string]interface{})
	if meta["cache_hit"] != false {
		t.Errorf("cache_hit = %v", meta["cache_hit"])
	}
	if got := len(mc.setCalls[4]); got != 2 {
		t.Errorf("expected repopulation with 2 ratings, got %d", got)
	}
}

func TestGetUserRatingsCacheErrorFallsBackToStore(t *testing.T) {
	store := &mockStore{userRatings: map[int][]recommend.Rating{
		4: {{MovieID: 5, Rating: 3.0}},
	}}
	mc := &mockCache{getErr: errStore, setErr: errStore}
	srv := newTestServer(t, store, mc, &mockEngine{})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/users/4/ratings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cache failure must not fail the read, status = %d", rec.Code)
	}
	data := dataField(t, decodeEnvelope(t, rec))
	if data["count"].(float64) != 1 {
		t.Errorf("count = %v", data["count"])
	}
}

func TestGetUserRatingsEmptyHistoryIsValid(t *testing.T) {
	srv := newTestServer(t, &mockStore{}, &mockCache{}, &mockEngine{})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/users/4/ratings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := dataField(t, decodeEnvelope(t, rec))
	ratings, ok := data["ratings"].([]interface{})
	if !ok {
		t.Fatalf("ratings should be an empty array, got %v", data["ratings"])
	}
	if len(ratings) != 0 {
		t.Errorf("expected empty ratings, got %v", ratings)
	}
}

func TestCreateUserCreatedThenUpdated(t *testing.T) {
	store := &mockStore{}
	srv := newTestServer(t, store, &mockCache{}, &mockEngine{})

	body, _ := json.Marshal(CreateUserRequest{UserID: 9, Name: "casey"})
	if rec := doRequest(t, srv, http.MethodPost, "/api/v1/users", body); rec.Code != http.StatusCreated {
		t.Fatalf("first create: status = %d", rec.Code)
	}
	if rec := doRequest(t, srv, http.MethodPost, "/api/v1/users", body); rec.Code != http.StatusOK {
		t.Fatalf("second create: status = %d", rec.Code)
	}
}

func TestTopMoviesClampsLimitAndUsesThreshold(t *testing.T) {
	store := &mockStore{popular: []recommend.MovieStats{
		{MovieID: 1, Title: "The Godfather", AvgRating: 4.8, NumRating: 900},
	}}
	srv := newTestServer(t, store, &mockCache{}, &mockEngine{})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/movies/top?limit=500", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	cfg := recommend.DefaultConfig()
	if store.popularLimit != cfg.MaxLimit {
		t.Errorf("limit = %d, want clamp to %d", store.popularLimit, cfg.MaxLimit)
	}
	if store.popularMinCount != cfg.PopularMinRatingCount {
		t.Errorf("minCount = %d, want %d", store.popularMinCount, cfg.PopularMinRatingCount)
	}
}

func TestGetMovieNotFound(t *testing.T) {
	srv := newTestServer(t, &mockStore{}, &mockCache{}, &mockEngine{})
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/movies/123", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealthStates(t *testing.T) {
	cases := []struct {
		name       string
		dbErr      error
		cacheErr   error
		wantCode   int
		wantStatus string
	}{
		{"all healthy", nil, nil, http.StatusOK, "healthy"},
		{"cache down degrades", nil, errStore, http.StatusOK, "degraded"},
		{"store down is unhealthy", errStore, nil, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &mockStore{pingErr: tc.dbErr}
			mc := &mockCache{pingErr: tc.cacheErr}
			srv := newTestServer(t, store, mc, &mockEngine{})

			rec := doRequest(t, srv, http.MethodGet, "/api/v1/health", nil)
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
			data := dataField(t, decodeEnvelope(t, rec))
			if data["status"] != tc.wantStatus {
				t.Errorf("status field = %v, want %q", data["status"], tc.wantStatus)
			}
		})
	}
}

func TestHealthReadyRequiresStoreOnly(t *testing.T) {
	srv := newTestServer(t, &mockStore{}, &mockCache{pingErr: errStore}, &mockEngine{})
	if rec := doRequest(t, srv, http.MethodGet, "/api/v1/health/ready", nil); rec.Code != http.StatusOK {
		t.Errorf("ready with cache down: status = %d", rec.Code)
	}

	srv = newTestServer(t, &mockStore{pingErr: errStore}, &mockCache{}, &mockEngine{})
	if rec := doRequest(t, srv, http.MethodGet, "/api/v1/health/ready", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready with store down: status = %d", rec.Code)
	}
}

func TestResponsesCarryRequestID(t *testing.T) {
	srv := newTestServer(t, &mockStore{}, &mockCache{}, &mockEngine{resp: &recommend.Response{Strategy: "popularity"}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/1", nil)
	req.Header.Set("X-Request-ID", "test-req-42")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	meta := envelope["meta"].(map[string]interface{})
	if meta["request_id"] != "test-req-42" {
		t.Errorf("request_id = %v", meta["request_id"])
	}
}
