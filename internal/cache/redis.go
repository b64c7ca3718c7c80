// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reelgraph/internal/config"
	"github.com/tomtom215/reelgraph/internal/logging"
	"github.com/tomtom215/reelgraph/internal/metrics"
	"github.com/tomtom215/reelgraph/internal/recommend"
)

const (
	cacheTypeRatings   = "ratings"
	cacheTypeMovieMeta = "movie_meta"
)

// MovieMeta is the display metadata kept per movie for result
// enrichment. Not used in scoring.
type MovieMeta struct {
	Title     string  `json:"title"`
	Genres    string  `json:"genres"`
	AvgRating float64 `json:"avg_rating"`
}

// Cache wraps the Redis client with a circuit breaker.
//
// The breaker uses real time for its interval and timeout; tests
// should exercise the key and codec helpers directly rather than mock
// breaker timing.
type Cache struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker[any]
	ttl    time.Duration
}

// New connects to Redis and verifies the connection.
func New(cfg *config.RedisConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return &Cache{
		client: client,
		cb:     newBreaker("redis-cache"),
		ttl:    cfg.RatingsTTL,
	}, nil
}

// newBreaker builds the circuit breaker guarding Redis calls: opens
// after a 60% failure rate over at least 10 requests, waits 30 seconds
// before probing again.
func newBreaker(name string) *gobreaker.CircuitBreaker[any] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed

	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
}

// execute runs a Redis call through the circuit breaker and records
// the outcome.
func (c *Cache) execute(fn func() (any, error)) (any, error) {
	result, err := c.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(c.cb.Name(), "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(c.cb.Name(), "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(c.cb.Name(), "failure").Inc()
	}
	return result, err
}

// GetRatings returns the cached rating list for the user. The second
// return value distinguishes a miss from a cached empty list.
func (c *Cache) GetRatings(ctx context.Context, userID int) ([]recommend.Rating, bool, error) {
	result, err := c.execute(func() (any, error) {
		data, err := c.client.Get(ctx, ratingsKey(userID)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil // miss, not a failure
		}
		if err != nil {
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		metrics.RecordCacheError(cacheTypeRatings, "get")
		return nil, false, fmt.Errorf("cache get ratings for user %d: %w", userID, err)
	}
	if result == nil {
		metrics.RecordCacheMiss(cacheTypeRatings)
		return nil, false, nil
	}

	var ratings []recommend.Rating
	if err := json.Unmarshal(result.([]byte), &ratings); err != nil {
		// A corrupt entry behaves like a miss; the caller repopulates.
		logging.Warn().Int("user_id", userID).Err(err).Msg("corrupt cached ratings, treating as miss")
		metrics.RecordCacheMiss(cacheTypeRatings)
		return nil, false, nil
	}
	metrics.RecordCacheHit(cacheTypeRatings)
	return ratings, true, nil
}

// SetRatings caches the user's rating list for the configured TTL.
func (c *Cache) SetRatings(ctx context.Context, userID int, ratings []recommend.Rating) error {
	data, err := json.Marshal(ratings)
	if err != nil {
		return fmt.Errorf("encode ratings for user %d: %w", userID, err)
	}
	if _, err := c.execute(func() (any, error) {
		return nil, c.client.Set(ctx, ratingsKey(userID), data, c.ttl).Err()
	}); err != nil {
		metrics.RecordCacheError(cacheTypeRatings, "set")
		return fmt.Errorf("cache set ratings for user %d: %w", userID, err)
	}
	return nil
}

// InvalidateRatings drops the user's cached rating list. Called after
// every successful rating write.
func (c *Cache) InvalidateRatings(ctx context.Context, userID int) error {
	if _, err := c.execute(func() (any, error) {
		return nil, c.client.Del(ctx, ratingsKey(userID)).Err()
	}); err != nil {
		metrics.RecordCacheError(cacheTypeRatings, "del")
		return fmt.Errorf("cache invalidate ratings for user %d: %w", userID, err)
	}
	metrics.CacheInvalidations.WithLabelValues(cacheTypeRatings).Inc()
	return nil
}

// MovieMetadata returns the display metadata hash for a movie, with an
// explicit hit/miss flag.
func (c *Cache) MovieMetadata(ctx context.Context, movieID int) (*MovieMeta, bool, error) {
	result, err := c.execute(func() (any, error) {
		fields, err := c.client.HGetAll(ctx, movieKey(movieID)).Result()
		if err != nil {
			return nil, err
		}
		return fields, nil
	})
	if err != nil {
		metrics.RecordCacheError(cacheTypeMovieMeta, "hgetall")
		return nil, false, fmt.Errorf("cache get metadata for movie %d: %w", movieID, err)
	}

	fields := result.(map[string]string)
	if len(fields) == 0 {
		metrics.RecordCacheMiss(cacheTypeMovieMeta)
		return nil, false, nil
	}

	meta := &MovieMeta{
		Title:  fields["title"],
		Genres: fields["genres"],
	}
	if avg, err := strconv.ParseFloat(fields["avg_rating"], 64); err == nil {
		meta.AvgRating = avg
	}
	metrics.RecordCacheHit(cacheTypeMovieMeta)
	return meta, true, nil
}

// SetMovieMetadata writes the display metadata hash for a movie. Movie
// metadata has no TTL; the importer and rating writes keep it fresh.
func (c *Cache) SetMovieMetadata(ctx context.Context, movieID int, meta *MovieMeta) error {
	if _, err := c.execute(func() (any, error) {
		return nil, c.client.HSet(ctx, movieKey(movieID),
			"title", meta.Title,
			"genres", meta.Genres,
			"avg_rating", strconv.FormatFloat(meta.AvgRating, 'f', -1, 64),
		).Err()
	}); err != nil {
		metrics.RecordCacheError(cacheTypeMovieMeta, "hset")
		return fmt.Errorf("cache set metadata for movie %d: %w", movieID, err)
	}
	return nil
}

// Ping verifies the Redis connection is alive.
func (c *Cache) Ping(ctx context.Context) error {
	_, err := c.execute(func() (any, error) {
		return nil, c.client.Ping(ctx).Err()
	})
	return err
}

// Close releases the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

func ratingsKey(userID int) string {
	return fmt.Sprintf("user:%d:ratings", userID)
}

func movieKey(movieID int) string {
	return fmt.Sprintf("movie:%d", movieID)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
