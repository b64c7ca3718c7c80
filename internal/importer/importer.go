// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/tomtom215/reelgraph/internal/cache"
	"github.com/tomtom215/reelgraph/internal/config"
	"github.com/tomtom215/reelgraph/internal/database"
	"github.com/tomtom215/reelgraph/internal/logging"
	"github.com/tomtom215/reelgraph/internal/metrics"
)

const defaultBatchSize = 1000

// Store is the persistence surface the importer writes to.
// *database.DB satisfies it.
type Store interface {
	InsertMovies(ctx context.Context, movies []database.MovieRow) error
	InsertUsers(ctx context.Context, userIDs []int) error
	InsertRatings(ctx context.Context, ratings []database.RatingRow) error
	RecomputeAllMovieStats(ctx context.Context) error
	AllMovieStats(ctx context.Context) ([]database.MovieDetail, error)
}

// MetadataWriter populates the movie metadata cache after an import.
// *cache.Cache satisfies it.
type MetadataWriter interface {
	SetMovieMetadata(ctx context.Context, movieID int, meta *cache.MovieMeta) error
}

// Stats summarizes one import run.
type Stats struct {
	StartTime time.Time
	EndTime   time.Time

	MoviesImported  int
	MoviesSkipped   int
	UsersCreated    int
	RatingsImported int
	RatingsSkipped  int
	MetadataCached  int
}

// Duration returns the wall time of the run.
func (s *Stats) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Importer bulk-loads MovieLens CSV exports.
type Importer struct {
	cfg      *config.ImportConfig
	store    Store
	metadata MetadataWriter
}

// New creates an importer. metadata may be nil to skip cache population.
func New(cfg *config.ImportConfig, store Store, metadata MetadataWriter) (*Importer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("import config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Importer{
		cfg:      cfg,
		store:    store,
		metadata: metadata,
	}, nil
}

// Run executes the full import pipeline: movies, ratings, one aggregate
// recompute, then metadata cache population.
func (i *Importer) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	defer func() { stats.EndTime = time.Now() }()

	if err := i.importMovies(ctx, stats); err != nil {
		return stats, fmt.Errorf("movie import failed: %w", err)
	}
	if err := i.importRatings(ctx, stats); err != nil {
		return stats, fmt.Errorf("rating import failed: %w", err)
	}
	if err := i.recomputeStats(ctx); err != nil {
		return stats, fmt.Errorf("stats recompute failed: %w", err)
	}
	if err := i.populateMetadata(ctx, stats); err != nil {
		// The store is complete at this point; a cold cache only costs
		// lookups until read-through fills it back in.
		logging.Warn().Err(err).Msg("Metadata cache population failed")
	}

	logging.Info().
		Int("movies", stats.MoviesImported).
		Int("users", stats.UsersCreated).
		Int("ratings", stats.RatingsImported).
		Int("skipped", stats.MoviesSkipped+stats.RatingsSkipped).
		Dur("duration", time.Since(stats.StartTime)).
		Msg("Import completed")

	return stats, nil
}

func (i *Importer) batchSize() int {
	if i.cfg.BatchSize > 0 {
		return i.cfg.BatchSize
	}
	return defaultBatchSize
}

func (i *Importer) importMovies(ctx context.Context, stats *Stats) error {
	start := time.Now()
	defer func() { metrics.ImportDuration.WithLabelValues("movies").Observe(time.Since(start).Seconds()) }()

	f, err := os.Open(i.cfg.MoviesPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", i.cfg.MoviesPath, err)
	}
	defer closeWithLog(f, i.cfg.MoviesPath)

	reader := newCSVReader(f)
	batch := make([]database.MovieRow, 0, i.batchSize())

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := i.store.InsertMovies(ctx, batch); err != nil {
			return err
		}
		stats.MoviesImported += len(batch)
		metrics.RecordImportBatch("movies", len(batch), 0)
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.MoviesSkipped++
			metrics.RecordImportBatch("movies", 0, 1)
			continue
		}
		if isHeader(record, "movieId") {
			continue
		}

		movie, perr := parseMovieRecord(record)
		if perr != nil {
			logging.Debug().Err(perr).Msg("Skipping malformed movie record")
			stats.MoviesSkipped++
			metrics.RecordImportBatch("movies", 0, 1)
			continue
		}

		batch = append(batch, *movie)
		if len(batch) >= i.batchSize() {
			if err := flush(); err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	logging.Info().Int("imported", stats.MoviesImported).Int("skipped", stats.MoviesSkipped).Msg("Movies imported")
	return nil
}

func (i *Importer) importRatings(ctx context.Context, stats *Stats) error {
	start := time.Now()
	defer func() { metrics.ImportDuration.WithLabelValues("ratings").Observe(time.Since(start).Seconds()) }()

	f, err := os.Open(i.cfg.RatingsPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", i.cfg.RatingsPath, err)
	}
	defer closeWithLog(f, i.cfg.RatingsPath)

	reader := newCSVReader(f)
	batch := make([]database.RatingRow, 0, i.batchSize())
	seenUsers := make(map[int]struct{})
	var newUsers []int

	flush := func() error {
		if len(newUsers) > 0 {
			if err := i.store.InsertUsers(ctx, newUsers); err != nil {
				return err
			}
			stats.UsersCreated += len(newUsers)
			newUsers = newUsers[:0]
		}
		if len(batch) == 0 {
			return nil
		}
		if err := i.store.InsertRatings(ctx, batch); err != nil {
			return err
		}
		stats.RatingsImported += len(batch)
		metrics.RecordImportBatch("ratings", len(batch), 0)
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.RatingsSkipped++
			metrics.RecordImportBatch("ratings", 0, 1)
			continue
		}
		if isHeader(record, "userId") {
			continue
		}

		rating, perr := parseRatingRecord(record)
		if perr != nil {
			logging.Debug().Err(perr).Msg("Skipping malformed rating record")
			stats.RatingsSkipped++
			metrics.RecordImportBatch("ratings", 0, 1)
			continue
		}

		if _, ok := seenUsers[rating.UserID]; !ok {
			seenUsers[rating.UserID] = struct{}{}
			newUsers = append(newUsers, rating.UserID)
		}

		batch = append(batch, *rating)
		if len(batch) >= i.batchSize() {
			if err := flush(); err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	logging.Info().
		Int("imported", stats.RatingsImported).
		Int("users", stats.UsersCreated).
		Int("skipped", stats.RatingsSkipped).
		Msg("Ratings imported")
	return nil
}

func (i *Importer) recomputeStats(ctx context.Context) error {
	start := time.Now()
	defer func() { metrics.ImportDuration.WithLabelValues("stats").Observe(time.Since(start).Seconds()) }()

	return i.store.RecomputeAllMovieStats(ctx)
}

func (i *Importer) populateMetadata(ctx context.Context, stats *Stats) error {
	if i.metadata == nil {
		return nil
	}
	start := time.Now()
	defer func() { metrics.ImportDuration.WithLabelValues("metadata").Observe(time.Since(start).Seconds()) }()

	movies, err := i.store.AllMovieStats(ctx)
	if err != nil {
		return err
	}

	for _, m := range movies {
		meta := &cache.MovieMeta{
			Title:     m.Title,
			Genres:    strings.Join(m.Genres, "|"),
			AvgRating: m.AvgRating,
		}
		if err := i.metadata.SetMovieMetadata(ctx, m.MovieID, meta); err != nil {
			// Breaker-guarded writes can fail in bulk; one warning per
			// run is enough signal.
			return fmt.Errorf("failed to cache metadata for movie %d: %w", m.MovieID, err)
		}
		stats.MetadataCached++
	}

	logging.Info().Int("cached", stats.MetadataCached).Msg("Movie metadata cached")
	return nil
}

// newCSVReader builds a reader tolerant of the quirks in MovieLens
// exports: quoted titles with commas and the occasional ragged row.
func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// isHeader reports whether the record is the CSV header row.
func isHeader(record []string, firstField string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), firstField)
}

// closeWithLog closes a file and logs any error.
func closeWithLog(c io.Closer, name string) {
	if err := c.Close(); err != nil {
		logging.Warn().Err(err).Str("file", name).Msg("Failed to close file")
	}
}
