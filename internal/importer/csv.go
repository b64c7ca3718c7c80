// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package importer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/reelgraph/internal/database"
)

// genreSentinel marks movies without genre information in MovieLens
// exports. It never enters the genre index.
const genreSentinel = "no genres listed"

// yearPattern matches the "(YYYY)" suffix MovieLens appends to titles.
var yearPattern = regexp.MustCompile(`\((\d{4})\)\s*$`)

// parseMovieRecord converts one movies.csv record (movieId,title,genres)
// into a MovieRow. The year suffix is split out of the title; the full
// title keeps it for display.
func parseMovieRecord(record []string) (*database.MovieRow, error) {
	if len(record) < 2 {
		return nil, fmt.Errorf("movie record has %d fields, want at least 2", len(record))
	}

	movieID, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return nil, fmt.Errorf("invalid movie id %q: %w", record[0], err)
	}

	fullTitle := strings.TrimSpace(record[1])
	if fullTitle == "" {
		return nil, fmt.Errorf("movie %d has an empty title", movieID)
	}

	title := fullTitle
	year := 0
	if m := yearPattern.FindStringSubmatchIndex(fullTitle); m != nil {
		parsed, convErr := strconv.Atoi(fullTitle[m[2]:m[3]])
		if convErr == nil {
			year = parsed
			title = strings.TrimSpace(fullTitle[:m[0]])
		}
	}

	var genres []string
	if len(record) >= 3 {
		genres = parseGenres(record[2])
	}

	return &database.MovieRow{
		MovieID:   movieID,
		Title:     title,
		FullTitle: fullTitle,
		Year:      year,
		Genres:    genres,
	}, nil
}

// parseGenres splits the pipe-joined genre field, dropping empty entries
// and the no-genres sentinel in both its bare and parenthesized forms.
func parseGenres(field string) []string {
	var genres []string
	for _, g := range strings.Split(field, "|") {
		g = strings.TrimSpace(g)
		if g == "" || strings.Trim(g, "()") == genreSentinel {
			continue
		}
		genres = append(genres, g)
	}
	return genres
}

// parseRatingRecord converts one ratings.csv record
// (userId,movieId,rating,timestamp) into a RatingRow.
func parseRatingRecord(record []string) (*database.RatingRow, error) {
	if len(record) < 4 {
		return nil, fmt.Errorf("rating record has %d fields, want 4", len(record))
	}

	userID, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", record[0], err)
	}
	movieID, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return nil, fmt.Errorf("invalid movie id %q: %w", record[1], err)
	}
	rating, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid rating %q: %w", record[2], err)
	}
	if rating < 0.5 || rating > 5.0 || math.Mod(rating*2, 1) != 0 {
		return nil, fmt.Errorf("rating %.2f outside the half-star scale", rating)
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", record[3], err)
	}

	return &database.RatingRow{
		UserID:  userID,
		MovieID: movieID,
		Rating:  rating,
		RatedAt: time.Unix(ts, 0).UTC(),
	}, nil
}
