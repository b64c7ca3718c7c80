// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package importer

import (
	"reflect"
	"testing"
	"time"
)

func TestParseMovieRecord(t *testing.T) {
	cases := []struct {
		name       string
		record     []string
		wantID     int
		wantTitle  string
		wantFull   string
		wantYear   int
		wantGenres []string
	}{
		{
			name:       "year suffix split from title",
			record:     []string{"1", "Toy Story (1995)", "Adventure|Animation|Children|Comedy|Fantasy"},
			wantID:     1,
			wantTitle:  "Toy Story",
			wantFull:   "Toy Story (1995)",
			wantYear:   1995,
			wantGenres: []string{"Adventure", "Animation", "Children", "Comedy", "Fantasy"},
		},
		{
			name:       "comma in quoted title",
			record:     []string{"11", "American President, The (1995)", "Comedy|Drama|Romance"},
			wantID:     11,
			wantTitle:  "American President, The",
			wantFull:   "American President, The (1995)",
			wantYear:   1995,
			wantGenres: []string{"Comedy", "Drama", "Romance"},
		},
		{
			name:       "no year suffix",
			record:     []string{"40697", "Babylon 5", "Sci-Fi"},
			wantID:     40697,
			wantTitle:  "Babylon 5",
			wantFull:   "Babylon 5",
			wantYear:   0,
			wantGenres: []string{"Sci-Fi"},
		},
		{
			name:      "sentinel genres dropped",
			record:    []string{"7", "Documentary Thing (2001)", "(no genres listed)"},
			wantID:    7,
			wantTitle: "Documentary Thing",
			wantFull:  "Documentary Thing (2001)",
			wantYear:  2001,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := parseMovieRecord(tc.record)
			if err != nil {
				t.Fatalf("parseMovieRecord: %v", err)
			}
			if m.MovieID != tc.wantID {
				t.Errorf("MovieID = %d, want %d", m.MovieID, tc.wantID)
			}
			if m.Title != tc.wantTitle {
				t.Errorf("Title = %q, want %q", m.Title, tc.wantTitle)
			}
			if m.FullTitle != tc.wantFull {
				t.Errorf("FullTitle = %q, want %q", m.FullTitle, tc.wantFull)
			}
			if m.Year != tc.wantYear {
				t.Errorf("Year = %d, want %d", m.Year, tc.wantYear)
			}
			if !reflect.DeepEqual(m.Genres, tc.wantGenres) {
				t.Errorf("Genres = %v, want %v", m.Genres, tc.wantGenres)
			}
		})
	}
}

func TestParseMovieRecordRejectsMalformed(t *testing.T) {
	cases := []struct {
		name   string
		record []string
	}{
		{"too few fields", []string{"1"}},
		{"non-numeric id", []string{"abc", "Title (1999)", "Drama"}},
		{"empty title", []string{"5", "  ", "Drama"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseMovieRecord(tc.record); err == nil {
				t.Fatalf("expected error for %v", tc.record)
			}
		})
	}
}

func TestParseGenres(t *testing.T) {
	got := parseGenres("Drama||no genres listed|(no genres listed)| Comedy ")
	want := []string{"Drama", "Comedy"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parseGenres = %v, want %v", got, want)
	}
}

func TestParseRatingRecord(t *testing.T) {
	r, err := parseRatingRecord([]string{"1", "31", "2.5", "1260759144"})
	if err != nil {
		t.Fatalf("parseRatingRecord: %v", err)
	}
	if r.UserID != 1 || r.MovieID != 31 || r.Rating != 2.5 {
		t.Errorf("parsed %+v", r)
	}
	if want := time.Unix(1260759144, 0).UTC(); !r.RatedAt.Equal(want) {
		t.Errorf("RatedAt = %v, want %v", r.RatedAt, want)
	}
}

func TestParseRatingRecordRejectsMalformed(t *testing.T) {
	cases := []struct {
		name   string
		record []string
	}{
		{"too few fields", []string{"1", "31", "2.5"}},
		{"bad rating", []string{"1", "31", "x", "1260759144"}},
		{"rating above scale", []string{"1", "31", "6.0", "1260759144"}},
		{"rating below scale", []string{"1", "31", "0.0", "1260759144"}},
		{"rating off half-point grid", []string{"1", "31", "3.7", "1260759144"}},
		{"bad timestamp", []string{"1", "31", "2.5", "not-a-time"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseRatingRecord(tc.record); err == nil {
				t.Fatalf("expected error for %v", tc.record)
			}
		})
	}
}
