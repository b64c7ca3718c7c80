// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package recommend

import (
	"context"
	"math"
	"testing"
)

func TestTopGenresOrderingAndCap(t *testing.T) {
	store := &mockStore{
		affinities: []GenreAffinity{
			{Genre: "Comedy", MeanRating: 4.0, MovieCount: 10},
			{Genre: "Drama", MeanRating: 4.5, MovieCount: 3},
			{Genre: "Horror", MeanRating: 4.0, MovieCount: 12},
			{Genre: "Sci-Fi", MeanRating: 4.8, MovieCount: 2},
			{Genre: "Action", MeanRating: 3.9, MovieCount: 20},
			{Genre: "Romance", MeanRating: 3.6, MovieCount: 5},
			{Genre: "Thriller", MeanRating: 3.7, MovieCount: 8},
		},
	}
	e := newTestEngine(t, store, nil)

	got, err := e.topGenres(context.Background(), 1)
	if err != nil {
		t.Fatalf("topGenres: %v", err)
	}

	// Mean rating descending, movie count breaking the 4.0 tie.
	want := []string{"Sci-Fi", "Drama", "Horror", "Comedy", "Action"}
	if len(got) != len(want) {
		t.Fatalf("got %d genres %v, want cap 5", len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("genre[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestContentPopularityScore(t *testing.T) {
	store := &mockStore{
		affinities: []GenreAffinity{
			{Genre: "Drama", MeanRating: 4.5, MovieCount: 3},
		},
		genreMovies: []MovieStats{
			{MovieID: 10, Title: "A", AvgRating: 4.0, NumRating: 100},
			{MovieID: 11, Title: "B", AvgRating: 4.8, NumRating: 50},
		},
	}
	e := newTestEngine(t, store, nil)

	got, err := e.contentCandidates(context.Background(), 1, map[int]struct{}{}, 10)
	if err != nil {
		t.Fatalf("contentCandidates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	// 4.0*100 = 400 beats 4.8*50 = 240.
	if got[0].MovieID != 10 {
		t.Errorf("first candidate = movie %d, want 10", got[0].MovieID)
	}
	if math.Abs(got[0].Score-400.0) > 1e-9 {
		t.Errorf("score = %g, want 400", got[0].Score)
	}
	if got[0].Source != SourceContent {
		t.Errorf("source = %s, want content", got[0].Source)
	}
}

func TestContentEmptyWithoutLikedMovies(t *testing.T) {
	e := newTestEngine(t, &mockStore{}, nil)
	got, err := e.contentCandidates(context.Background(), 1, map[int]struct{}{}, 10)
	if err != nil {
		t.Fatalf("contentCandidates: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d candidates, want none without genre affinity", len(got))
	}
}

func TestContentDedupesAndExcludesRated(t *testing.T) {
	store := &mockStore{
		affinities: []GenreAffinity{
			{Genre: "Drama", MeanRating: 4.5, MovieCount: 3},
			{Genre: "Crime", MeanRating: 4.2, MovieCount: 2},
		},
		genreMovies: []MovieStats{
			// Same movie matched via two genres.
			{MovieID: 10, Title: "Dup", AvgRating: 4.0, NumRating: 100},
			{MovieID: 10, Title: "Dup", AvgRating: 4.0, NumRating: 100},
			{MovieID: 11, Title: "Seen", AvgRating: 4.5, NumRating: 80},
		},
	}
	e := newTestEngine(t, store, nil)

	got, err := e.contentCandidates(context.Background(), 1, map[int]struct{}{11: {}}, 10)
	if err != nil {
		t.Fatalf("contentCandidates: %v", err)
	}
	if len(got) != 1 || got[0].MovieID != 10 {
		t.Errorf("expected single deduped candidate 10, got %+v", got)
	}
}

func TestContentQueriesSelectedGenres(t *testing.T) {
	store := &mockStore{
		affinities: []GenreAffinity{
			{Genre: "Drama", MeanRating: 4.5, MovieCount: 3},
			{Genre: "Crime", MeanRating: 4.0, MovieCount: 2},
		},
	}
	e := newTestEngine(t, store, nil)

	if _, err := e.contentCandidates(context.Background(), 1, map[int]struct{}{}, 10); err != nil {
		t.Fatalf("contentCandidates: %v", err)
	}
	if len(store.queriedGenres) != 2 || store.queriedGenres[0] != "Drama" {
		t.Errorf("queried genres = %v, want [Drama Crime]", store.queriedGenres)
	}
}
