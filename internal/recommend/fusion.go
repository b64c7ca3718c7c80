// Reelgraph - Hybrid Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelgraph

package recommend

import "sort"

// fuseRanked merges the collaborative and content candidate lists by
// positional rank fusion.
//
// A candidate at 0-indexed position i in a list of length n carries
// weight (n-i) * listWeight. A movie appearing in both lists sums both
// weights and is retagged hybrid; otherwise it keeps its single
// source's weight and tag. The union is ordered by total weight
// descending and truncated to limit.
//
// Fusion is positional on purpose: the two scorers' raw scores live on
// different scales (similarity-weighted sums vs. avg*count popularity),
// so ordinal position is the only comparable signal. Scaling all of one
// list's weights by a positive constant never reorders candidates that
// appear only in that list.
func fuseRanked(collab, content []Candidate, collabWeight, contentWeight float64, limit int) []Candidate {
	type fused struct {
		candidate Candidate
		weight    float64
	}

	merged := make(map[int]*fused, len(collab)+len(content))

	for i, c := range collab {
		w := float64(len(collab)-i) * collabWeight
		merged[c.MovieID] = &fused{candidate: c, weight: w}
	}

	for i, c := range content {
		w := float64(len(content)-i) * contentWeight
		if f, ok := merged[c.MovieID]; ok {
			f.weight += w
			f.candidate.Source = SourceHybrid
			continue
		}
		merged[c.MovieID] = &fused{candidate: c, weight: w}
	}

	out := make([]Candidate, 0, len(merged))
	for _, f := range merged {
		c := f.candidate
		c.Score = f.weight
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].MovieID < out[j].MovieID
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
