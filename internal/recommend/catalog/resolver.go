// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package catalog

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/Rktim/movie-recommender-mlops/internal/cache"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend"
)

// DefaultFuzzyCutoff is the minimum similarity ratio for a fuzzy match.
const DefaultFuzzyCutoff = 0.75

// fuzzyResult is a memoized fuzzy resolution. found is false for a miss.
type fuzzyResult struct {
	id    int
	found bool
}

// Resolver maps free-text titles to catalog item IDs: exact normalized
// lookup first, then the single best fuzzy match at or above the cutoff.
//
// Fuzzy matching scans every title (O(n) per query). Results are memoized per
// normalized query since the catalog never changes.
type Resolver struct {
	catalog *Catalog
	cutoff  float64

	// seqs holds each key of catalog.Keys() split into characters.
	seqs [][]string

	memo *cache.LRU[fuzzyResult]
}

// NewResolver creates a resolver over cat. A cutoff outside (0, 1] selects
// DefaultFuzzyCutoff. memoSize bounds the fuzzy memo; 0 picks a default.
func NewResolver(cat *Catalog, cutoff float64, memoSize int) *Resolver {
	if cutoff <= 0 || cutoff > 1 {
		cutoff = DefaultFuzzyCutoff
	}
	keys := cat.Keys()
	seqs := make([][]string, len(keys))
	for i, k := range keys {
		seqs[i] = chars(k)
	}
	return &Resolver{
		catalog: cat,
		cutoff:  cutoff,
		seqs:    seqs,
		memo:    cache.NewLRU[fuzzyResult](memoSize),
	}
}

// Resolve returns the item ID for query or recommend.ErrNotFound.
func (r *Resolver) Resolve(query string) (int, error) {
	key := Normalize(query)
	if key == "" {
		return 0, fmt.Errorf("empty title: %w", recommend.ErrNotFound)
	}
	if id, ok := r.catalog.Lookup(key); ok {
		return id, nil
	}

	if res, ok := r.memo.Get(key); ok {
		if !res.found {
			return 0, recommend.ErrNotFound
		}
		return res.id, nil
	}

	best, ok := r.closestKey(key)
	if !ok {
		r.memo.Add(key, fuzzyResult{})
		return 0, recommend.ErrNotFound
	}
	id, _ := r.catalog.Lookup(best)
	r.memo.Add(key, fuzzyResult{id: id, found: true})
	return id, nil
}

// closestKey returns the catalog key with the highest similarity ratio to
// query, if that ratio reaches the cutoff. Ties go to the lexicographically
// greater key. The three-stage filter mirrors difflib.get_close_matches.
func (r *Resolver) closestKey(query string) (string, bool) {
	keys := r.catalog.Keys()
	matcher := difflib.NewMatcher(nil, chars(query))

	bestScore := -1.0
	best := ""
	for i, seq := range r.seqs {
		matcher.SetSeq1(seq)
		if matcher.RealQuickRatio() < r.cutoff || matcher.QuickRatio() < r.cutoff {
			continue
		}
		score := matcher.Ratio()
		if score < r.cutoff {
			continue
		}
		if score > bestScore || (score == bestScore && keys[i] > best) {
			bestScore = score
			best = keys[i]
		}
	}
	return best, bestScore >= 0
}

// MemoStats returns fuzzy memo hits, misses and size.
func (r *Resolver) MemoStats() (hits, misses int64, size int) {
	return r.memo.Stats()
}

func chars(s string) []string {
	return strings.Split(s, "")
}
