// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

// Package similarity provides exact nearest-neighbour retrieval over the
// catalog's vector space.
//
// The index is a brute-force cosine scan. Vectors are expected to be unit
// length (the catalog normalizes them at load), so cosine similarity is a
// plain dot product. A query costs O(n·d); there is no approximate index.
package similarity

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Rktim/movie-recommender-mlops/internal/recommend"
)

// ErrItemOutOfRange is returned for an item ID outside the index.
var ErrItemOutOfRange = errors.New("item id out of range")

// Index is an immutable brute-force cosine index. Safe for concurrent use.
type Index struct {
	vecs [][]float32
	dim  int
}

// NewIndex builds an index over unit vectors. All vectors must share one
// dimension.
func NewIndex(vectors [][]float32) (*Index, error) {
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("similarity: inconsistent vector dims %d vs %d at %d", len(v), dim, i)
		}
	}
	return &Index{vecs: vectors, dim: dim}, nil
}

// Len returns the number of indexed vectors.
func (i *Index) Len() int { return len(i.vecs) }

// Dim returns the vector dimension.
func (i *Index) Dim() int { return i.dim }

// Neighbors returns up to poolSize items most similar to id, excluding id
// itself, ordered by non-increasing similarity. Equal similarities are
// ordered by ascending item ID.
func (i *Index) Neighbors(id, poolSize int) ([]recommend.Candidate, error) {
	if id < 0 || id >= len(i.vecs) {
		return nil, fmt.Errorf("%w: %d (index has %d items)", ErrItemOutOfRange, id, len(i.vecs))
	}
	if poolSize <= 0 {
		return nil, nil
	}

	query := i.vecs[id]
	scored := make([]recommend.Candidate, 0, len(i.vecs)-1)
	for j, v := range i.vecs {
		if j == id {
			continue
		}
		scored = append(scored, recommend.Candidate{ID: j, Similarity: dot(query, v)})
	}

	sort.Slice(scored, func(a, b int) bool {
		if scored[a].Similarity != scored[b].Similarity {
			return scored[a].Similarity > scored[b].Similarity
		}
		return scored[a].ID < scored[b].ID
	})

	if poolSize < len(scored) {
		scored = scored[:poolSize:poolSize]
	}
	return scored, nil
}

func dot(a, b []float32) float64 {
	var s float64
	for k := range a {
		s += float64(a[k]) * float64(b[k])
	}
	return s
}
