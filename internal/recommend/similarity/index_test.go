// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package similarity

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func unitVec(v ...float32) []float32 {
	var s float64
	for _, x := range v {
		s += float64(x * x)
	}
	n := float32(math.Sqrt(s))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / n
	}
	return out
}

func TestNewIndex_DimensionMismatch(t *testing.T) {
	t.Parallel()

	if _, err := NewIndex([][]float32{{1, 0}, {1, 0, 0}}); err == nil {
		t.Error("expected error for inconsistent dimensions")
	}
}

func TestIndex_Neighbors(t *testing.T) {
	t.Parallel()

	idx, err := NewIndex([][]float32{
		unitVec(1, 0),
		unitVec(1, 1),
		unitVec(0, 1),
		unitVec(1, 0.1),
		unitVec(-1, 0),
	})
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}

	got, err := idx.Neighbors(0, 3)
	if err != nil {
		t.Fatalf("Neighbors() error = %v", err)
	}
	wantIDs := []int{3, 1, 2}
	if len(got) != len(wantIDs) {
		t.Fatalf("len = %d, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("position %d = item %d, want %d", i, got[i].ID, id)
		}
	}
	if math.Abs(got[1].Similarity-math.Sqrt(0.5)) > 1e-6 {
		t.Errorf("similarity to item 1 = %f, want %f", got[1].Similarity, math.Sqrt(0.5))
	}
}

func TestIndex_NeighborsExcludesQuery(t *testing.T) {
	t.Parallel()

	// Duplicate vectors: the query must still not appear in its own result.
	idx, err := NewIndex([][]float32{unitVec(1, 0), unitVec(1, 0), unitVec(0, 1)})
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	for id := 0; id < idx.Len(); id++ {
		got, err := idx.Neighbors(id, 10)
		if err != nil {
			t.Fatalf("Neighbors(%d) error = %v", id, err)
		}
		if len(got) != 2 {
			t.Errorf("Neighbors(%d) returned %d items, want 2", id, len(got))
		}
		for _, c := range got {
			if c.ID == id {
				t.Errorf("Neighbors(%d) contains the query item", id)
			}
		}
	}
}

func TestIndex_NeighborsTieBreak(t *testing.T) {
	t.Parallel()

	idx, err := NewIndex([][]float32{unitVec(1, 0), unitVec(0, 1), unitVec(0, 1), unitVec(0, 1)})
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	got, err := idx.Neighbors(0, 3)
	if err != nil {
		t.Fatalf("Neighbors() error = %v", err)
	}
	for i, want := range []int{1, 2, 3} {
		if got[i].ID != want {
			t.Errorf("position %d = %d, want %d", i, got[i].ID, want)
		}
	}
}

func TestIndex_NeighborsOrderedAndBounded(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	vecs := make([][]float32, 200)
	for i := range vecs {
		vecs[i] = unitVec(rng.Float32()-0.5, rng.Float32()-0.5, rng.Float32()-0.5, rng.Float32()-0.5)
	}
	idx, err := NewIndex(vecs)
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}

	for _, id := range []int{0, 57, 199} {
		got, err := idx.Neighbors(id, 25)
		if err != nil {
			t.Fatalf("Neighbors(%d) error = %v", id, err)
		}
		if len(got) != 25 {
			t.Fatalf("Neighbors(%d) len = %d, want 25", id, len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i].Similarity > got[i-1].Similarity {
				t.Errorf("Neighbors(%d) not non-increasing at %d", id, i)
			}
		}
	}
}

func TestIndex_NeighborsErrors(t *testing.T) {
	t.Parallel()

	idx, err := NewIndex([][]float32{unitVec(1, 0)})
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}

	if _, err := idx.Neighbors(1, 5); !errors.Is(err, ErrItemOutOfRange) {
		t.Errorf("expected ErrItemOutOfRange, got %v", err)
	}
	if _, err := idx.Neighbors(-1, 5); !errors.Is(err, ErrItemOutOfRange) {
		t.Errorf("expected ErrItemOutOfRange, got %v", err)
	}

	got, err := idx.Neighbors(0, 5)
	if err != nil || len(got) != 0 {
		t.Errorf("single-item index: got %v, %v", got, err)
	}
}
