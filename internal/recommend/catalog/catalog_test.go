// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package catalog

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Rktim/movie-recommender-mlops/internal/recommend"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/storage"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"The Dark Knight", "the dark knight"},
		{"  Amélie (2001) ", "amelie 2001"},
		{"WALL·E", "wall e"},
		{"Léon: The Professional", "leon the professional"},
		{"Se7en", "se7en"},
		{"Ｆｕｌｌwidth", "fullwidth"},
		{"Mission:   Impossible\t-\nFallout", "mission impossible fallout"},
		{"!!!", ""},
		{"", ""},
		{" \t\n", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"Amélie", "WALL·E", "Crouching Tiger, Hidden Dragon"} {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func testState() storage.CatalogState {
	return storage.CatalogState{
		Titles: []string{"The Dark Knight", "The Dark Knight Rises", "Heat", "Amélie", "heat!"},
		Attributes: []map[string]float64{
			{"popularity": 120, "vote_average": 8.2, "vote_count": 12000},
			{"popularity": 90},
			{"vote_average": 7.9},
			nil,
			{"popularity": 1},
		},
		Vectors: [][]float32{
			{3, 4},
			{1, 0},
			{0, 2},
			{1, 1},
			{0, 0},
		},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	cat, err := New(testState())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cat.Len() != 5 {
		t.Errorf("Len() = %d, want 5", cat.Len())
	}

	item, ok := cat.Item(0)
	if !ok || item.Title != "The Dark Knight" || item.Attribute("vote_count") != 12000 {
		t.Errorf("Item(0) = %+v", item)
	}
	if _, ok := cat.Item(5); ok {
		t.Error("Item(5) should not exist")
	}

	v := cat.Vectors()[0]
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("vector 0 not unit-normalized: %v", v)
	}
	if zero := cat.Vectors()[4]; zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}

	// "Heat" and "heat!" normalize to the same key; the later one wins.
	if id, ok := cat.Lookup("heat"); !ok || id != 4 {
		t.Errorf("Lookup(heat) = %d/%v, want 4/true", id, ok)
	}
	if len(cat.Keys()) != 4 {
		t.Errorf("Keys() = %v, want 4 distinct keys", cat.Keys())
	}
}

func TestNew_Misaligned(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*storage.CatalogState)
	}{
		{"fewer vectors", func(s *storage.CatalogState) { s.Vectors = s.Vectors[:4] }},
		{"fewer attributes", func(s *storage.CatalogState) { s.Attributes = s.Attributes[:2] }},
		{"dimension mismatch", func(s *storage.CatalogState) { s.Vectors[3] = []float32{1, 2, 3} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			state := testState()
			tt.mutate(&state)
			if _, err := New(state); !errors.Is(err, ErrMisaligned) {
				t.Errorf("expected ErrMisaligned, got %v", err)
			}
		})
	}
}

func TestLoad_Gob(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.gob.gz")
	if _, err := storage.WriteArtifact(path, testState(), storage.ArtifactMetadata{
		Kind:      storage.KindCatalog,
		ItemCount: 5,
	}); err != nil {
		t.Fatalf("WriteArtifact() error = %v", err)
	}

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cat.Len() != 5 {
		t.Errorf("Len() = %d, want 5", cat.Len())
	}
}

func TestLoad_WrongKind(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ranker.gob.gz")
	if _, err := storage.WriteArtifact(path, testState(), storage.ArtifactMetadata{Kind: storage.KindRanker}); err != nil {
		t.Fatalf("WriteArtifact() error = %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error loading a ranker artifact as catalog")
	}
}

func TestLoad_JSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.json")
	body := `{
  "items": [
    {"title": "Heat", "attributes": {"popularity": 10}},
    {"title": "Ronin"}
  ],
  "vectors": [[1, 0], [0.5, 0.5]]
}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	item, _ := cat.Item(0)
	if item.Title != "Heat" || item.Attribute("popularity") != 10 {
		t.Errorf("Item(0) = %+v", item)
	}
	if id, ok := cat.Lookup("ronin"); !ok || id != 1 {
		t.Errorf("Lookup(ronin) = %d/%v", id, ok)
	}
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	cat, err := New(testState())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	r := NewResolver(cat, DefaultFuzzyCutoff, 16)

	tests := []struct {
		name    string
		query   string
		want    int
		wantErr error
	}{
		{"exact", "The Dark Knight", 0, nil},
		{"case and punctuation", "  the DARK knight!! ", 0, nil},
		{"accents", "amelie", 3, nil},
		{"fuzzy typo", "The Dark Knigt", 0, nil},
		{"fuzzy partial", "dark knight", 0, nil},
		{"fuzzy longer title", "dark knight rises", 1, nil},
		{"below cutoff", "Zootopia", 0, recommend.ErrNotFound},
		{"empty", "   ", 0, recommend.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := r.Resolve(tt.query)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Resolve(%q) error = %v, want %v", tt.query, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.query, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %d, want %d", tt.query, got, tt.want)
			}
		})
	}
}

func TestResolver_TieBreak(t *testing.T) {
	t.Parallel()

	cat, err := New(storage.CatalogState{
		Titles:  []string{"abcx", "abcy"},
		Vectors: [][]float32{{1}, {1}},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	r := NewResolver(cat, 0.75, 0)

	// Both keys score exactly 0.75 against "abcz".
	id, err := r.Resolve("abcz")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if id != 1 {
		t.Errorf("Resolve(abcz) = %d, want 1 (greater key wins ties)", id)
	}
}

func TestResolver_Memo(t *testing.T) {
	t.Parallel()

	cat, err := New(testState())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	r := NewResolver(cat, DefaultFuzzyCutoff, 16)

	for i := 0; i < 3; i++ {
		if _, err := r.Resolve("the dark knigt"); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if _, err := r.Resolve("nothing like it"); !errors.Is(err, recommend.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}

	hits, _, size := r.MemoStats()
	if size != 2 {
		t.Errorf("memo size = %d, want 2", size)
	}
	if hits != 4 {
		t.Errorf("memo hits = %d, want 4", hits)
	}
}
