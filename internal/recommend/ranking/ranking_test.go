// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package ranking

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rktim/movie-recommender-mlops/internal/recommend"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/storage"
)

func logisticState() storage.RankerState {
	return storage.RankerState{
		Family:   FamilyLogistic,
		Features: []string{recommend.FeatureVoteAverage},
		Logistic: &storage.LogisticState{
			Weights:   []float64{2},
			Intercept: -10,
		},
	}
}

// stumpState splits on popularity at 50: high popularity scores 0.9.
func stumpState() storage.RankerState {
	return storage.RankerState{
		Family:   FamilyExtraTrees,
		Features: []string{recommend.FeaturePopularity, recommend.FeatureVoteCount},
		Ensemble: &storage.EnsembleState{Trees: []storage.TreeState{
			{
				Feature:   []int{0, 0, 0},
				Threshold: []float64{50, 0, 0},
				Left:      []int{1, -1, -1},
				Right:     []int{2, -1, -1},
				Value:     []float64{0, 0.1, 0.9},
			},
			{
				Feature:   []int{1, 0, 0},
				Threshold: []float64{1000, 0, 0},
				Left:      []int{1, -1, -1},
				Right:     []int{2, -1, -1},
				Value:     []float64{0, 0.3, 0.7},
			},
		}},
	}
}

func table(rows ...[]float64) recommend.FeatureTable {
	return recommend.FeatureTable{Columns: recommend.RankFeatures, Rows: rows}
}

func TestFromState(t *testing.T) {
	t.Parallel()

	broken := stumpState()
	broken.Ensemble.Trees[0].Left[0] = 0

	tests := []struct {
		name    string
		state   storage.RankerState
		wantErr error
	}{
		{"logistic", logisticState(), nil},
		{"extra trees", stumpState(), nil},
		{"unknown family", storage.RankerState{Family: "svm", Features: []string{"x"}}, ErrUnknownFamily},
		{"no features", storage.RankerState{Family: FamilyLogistic}, ErrInvalidModel},
		{"logistic missing state", storage.RankerState{Family: FamilyLogistic, Features: []string{"x"}}, ErrInvalidModel},
		{"weight width", storage.RankerState{
			Family:   FamilyLogistic,
			Features: []string{"x", "y"},
			Logistic: &storage.LogisticState{Weights: []float64{1}},
		}, ErrInvalidModel},
		{"self-referencing tree", broken, ErrInvalidModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			state := tt.state
			_, err := FromState(&state)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("FromState() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("FromState() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogistic_PredictProba(t *testing.T) {
	t.Parallel()

	state := logisticState()
	state.Logistic.Mean = []float64{5}
	state.Logistic.Scale = []float64{0.5}
	state.Logistic.Intercept = 0
	m, err := FromState(&state)
	if err != nil {
		t.Fatalf("FromState() error = %v", err)
	}

	got, err := m.PredictProba([][]float64{{5}, {5.5}})
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}
	if math.Abs(got[0]-0.5) > 1e-9 {
		t.Errorf("p(mean) = %f, want 0.5", got[0])
	}
	if want := 1 / (1 + math.Exp(-2)); math.Abs(got[1]-want) > 1e-9 {
		t.Errorf("p(5.5) = %f, want %f", got[1], want)
	}

	if _, err := m.PredictProba([][]float64{{1, 2}}); !errors.Is(err, ErrRowWidth) {
		t.Errorf("expected ErrRowWidth, got %v", err)
	}
}

func TestEnsemble_PredictProba(t *testing.T) {
	t.Parallel()

	state := stumpState()
	m, err := FromState(&state)
	if err != nil {
		t.Fatalf("FromState() error = %v", err)
	}

	got, err := m.PredictProba([][]float64{{10, 10}, {100, 10}, {100, 5000}})
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}
	want := []float64{0.2, 0.6, 0.8}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("row %d = %f, want %f", i, got[i], want[i])
		}
	}
}

type panicModel struct{}

func (panicModel) Family() string     { return "panic" }
func (panicModel) Features() []string { return []string{recommend.FeaturePopularity} }
func (panicModel) PredictProba([][]float64) ([]float64, error) {
	panic("boom")
}

type funcModel struct {
	fn func(rows [][]float64) ([]float64, error)
}

func (funcModel) Family() string { return "func" }

func (funcModel) Features() []string { return []string{recommend.FeaturePopularity} }

func (m funcModel) PredictProba(r [][]float64) ([]float64, error) { return m.fn(r) }

func TestHandle_EmptyIsSkipped(t *testing.T) {
	t.Parallel()

	h := NewHandle(DefaultConfig(), zerolog.Nop())
	if h.Available() {
		t.Error("new handle should not be available")
	}
	if out := h.Rank(context.Background(), table([]float64{1, 2, 3})); out.Status != recommend.RankSkipped {
		t.Errorf("status = %s, want skipped", out.Status)
	}
	if _, ok := h.Info(); ok {
		t.Error("Info() on empty handle should report false")
	}
}

func TestHandle_RankOrder(t *testing.T) {
	t.Parallel()

	state := logisticState()
	m, err := FromState(&state)
	if err != nil {
		t.Fatalf("FromState() error = %v", err)
	}
	h := NewHandle(DefaultConfig(), zerolog.Nop())
	h.Swap(m, "v1")

	// Columns: popularity, vote_average, vote_count. Rows 1 and 3 tie.
	out := h.Rank(context.Background(), table(
		[]float64{0, 5, 0},
		[]float64{0, 8, 0},
		[]float64{0, 9, 0},
		[]float64{0, 8, 0},
	))
	if out.Status != recommend.RankApplied {
		t.Fatalf("status = %s (%s), want applied", out.Status, out.Reason)
	}
	want := []int{2, 1, 3, 0}
	for i := range want {
		if out.Order[i] != want[i] {
			t.Fatalf("order = %v, want %v", out.Order, want)
		}
	}
	if out.ModelVersion != "v1" {
		t.Errorf("version = %q, want v1", out.ModelVersion)
	}
}

func TestHandle_Degraded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		model  Model
		table  recommend.FeatureTable
		reason string
	}{
		{
			name:   "panic",
			model:  panicModel{},
			table:  table([]float64{1, 2, 3}),
			reason: "panicked",
		},
		{
			name:   "missing column",
			model:  panicModel{},
			table:  recommend.FeatureTable{Columns: []string{"other"}, Rows: [][]float64{{1}}},
			reason: "missing feature column",
		},
		{
			name: "non-finite",
			model: funcModel{fn: func(r [][]float64) ([]float64, error) {
				return []float64{math.NaN()}, nil
			}},
			table:  table([]float64{1, 2, 3}),
			reason: "non-finite",
		},
		{
			name: "short output",
			model: funcModel{fn: func(r [][]float64) ([]float64, error) {
				return []float64{0.5}, nil
			}},
			table:  table([]float64{1, 2, 3}, []float64{4, 5, 6}),
			reason: "returned 1 scores",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewHandle(DefaultConfig(), zerolog.Nop())
			h.Swap(tt.model, "v")
			out := h.Rank(context.Background(), tt.table)
			if out.Status != recommend.RankDegraded {
				t.Fatalf("status = %s, want degraded", out.Status)
			}
			if !strings.Contains(out.Reason, tt.reason) {
				t.Errorf("reason = %q, want it to contain %q", out.Reason, tt.reason)
			}
		})
	}
}

func TestHandle_CircuitOpens(t *testing.T) {
	t.Parallel()

	h := NewHandle(Config{FailureThreshold: 3, OpenTimeout: time.Hour}, zerolog.Nop())
	h.Swap(panicModel{}, "bad")

	tbl := table([]float64{1, 2, 3})
	for i := 0; i < 3; i++ {
		if out := h.Rank(context.Background(), tbl); out.Reason == reasonCircuitOpen {
			t.Fatalf("call %d: breaker opened early", i)
		}
	}
	out := h.Rank(context.Background(), tbl)
	if out.Status != recommend.RankDegraded || out.Reason != reasonCircuitOpen {
		t.Fatalf("outcome = %+v, want degraded %q", out, reasonCircuitOpen)
	}
	if info, _ := h.Info(); info.Breaker != "open" {
		t.Errorf("breaker state = %q, want open", info.Breaker)
	}

	// A swap installs a fresh breaker.
	state := logisticState()
	m, err := FromState(&state)
	if err != nil {
		t.Fatalf("FromState() error = %v", err)
	}
	h.Swap(m, "good")
	if out := h.Rank(context.Background(), tbl); out.Status != recommend.RankApplied {
		t.Errorf("after swap status = %s (%s), want applied", out.Status, out.Reason)
	}
}

func TestHandle_CanceledContext(t *testing.T) {
	t.Parallel()

	state := logisticState()
	m, _ := FromState(&state)
	h := NewHandle(DefaultConfig(), zerolog.Nop())
	h.Swap(m, "v1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if out := h.Rank(ctx, table([]float64{1, 2, 3})); out.Status != recommend.RankDegraded {
		t.Errorf("status = %s, want degraded", out.Status)
	}
}

func TestHandle_LoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "ranker.gob.gz")
	state := stumpState()
	if _, err := storage.WriteArtifact(path, state, storage.ArtifactMetadata{
		Kind:      storage.KindRanker,
		Family:    state.Family,
		Features:  state.Features,
		TrainedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}); err != nil {
		t.Fatalf("WriteArtifact() error = %v", err)
	}

	h := NewHandle(DefaultConfig(), zerolog.Nop())
	if err := h.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	info, ok := h.Info()
	if !ok {
		t.Fatal("expected a loaded model")
	}
	if info.Family != FamilyExtraTrees || !strings.HasPrefix(info.Version, "ranker@") {
		t.Errorf("info = %+v", info)
	}
	if info.Breaker != "closed" {
		t.Errorf("breaker = %q, want closed", info.Breaker)
	}

	// A failed reload keeps the previous model.
	if err := h.LoadFile(filepath.Join(dir, "missing.gob.gz")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if !h.Available() {
		t.Error("failed reload unloaded the previous model")
	}

	h.Clear()
	if h.Available() {
		t.Error("Clear() left a model loaded")
	}
}

func TestHandle_ConcurrentSwapAndRank(t *testing.T) {
	t.Parallel()

	models := make(map[string]Model, 2)
	for version, state := range map[string]storage.RankerState{
		"logistic": logisticState(),
		"stump":    stumpState(),
	} {
		m, err := FromState(&state)
		if err != nil {
			t.Fatalf("FromState(%s) error = %v", version, err)
		}
		models[version] = m
	}

	tbl := table(
		[]float64{10, 5, 2000},
		[]float64{90, 9, 100},
		[]float64{60, 7, 5000},
		[]float64{20, 8, 10},
	)

	// Each model's order, computed on a handle nobody swaps.
	want := make(map[string][]int, len(models))
	for version, m := range models {
		ref := NewHandle(DefaultConfig(), zerolog.Nop())
		ref.Swap(m, version)
		out := ref.Rank(context.Background(), tbl)
		if out.Status != recommend.RankApplied {
			t.Fatalf("%s: status = %s (%s)", version, out.Status, out.Reason)
		}
		want[version] = out.Order
	}

	h := NewHandle(DefaultConfig(), zerolog.Nop())
	stop := make(chan struct{})
	var swapper sync.WaitGroup
	swapper.Add(1)
	go func() {
		defer swapper.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			h.Swap(models["logistic"], "logistic")
			h.Swap(models["stump"], "stump")
			h.Clear()
		}
	}()

	const workers, calls = 8, 500
	var rankers sync.WaitGroup
	for w := 0; w < workers; w++ {
		rankers.Add(1)
		go func() {
			defer rankers.Done()
			for i := 0; i < calls; i++ {
				out := h.Rank(context.Background(), tbl)
				switch out.Status {
				case recommend.RankSkipped:
					if out.Order != nil {
						t.Errorf("skipped outcome carries order %v", out.Order)
					}
				case recommend.RankApplied:
					expected, ok := want[out.ModelVersion]
					if !ok {
						t.Errorf("applied by unknown version %q", out.ModelVersion)
						continue
					}
					if !equalOrder(out.Order, expected) {
						t.Errorf("%s order = %v, want %v", out.ModelVersion, out.Order, expected)
					}
				default:
					t.Errorf("status = %s (%s), want applied or skipped", out.Status, out.Reason)
				}
			}
		}()
	}

	rankers.Wait()
	close(stop)
	swapper.Wait()
}

func equalOrder(got, want []int) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
