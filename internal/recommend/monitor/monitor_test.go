// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package monitor

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) *SnapshotStore {
	t.Helper()
	store, err := NewSnapshotStore(filepath.Join(t.TempDir(), "metrics", "metrics.json"))
	if err != nil {
		t.Fatalf("NewSnapshotStore() error = %v", err)
	}
	return store
}

func newTestAggregator(t *testing.T, store *SnapshotStore) *Aggregator {
	t.Helper()
	agg, err := NewAggregator(DefaultConfig(), store, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewAggregator() error = %v", err)
	}
	return agg
}

func TestSnapshotStore_LoadDefaults(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	snap, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap != DefaultSnapshot() {
		t.Errorf("Load() = %+v, want defaults", snap)
	}
	if snap.MeanSimilarity != 1.0 {
		t.Errorf("default mean similarity = %v, want 1.0", snap.MeanSimilarity)
	}
}

func TestSnapshotStore_Corrupt(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := store.Load(); !errors.Is(err, ErrCorruptSnapshot) {
		t.Errorf("Load() error = %v, want ErrCorruptSnapshot", err)
	}

	// Carry-forward reads a corrupt file as 0 days and the next flush
	// replaces it.
	agg := newTestAggregator(t, store)
	snap, err := agg.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if snap.LastRetrainDays != 0 {
		t.Errorf("carried days = %d, want 0", snap.LastRetrainDays)
	}
	if _, err := store.Load(); err != nil {
		t.Errorf("Load() after flush error = %v", err)
	}
}

func TestSnapshotStore_FileFormat(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if _, err := store.SetRetrainDays(3); err != nil {
		t.Fatalf("SetRetrainDays() error = %v", err)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"cold_start_rate", "mean_similarity", "query_count_24h", "last_retrain_days"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("snapshot file missing key %q", key)
		}
	}
	if len(raw) != 4 {
		t.Errorf("snapshot file has %d keys, want 4", len(raw))
	}
}

func TestSnapshotStore_PartialFile(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := os.WriteFile(store.Path(), []byte(`{"cold_start_rate": 0.4}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	snap, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.ColdStartRate != 0.4 || snap.MeanSimilarity != 1.0 {
		t.Errorf("Load() = %+v", snap)
	}
}

func TestAggregator_FlushEveryN(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	agg := newTestAggregator(t, store)

	for i := 0; i < 9; i++ {
		agg.Record(false, []float64{0.8})
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Fatalf("snapshot written before the 10th request (stat err = %v)", err)
	}

	agg.Record(true, nil)

	snap, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.QueryCount24h != 10 {
		t.Errorf("query count = %d, want 10", snap.QueryCount24h)
	}
	if math.Abs(snap.ColdStartRate-0.1) > 1e-9 {
		t.Errorf("cold start rate = %v, want 0.1", snap.ColdStartRate)
	}
	if math.Abs(snap.MeanSimilarity-0.8) > 1e-9 {
		t.Errorf("mean similarity = %v, want 0.8", snap.MeanSimilarity)
	}

	// Count-based flushes do not reset the window.
	if got := agg.Current().Requests; got != 10 {
		t.Errorf("window requests = %d, want 10", got)
	}
}

func TestAggregator_EmptyFlush(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator(t, newTestStore(t))
	snap, err := agg.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if snap.ColdStartRate != 0 || snap.MeanSimilarity != 1.0 || snap.QueryCount24h != 0 {
		t.Errorf("empty flush = %+v", snap)
	}
}

func TestAggregator_FlushIdempotent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	agg := newTestAggregator(t, store)
	agg.Record(false, []float64{0.3, 0.7})
	agg.Record(true, nil)

	first, err := agg.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	firstBytes, _ := os.ReadFile(store.Path())

	second, err := agg.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	secondBytes, _ := os.ReadFile(store.Path())

	if first != second || string(firstBytes) != string(secondBytes) {
		t.Errorf("back-to-back flushes differ: %+v vs %+v", first, second)
	}
}

func TestAggregator_CarriesRetrainDays(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if _, err := store.SetRetrainDays(16); err != nil {
		t.Fatalf("SetRetrainDays() error = %v", err)
	}

	agg := newTestAggregator(t, store)
	for i := 0; i < 10; i++ {
		agg.Record(false, []float64{0.9})
	}

	snap, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.LastRetrainDays != 16 {
		t.Errorf("last retrain days = %d, want 16", snap.LastRetrainDays)
	}
}

func TestAggregator_WindowExpiry(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	agg := newTestAggregator(t, store)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := start
	agg.now = func() time.Time { return clock }
	agg.stats.WindowStart = start

	agg.Record(true, nil)
	agg.Record(false, []float64{0.6})

	// Not yet expired.
	if flushed, err := agg.Tick(start.Add(24 * time.Hour)); flushed || err != nil {
		t.Fatalf("Tick() at 24h = %v, %v; want no flush", flushed, err)
	}

	flushed, err := agg.Tick(start.Add(25 * time.Hour))
	if err != nil || !flushed {
		t.Fatalf("Tick() at 25h = %v, %v; want flush", flushed, err)
	}
	snap, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.QueryCount24h != 2 || snap.ColdStartRate != 0.5 {
		t.Errorf("expired window snapshot = %+v", snap)
	}

	cur := agg.Current()
	if cur.Requests != 0 || cur.SimilarityCount != 0 {
		t.Errorf("window not reset: %+v", cur)
	}
	if !cur.WindowStart.Equal(start.Add(25 * time.Hour)) {
		t.Errorf("window start = %v", cur.WindowStart)
	}

	// Record also closes an expired window.
	clock = start.Add(50 * time.Hour)
	agg.Record(false, []float64{0.2})
	if got := agg.Current().Requests; got != 0 {
		t.Errorf("requests after expiring Record = %d, want 0", got)
	}
	snap, _ = store.Load()
	if snap.QueryCount24h != 1 {
		t.Errorf("query count after expiring Record = %d, want 1", snap.QueryCount24h)
	}
}

func TestAggregator_ConcurrentRecord(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	agg := newTestAggregator(t, store)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				agg.Record(g%2 == 0, []float64{0.5})
			}
		}(g)
	}
	wg.Wait()

	snap, err := agg.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if snap.QueryCount24h != 400 {
		t.Errorf("query count = %d, want 400", snap.QueryCount24h)
	}
	if snap.ColdStartRate != 0.5 {
		t.Errorf("cold start rate = %v, want 0.5", snap.ColdStartRate)
	}
	persisted, _ := store.Load()
	if persisted != snap {
		t.Errorf("persisted %+v, want %+v", persisted, snap)
	}
}

func TestSnapshotStore_StaleCommitSkipped(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	newer := capture{seq: 5, stats: WindowStats{Requests: 50}}
	older := capture{seq: 4, stats: WindowStats{Requests: 40}}

	if _, written, err := store.commit(newer.seq, newer.snapshot); err != nil || !written {
		t.Fatalf("commit(newer) = %v, %v", written, err)
	}
	if _, written, err := store.commit(older.seq, older.snapshot); err != nil || written {
		t.Fatalf("commit(older) = %v, %v; want skipped", written, err)
	}
	snap, _ := store.Load()
	if snap.QueryCount24h != 50 {
		t.Errorf("query count = %d, want 50", snap.QueryCount24h)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if err := (Config{FlushEvery: 0, Window: time.Hour}).Validate(); err == nil {
		t.Error("expected error for zero flush_every")
	}
	if err := (Config{FlushEvery: 1}).Validate(); err == nil {
		t.Error("expected error for zero window")
	}
}
