// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package monitor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/renameio"
)

// ErrCorruptSnapshot is returned by Load when the snapshot file exists but
// cannot be parsed.
var ErrCorruptSnapshot = errors.New("corrupt metrics snapshot")

// Snapshot is the persisted summary of one serving window.
type Snapshot struct {
	ColdStartRate   float64 `json:"cold_start_rate"`
	MeanSimilarity  float64 `json:"mean_similarity"`
	QueryCount24h   int     `json:"query_count_24h"`
	LastRetrainDays int     `json:"last_retrain_days"`
}

// DefaultSnapshot is the snapshot assumed before anything has been written.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		ColdStartRate:   0,
		MeanSimilarity:  1.0,
		QueryCount24h:   0,
		LastRetrainDays: 0,
	}
}

// SnapshotStore reads and writes the snapshot file. Every write replaces
// the whole file atomically. All methods are safe for concurrent use.
type SnapshotStore struct {
	path string

	mu      sync.Mutex
	lastSeq uint64
}

// NewSnapshotStore creates a store for path, creating its directory.
func NewSnapshotStore(path string) (*SnapshotStore, error) {
	if path == "" {
		return nil, errors.New("snapshot path must be set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &SnapshotStore{path: path}, nil
}

// Path returns the snapshot file path.
func (s *SnapshotStore) Path() string { return s.path }

// Load returns the persisted snapshot, or DefaultSnapshot when none exists.
// Keys missing from the file keep their default values.
func (s *SnapshotStore) Load() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Update applies fn to the persisted snapshot and writes the result, holding
// the store lock across the read and the write. A missing or corrupt file is
// replaced starting from DefaultSnapshot.
func (s *SnapshotStore) Update(fn func(*Snapshot)) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadLocked()
	if err != nil {
		snap = DefaultSnapshot()
	}
	fn(&snap)
	if err := s.writeLocked(snap); err != nil {
		return snap, err
	}
	return snap, nil
}

// SetRetrainDays records the whole days since the last training run.
func (s *SnapshotStore) SetRetrainDays(days int) (Snapshot, error) {
	if days < 0 {
		days = 0
	}
	return s.Update(func(snap *Snapshot) {
		snap.LastRetrainDays = days
	})
}

// commit writes the snapshot produced by build unless a snapshot with an
// equal or higher sequence number was already written. build receives the
// persisted last_retrain_days to carry forward. written is false for a stale
// sequence.
func (s *SnapshotStore) commit(seq uint64, build func(lastRetrainDays int) Snapshot) (snap Snapshot, written bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap = build(s.retrainDaysLocked())
	if seq <= s.lastSeq {
		return snap, false, nil
	}
	if err := s.writeLocked(snap); err != nil {
		return snap, false, err
	}
	s.lastSeq = seq
	return snap, true, nil
}

func (s *SnapshotStore) loadLocked() (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultSnapshot(), nil
		}
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	snap := DefaultSnapshot()
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %s: %w", ErrCorruptSnapshot, s.path, err)
	}
	return snap, nil
}

// retrainDaysLocked reads last_retrain_days for carry-forward. Anything
// unreadable counts as 0.
func (s *SnapshotStore) retrainDaysLocked() int {
	snap, err := s.loadLocked()
	if err != nil {
		return 0
	}
	return snap.LastRetrainDays
}

func (s *SnapshotStore) writeLocked(snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := renameio.WriteFile(s.path, data, 0o640); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
