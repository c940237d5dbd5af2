// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package promotion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Action is the outcome recorded for one promotion decision.
type Action string

const (
	ActionPromoted   Action = "promoted"
	ActionRejected   Action = "rejected"
	ActionFailed     Action = "failed"
	ActionRolledBack Action = "rolled_back"
)

// Record is one entry of the promotion ledger.
type Record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`

	ChallengerModel  string `json:"challenger_model,omitempty"`
	ChallengerReport string `json:"challenger_report,omitempty"`

	// Metric is the report metric the scores were read from.
	Metric          string   `json:"metric,omitempty"`
	ChallengerScore *float64 `json:"challenger_score,omitempty"`
	ChampionScore   *float64 `json:"champion_score,omitempty"`

	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Ledger is an append-only log of promotion decisions.
type Ledger interface {
	Append(ctx context.Context, rec *Record) error

	// List returns up to limit records, newest first. limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]Record, error)

	Close() error
}

const ledgerKeyPrefix = "promotion:"

// BadgerLedger stores the ledger in BadgerDB.
type BadgerLedger struct {
	db *badger.DB
}

// OpenBadgerLedger opens a ledger at path. An empty path opens an in-memory
// ledger that does not survive restarts.
func OpenBadgerLedger(path string) (*BadgerLedger, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	opts.ValueLogFileSize = 16 << 20
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for promotion ledger: %w", err)
	}
	return &BadgerLedger{db: db}, nil
}

// Append stores rec, filling ID and Timestamp when unset. Keys sort by
// timestamp so iteration order is chronological.
func (l *BadgerLedger) Append(_ context.Context, rec *Record) error {
	if rec == nil {
		return errors.New("ledger record cannot be nil")
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal ledger record: %w", err)
	}
	key := []byte(fmt.Sprintf("%s%020d:%s", ledgerKeyPrefix, rec.Timestamp.UnixNano(), rec.ID))

	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// List implements Ledger.
func (l *BadgerLedger) List(ctx context.Context, limit int) ([]Record, error) {
	var out []Record
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(ledgerKeyPrefix)
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode ledger record: %w", err)
			}
			out = append(out, rec)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the database.
func (l *BadgerLedger) Close() error {
	return l.db.Close()
}
