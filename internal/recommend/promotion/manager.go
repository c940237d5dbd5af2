// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

// Package promotion replaces the champion scoring model with a challenger
// when the challenger's evaluation score strictly improves on it.
//
// A promotion reads and validates everything it needs before touching the
// champion slot. It then stages both challenger files next to their
// destinations, copies the current champion into the single rollback slot
// and renames the staged model and report into place. If the report rename
// fails, the previous champion model is restored from the rollback copy.
// Promotions and rollbacks are serialized; serving never waits on them.
package promotion

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio"
	"github.com/rs/zerolog"

	"github.com/Rktim/movie-recommender-mlops/internal/metrics"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/ranking"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/storage"
)

var (
	// ErrMissingChampionReport is returned when a champion exists without a
	// report to compare against.
	ErrMissingChampionReport = errors.New("champion report missing, cannot compare")

	// ErrNoRollback is returned by Rollback when no previous champion is kept.
	ErrNoRollback = errors.New("no rollback model available")

	// ErrInvalidChallenger is returned when the challenger model cannot be
	// read or decoded.
	ErrInvalidChallenger = errors.New("invalid challenger model")

	// ErrNoChallenger is returned by PromoteLatest when no challenger with a
	// report exists.
	ErrNoChallenger = errors.New("no challenger available")
)

// ChangeFunc is called after the champion slot changed.
type ChangeFunc func(ctx context.Context) error

// Manager runs promotions and rollbacks against a model registry.
type Manager struct {
	registry *storage.Registry
	ledger   Ledger
	logger   zerolog.Logger

	mu       sync.Mutex
	onChange ChangeFunc
}

// NewManager creates a promotion manager. A nil ledger disables the history.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewManager(registry *storage.Registry, ledger Ledger, logger zerolog.Logger) *Manager {
	return &Manager{
		registry: registry,
		ledger:   ledger,
		logger:   logger.With().Str("component", "promotion").Logger(),
	}
}

// OnChange sets the hook run after a successful promotion or rollback.
// Hook errors are logged; the champion change stands.
func (m *Manager) OnChange(fn ChangeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Registry returns the model registry.
func (m *Manager) Registry() *storage.Registry { return m.registry }

// candidate holds everything read before the first write.
type candidate struct {
	modelBytes  []byte
	reportBytes []byte
	score       storage.Score
}

// Promote replaces the champion with the challenger at modelPath/reportPath
// when the challenger's score is strictly greater, or unconditionally when
// there is no champion. It returns false with a nil error for a rejection.
//
// modelPath must lie in the challenger directory and reportPath in the
// reports directory; anything else fails with storage.ErrOutsideRegistry
// before a file is read.
func (m *Manager) Promote(ctx context.Context, modelPath, reportPath string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := &Record{ChallengerModel: modelPath, ChallengerReport: reportPath}

	promoted, err := m.promoteLocked(ctx, rec)
	switch {
	case err != nil:
		rec.Action = ActionFailed
		rec.Error = err.Error()
		metrics.RecordPromotion(string(ActionFailed))
		m.logger.Error().Err(err).Str("challenger", modelPath).Msg("promotion failed")
	case promoted:
		rec.Action = ActionPromoted
		metrics.RecordPromotion(string(ActionPromoted))
	default:
		rec.Action = ActionRejected
		metrics.RecordPromotion(string(ActionRejected))
	}
	m.appendLedger(ctx, rec)

	if promoted {
		m.notifyLocked(ctx)
	}
	return promoted, err
}

// PromoteLatest promotes the newest challenger that has a report.
func (m *Manager) PromoteLatest(ctx context.Context) (bool, error) {
	latest, err := m.registry.LatestChallenger(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, ErrNoChallenger
		}
		return false, err
	}
	return m.Promote(ctx, latest.ModelPath, latest.ReportPath)
}

func (m *Manager) promoteLocked(ctx context.Context, rec *Record) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	modelPath, reportPath, err := m.registry.ConfineChallenger(rec.ChallengerModel, rec.ChallengerReport)
	if err != nil {
		return false, err
	}
	cand, err := readCandidate(modelPath, reportPath)
	if err != nil {
		return false, err
	}
	rec.Metric = cand.score.Metric()
	rec.ChallengerScore = ptr(cand.score.Value)

	hasChampion := m.registry.HasChampion()
	if hasChampion {
		champReport, err := storage.ReadReport(m.registry.ChampionReport())
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return false, ErrMissingChampionReport
			}
			return false, fmt.Errorf("read champion report: %w", err)
		}
		champScore, err := champReport.RequireScore()
		if err != nil {
			return false, fmt.Errorf("champion report: %w", err)
		}
		rec.ChampionScore = ptr(champScore.Value)

		m.logger.Info().
			Float64("champion_score", champScore.Value).
			Float64("challenger_score", cand.score.Value).
			Str("metric", cand.score.Metric()).
			Msg("comparing challenger to champion")

		if cand.score.Value <= champScore.Value {
			rec.Reason = "no improvement over champion"
			m.logger.Info().Msg("challenger rejected (no improvement)")
			return false, nil
		}
	} else {
		rec.Reason = "no champion, first model promoted"
		m.logger.Info().Msg("no champion exists, promoting first model")
	}

	if err := m.install(cand, hasChampion); err != nil {
		return false, err
	}

	metrics.ChampionScore.Set(cand.score.Value)
	m.logger.Info().
		Str("challenger", rec.ChallengerModel).
		Float64("score", cand.score.Value).
		Msg("challenger promoted to champion")
	return true, nil
}

func readCandidate(modelPath, reportPath string) (*candidate, error) {
	report, err := storage.ReadReport(reportPath)
	if err != nil {
		return nil, fmt.Errorf("read challenger report: %w", err)
	}
	score, err := report.RequireScore()
	if err != nil {
		return nil, fmt.Errorf("challenger report: %w", err)
	}
	reportBytes, err := report.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode challenger report: %w", err)
	}

	modelBytes, err := os.ReadFile(modelPath) //nolint:gosec // path is a registry challenger path
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidChallenger, err)
	}
	if err := decodable(modelPath); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidChallenger, err)
	}

	return &candidate{modelBytes: modelBytes, reportBytes: reportBytes, score: score}, nil
}

// decodable checks that path holds a ranker the serving path can load.
func decodable(path string) error {
	var state storage.RankerState
	if _, err := storage.ReadArtifact(path, &state); err != nil {
		return err
	}
	_, err := ranking.FromState(&state)
	return err
}

// install writes cand into the champion slot. Every step after the first
// write registers an undo.
func (m *Manager) install(cand *candidate, hasChampion bool) (err error) {
	champModel := m.registry.ChampionModel()
	champReport := m.registry.ChampionReport()

	stagedModel, err := stage(champModel, cand.modelBytes)
	if err != nil {
		return fmt.Errorf("stage challenger model: %w", err)
	}
	defer func() { _ = stagedModel.Cleanup() }() //nolint:errcheck // no-op after a successful replace

	stagedReport, err := stage(champReport, cand.reportBytes)
	if err != nil {
		return fmt.Errorf("stage challenger report: %w", err)
	}
	defer func() { _ = stagedReport.Cleanup() }() //nolint:errcheck // no-op after a successful replace

	var undo []func()
	defer func() {
		if err != nil {
			for i := len(undo) - 1; i >= 0; i-- {
				undo[i]()
			}
		}
	}()

	if hasChampion {
		restoreSlot, err := m.backupChampion()
		if err != nil {
			return fmt.Errorf("back up champion: %w", err)
		}
		undo = append(undo, restoreSlot)
	}

	if err := stagedModel.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace champion model: %w", err)
	}
	undo = append(undo, m.restoreChampionModel(hasChampion))

	if err := stagedReport.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace champion report: %w", err)
	}

	// A rollback slot left without a champion does not hold the model this
	// promotion replaced.
	if !hasChampion {
		m.clearRollback()
	}
	return nil
}

// clearRollback removes the rollback model and report.
func (m *Manager) clearRollback() {
	for _, path := range []string{m.registry.RollbackModel(), m.registry.RollbackReport()} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			m.logger.Error().Err(err).Str("path", path).Msg("failed to remove stale rollback slot")
		}
	}
}

// backupChampion copies the champion model and report into the rollback
// slot. The returned func restores the slot's previous contents.
func (m *Manager) backupChampion() (func(), error) {
	prevModel, prevModelErr := os.ReadFile(m.registry.RollbackModel())
	prevReport, prevReportErr := os.ReadFile(m.registry.RollbackReport())
	restore := func() {
		restoreFile(m.registry.RollbackModel(), prevModel, prevModelErr)
		restoreFile(m.registry.RollbackReport(), prevReport, prevReportErr)
	}

	if err := copyFile(m.registry.ChampionModel(), m.registry.RollbackModel()); err != nil {
		restore()
		return nil, err
	}
	if err := copyFile(m.registry.ChampionReport(), m.registry.RollbackReport()); err != nil {
		restore()
		return nil, err
	}
	return restore, nil
}

// restoreChampionModel returns the undo for a replaced champion model: the
// rollback copy goes back into place, or the file is removed when there was
// no champion.
func (m *Manager) restoreChampionModel(hadChampion bool) func() {
	return func() {
		var err error
		if hadChampion {
			err = copyFile(m.registry.RollbackModel(), m.registry.ChampionModel())
		} else {
			err = os.Remove(m.registry.ChampionModel())
		}
		if err != nil {
			m.logger.Error().Err(err).Msg("failed to restore previous champion model")
			return
		}
		m.logger.Warn().Msg("previous champion model restored")
	}
}

// Rollback swaps the rollback generation back into the champion slot. The
// replaced champion becomes the new rollback generation.
func (m *Manager) Rollback(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := &Record{Action: ActionRolledBack}
	err := m.rollbackLocked(ctx)
	if err != nil {
		if errors.Is(err, ErrNoRollback) {
			return err
		}
		rec.Action = ActionFailed
		rec.Reason = "rollback"
		rec.Error = err.Error()
		metrics.RecordPromotion(string(ActionFailed))
		m.appendLedger(ctx, rec)
		return err
	}

	metrics.RecordPromotion(string(ActionRolledBack))
	m.appendLedger(ctx, rec)
	m.notifyLocked(ctx)
	return nil
}

func (m *Manager) rollbackLocked(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.registry.HasRollback() {
		return ErrNoRollback
	}

	backModel, err := os.ReadFile(m.registry.RollbackModel())
	if err != nil {
		return fmt.Errorf("read rollback model: %w", err)
	}
	if err := decodable(m.registry.RollbackModel()); err != nil {
		return fmt.Errorf("rollback model: %w", err)
	}
	backReport, err := os.ReadFile(m.registry.RollbackReport())
	if err != nil {
		return fmt.Errorf("read rollback report: %w", err)
	}
	if r, err := storage.ParseReport(backReport); err == nil {
		if s := r.Score(); s.Kind != storage.MetricAbsent {
			metrics.ChampionScore.Set(s.Value)
		}
	}

	curModel, curModelErr := os.ReadFile(m.registry.ChampionModel())
	curReport, curReportErr := os.ReadFile(m.registry.ChampionReport())

	if err := renameio.WriteFile(m.registry.ChampionModel(), backModel, 0o640); err != nil {
		return fmt.Errorf("restore champion model: %w", err)
	}
	if err := renameio.WriteFile(m.registry.ChampionReport(), backReport, 0o640); err != nil {
		restoreFile(m.registry.ChampionModel(), curModel, curModelErr)
		return fmt.Errorf("restore champion report: %w", err)
	}

	// The replaced champion becomes the rollback generation.
	restoreFile(m.registry.RollbackModel(), curModel, curModelErr)
	restoreFile(m.registry.RollbackReport(), curReport, curReportErr)

	m.logger.Info().Msg("champion rolled back to previous generation")
	return nil
}

// History returns up to limit ledger records, newest first.
func (m *Manager) History(ctx context.Context, limit int) ([]Record, error) {
	if m.ledger == nil {
		return nil, nil
	}
	return m.ledger.List(ctx, limit)
}

// ModelStatus describes one model slot.
type ModelStatus struct {
	Path       string                    `json:"path"`
	ReportPath string                    `json:"report_path"`
	Metric     string                    `json:"metric,omitempty"`
	Score      *float64                  `json:"score,omitempty"`
	Metadata   *storage.ArtifactMetadata `json:"metadata,omitempty"`
	ModTime    time.Time                 `json:"mod_time"`
}

// Status describes the registry.
type Status struct {
	Champion    *ModelStatus         `json:"champion"`
	Rollback    *ModelStatus         `json:"rollback"`
	Challengers []storage.Challenger `json:"challengers"`
}

// Status returns the champion, rollback and challenger slots.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	st := &Status{
		Champion: slotStatus(m.registry.ChampionModel(), m.registry.ChampionReport()),
		Rollback: slotStatus(m.registry.RollbackModel(), m.registry.RollbackReport()),
	}
	list, err := m.registry.ListChallengers(ctx)
	if err != nil {
		return nil, err
	}
	st.Challengers = list
	return st, nil
}

func slotStatus(modelPath, reportPath string) *ModelStatus {
	info, err := os.Stat(modelPath)
	if err != nil {
		return nil
	}
	st := &ModelStatus{Path: modelPath, ReportPath: reportPath, ModTime: info.ModTime()}
	if meta, err := storage.ReadArtifactMetadata(modelPath); err == nil {
		st.Metadata = meta
	}
	if r, err := storage.ReadReport(reportPath); err == nil {
		if s := r.Score(); s.Kind != storage.MetricAbsent {
			st.Metric = s.Metric()
			st.Score = ptr(s.Value)
		}
	}
	return st
}

func (m *Manager) appendLedger(ctx context.Context, rec *Record) {
	if m.ledger == nil {
		return
	}
	if err := m.ledger.Append(ctx, rec); err != nil {
		m.logger.Warn().Err(err).Str("action", string(rec.Action)).Msg("failed to append promotion ledger")
	}
}

func (m *Manager) notifyLocked(ctx context.Context) {
	if m.onChange == nil {
		return
	}
	if err := m.onChange(ctx); err != nil {
		m.logger.Error().Err(err).Msg("champion change hook failed")
	}
}

// stage writes data to a pending file in path's directory.
func stage(path string, data []byte) (*renameio.PendingFile, error) {
	pf, err := renameio.TempFile(filepath.Dir(path), path)
	if err != nil {
		return nil, err
	}
	if _, err := pf.Write(data); err != nil {
		_ = pf.Cleanup() //nolint:errcheck // best-effort removal of the temp file
		return nil, err
	}
	return pf, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src) //nolint:gosec // registry paths
	if err != nil {
		return err
	}
	return renameio.WriteFile(dst, data, 0o640)
}

// restoreFile writes data back to path, or removes path when the original
// read found nothing.
func restoreFile(path string, data []byte, readErr error) {
	if readErr != nil {
		if errors.Is(readErr, fs.ErrNotExist) {
			_ = os.Remove(path) //nolint:errcheck // best-effort restore
		}
		return
	}
	_ = renameio.WriteFile(path, data, 0o640) //nolint:errcheck // best-effort restore
}

func ptr(v float64) *float64 { return &v }
