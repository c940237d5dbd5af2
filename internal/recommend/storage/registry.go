// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// File names inside the model directories.
const (
	championModelName  = "ranker" + ArtifactExt
	rollbackModelName  = "ranker_backup" + ArtifactExt
	championReportName = "champion_report.json"
	rollbackReportName = "champion_report_backup.json"

	challengerPrefix = "ranker_"
	reportExt        = ".json"

	// TimestampLayout names challenger artifacts: ranker_<YYYYmmdd_HHMMSS>.
	TimestampLayout = "20060102_150405"
)

// ErrOutsideRegistry is returned for a challenger model outside the
// challenger directory, or a report outside the reports directory.
var ErrOutsideRegistry = errors.New("path outside model registry")

// Layout names the directories of the model registry.
type Layout struct {
	// ChampionDir holds the serving model and its rollback copy.
	ChampionDir string

	// ChallengerDir receives models written by the training job.
	ChallengerDir string

	// ReportsDir holds evaluation reports for champions and challengers.
	ReportsDir string
}

// Challenger is one trained model awaiting promotion.
type Challenger struct {
	Name       string    `json:"name"`
	ModelPath  string    `json:"model_path"`
	ReportPath string    `json:"report_path"`
	HasReport  bool      `json:"has_report"`
	ModTime    time.Time `json:"mod_time"`
}

// Registry resolves the champion, rollback and challenger slots on disk.
// It does not lock; promotion serializes writers.
type Registry struct {
	layout Layout
}

// NewRegistry creates the registry directories if needed.
func NewRegistry(layout Layout) (*Registry, error) {
	for _, dir := range []string{layout.ChampionDir, layout.ChallengerDir, layout.ReportsDir} {
		if dir == "" {
			return nil, errors.New("registry directories must be set")
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create registry directory %s: %w", dir, err)
		}
	}
	return &Registry{layout: layout}, nil
}

// Layout returns the registry directories.
func (r *Registry) Layout() Layout { return r.layout }

// ChampionModel returns the path of the serving model.
func (r *Registry) ChampionModel() string {
	return filepath.Join(r.layout.ChampionDir, championModelName)
}

// ChampionReport returns the path of the serving model's report.
func (r *Registry) ChampionReport() string {
	return filepath.Join(r.layout.ReportsDir, championReportName)
}

// RollbackModel returns the path of the previous champion.
func (r *Registry) RollbackModel() string {
	return filepath.Join(r.layout.ChampionDir, rollbackModelName)
}

// RollbackReport returns the path of the previous champion's report.
func (r *Registry) RollbackReport() string {
	return filepath.Join(r.layout.ReportsDir, rollbackReportName)
}

// HasChampion reports whether a champion model exists.
func (r *Registry) HasChampion() bool {
	return fileExists(r.ChampionModel())
}

// HasRollback reports whether a rollback model exists.
func (r *Registry) HasRollback() bool {
	return fileExists(r.RollbackModel())
}

// NewChallengerPaths returns the model and report paths for a training run
// started at ts.
func (r *Registry) NewChallengerPaths(ts time.Time) (modelPath, reportPath string) {
	base := challengerPrefix + ts.UTC().Format(TimestampLayout)
	return filepath.Join(r.layout.ChallengerDir, base+ArtifactExt),
		filepath.Join(r.layout.ReportsDir, base+reportExt)
}

// ReportFor returns the report path paired with a challenger model path.
func (r *Registry) ReportFor(modelPath string) string {
	base := strings.TrimSuffix(filepath.Base(modelPath), ArtifactExt)
	return filepath.Join(r.layout.ReportsDir, base+reportExt)
}

// ListChallengers returns challengers newest first.
func (r *Registry) ListChallengers(_ context.Context) ([]Challenger, error) {
	entries, err := os.ReadDir(r.layout.ChallengerDir)
	if err != nil {
		return nil, fmt.Errorf("read challenger directory: %w", err)
	}

	var out []Challenger
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !isChallengerName(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		modelPath := filepath.Join(r.layout.ChallengerDir, name)
		reportPath := r.ReportFor(modelPath)
		out = append(out, Challenger{
			Name:       strings.TrimSuffix(name, ArtifactExt),
			ModelPath:  modelPath,
			ReportPath: reportPath,
			HasReport:  fileExists(reportPath),
			ModTime:    info.ModTime(),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].ModTime.After(out[j].ModTime)
		}
		return out[i].Name > out[j].Name
	})
	return out, nil
}

// LatestChallenger returns the newest challenger that has a report.
func (r *Registry) LatestChallenger(ctx context.Context) (*Challenger, error) {
	list, err := r.ListChallengers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].HasReport {
			return &list[i], nil
		}
	}
	return nil, fs.ErrNotExist
}

// PruneChallengers removes all but the newest keep challengers and their
// reports. Removal is best effort.
func (r *Registry) PruneChallengers(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}
	list, err := r.ListChallengers(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for i := keep; i < len(list); i++ {
		if err := os.Remove(list[i].ModelPath); err == nil {
			removed++
		}
		_ = os.Remove(list[i].ReportPath) //nolint:errcheck // best-effort cleanup of old reports
	}
	return removed, nil
}

// ChampionAge returns how long ago the champion slot was last written.
// ok is false when there is no champion.
func (r *Registry) ChampionAge(now time.Time) (age time.Duration, ok bool) {
	info, err := os.Stat(r.ChampionModel())
	if err != nil {
		return 0, false
	}
	return now.Sub(info.ModTime()), true
}

// LatestTrainingTime returns the modification time of the newest challenger
// or, failing that, the champion. ok is false when neither exists.
func (r *Registry) LatestTrainingTime(ctx context.Context) (time.Time, bool) {
	if list, err := r.ListChallengers(ctx); err == nil && len(list) > 0 {
		return list[0].ModTime, true
	}
	info, err := os.Stat(r.ChampionModel())
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// ConfineChallenger resolves modelPath and reportPath and checks that they
// lie inside the challenger and reports directories. Symlinks are resolved
// first, so a link pointing out of the registry is rejected too. It returns
// the resolved paths.
func (r *Registry) ConfineChallenger(modelPath, reportPath string) (model, report string, err error) {
	model, err = confine(r.layout.ChallengerDir, modelPath)
	if err != nil {
		return "", "", fmt.Errorf("challenger model %q: %w", modelPath, err)
	}
	report, err = confine(r.layout.ReportsDir, reportPath)
	if err != nil {
		return "", "", fmt.Errorf("challenger report %q: %w", reportPath, err)
	}
	return model, report, nil
}

func confine(dir, path string) (string, error) {
	if path == "" {
		return "", ErrOutsideRegistry
	}
	base, err := resolve(dir)
	if err != nil {
		return "", err
	}
	target, err := resolve(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRegistry
	}
	return target, nil
}

// resolve returns the absolute, cleaned, symlink-free form of path. A path
// that does not exist yet is only cleaned.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return abs, nil
		}
		return "", err
	}
	return resolved, nil
}

func isChallengerName(name string) bool {
	if !strings.HasPrefix(name, challengerPrefix) || !strings.HasSuffix(name, ArtifactExt) {
		return false
	}
	ts := strings.TrimSuffix(strings.TrimPrefix(name, challengerPrefix), ArtifactExt)
	_, err := time.Parse(TimestampLayout, ts)
	return err == nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
