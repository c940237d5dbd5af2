// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package retrain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rktim/movie-recommender-mlops/internal/recommend/monitor"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/storage"
)

func TestTrigger_ShouldRetrain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		snap        monitor.Snapshot
		wantRetrain bool
		wantReasons []string
	}{
		{
			name: "defaults",
			snap: monitor.DefaultSnapshot(),
		},
		{
			name: "at thresholds",
			snap: monitor.Snapshot{ColdStartRate: 0.20, MeanSimilarity: 0.50, LastRetrainDays: 14},
		},
		{
			name:        "cold start",
			snap:        monitor.Snapshot{ColdStartRate: 0.21, MeanSimilarity: 0.9},
			wantRetrain: true,
			wantReasons: []string{ReasonColdStart},
		},
		{
			name:        "low similarity",
			snap:        monitor.Snapshot{MeanSimilarity: 0.49},
			wantRetrain: true,
			wantReasons: []string{ReasonLowSimilarity},
		},
		{
			name:        "too old",
			snap:        monitor.Snapshot{MeanSimilarity: 1, LastRetrainDays: 15},
			wantRetrain: true,
			wantReasons: []string{ReasonModelTooOld},
		},
		{
			name:        "all reasons in order",
			snap:        monitor.Snapshot{ColdStartRate: 0.5, MeanSimilarity: 0.1, LastRetrainDays: 30},
			wantRetrain: true,
			wantReasons: []string{ReasonColdStart, ReasonLowSimilarity, ReasonModelTooOld},
		},
	}

	trigger := NewTrigger(DefaultThresholds())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, reasons := trigger.ShouldRetrain(tt.snap)
			if got != tt.wantRetrain {
				t.Errorf("ShouldRetrain() = %v, want %v", got, tt.wantRetrain)
			}
			if !reflect.DeepEqual(reasons, tt.wantReasons) {
				t.Errorf("reasons = %v, want %v", reasons, tt.wantReasons)
			}
		})
	}
}

func TestThresholds_Validate(t *testing.T) {
	t.Parallel()

	if err := DefaultThresholds().Validate(); err != nil {
		t.Errorf("default thresholds invalid: %v", err)
	}
	bad := DefaultThresholds()
	bad.MaxColdStartRate = 1.5
	if err := bad.Validate(); err == nil {
		t.Error("expected error for cold start rate above 1")
	}
	bad = DefaultThresholds()
	bad.MaxDaysWithoutRetrain = -1
	if err := bad.Validate(); err == nil {
		t.Error("expected error for negative days")
	}
}

// fakeRunner records its invocation and writes the requested outputs.
type fakeRunner struct {
	writeModel  bool
	writeReport bool
	err         error
	stderr      string

	name string
	args []string
}

func (f *fakeRunner) Run(_ context.Context, _, name string, args ...string) (stdout, stderr []byte, err error) {
	f.name = name
	f.args = args
	for i := 0; i+1 < len(args); i++ {
		switch {
		case args[i] == "--output" && f.writeModel:
			_ = os.WriteFile(args[i+1], []byte("model"), 0o600)
		case args[i] == "--report" && f.writeReport:
			_ = os.WriteFile(args[i+1], []byte(`{"f1_score": 0.8}`), 0o600)
		}
	}
	return nil, []byte(f.stderr), f.err
}

func newTestTrainer(t *testing.T, runner CommandRunner) *Trainer {
	t.Helper()
	root := t.TempDir()
	reg, err := storage.NewRegistry(storage.Layout{
		ChampionDir:   filepath.Join(root, "champion"),
		ChallengerDir: filepath.Join(root, "challengers"),
		ReportsDir:    filepath.Join(root, "reports"),
	})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	tr, err := NewTrainer(DefaultTrainerConfig(), reg, runner, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewTrainer() error = %v", err)
	}
	tr.now = func() time.Time { return time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC) }
	return tr
}

func TestTrainer_Success(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{writeModel: true, writeReport: true}
	tr := newTestTrainer(t, runner)

	art, err := tr.Train(context.Background())
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if filepath.Base(art.ModelPath) != "ranker_20260504_030201.gob.gz" {
		t.Errorf("model path = %s", art.ModelPath)
	}
	if filepath.Base(art.ReportPath) != "ranker_20260504_030201.json" {
		t.Errorf("report path = %s", art.ReportPath)
	}

	if runner.name != "ezyml" {
		t.Errorf("command = %q, want ezyml", runner.name)
	}
	joined := strings.Join(runner.args, " ")
	for _, want := range []string{
		"train",
		"--data data/processed/ranking_data.csv",
		"--target relevance_score",
		"--model extra_trees",
		"--output " + art.ModelPath,
		"--report " + art.ReportPath,
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
}

func TestTrainer_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		runner     *fakeRunner
		wantErr    error
		wantStderr string
	}{
		{
			name:       "non-zero exit",
			runner:     &fakeRunner{err: errors.New("exit status 1"), stderr: "ValueError: bad column\n"},
			wantErr:    ErrTrainingFailed,
			wantStderr: "ValueError: bad column",
		},
		{
			name:    "model missing",
			runner:  &fakeRunner{writeReport: true},
			wantErr: ErrArtifactMissing,
		},
		{
			name:    "report missing",
			runner:  &fakeRunner{writeModel: true},
			wantErr: ErrArtifactMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tr := newTestTrainer(t, tt.runner)
			_, err := tr.Train(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Train() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantStderr != "" && !strings.Contains(err.Error(), tt.wantStderr) {
				t.Errorf("error %q does not carry stderr", err)
			}
		})
	}
}

func TestTrainerConfig_Validate(t *testing.T) {
	t.Parallel()

	cfg := DefaultTrainerConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	cfg.Command = " "
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty command")
	}
}

func TestTail(t *testing.T) {
	t.Parallel()

	if got := tail([]byte("  abcdef \n"), 4); got != "ef" {
		t.Errorf("tail() = %q, want %q", got, "ef")
	}
	if got := tail([]byte(" x "), 100); got != "x" {
		t.Errorf("tail() = %q, want %q", got, "x")
	}
}
