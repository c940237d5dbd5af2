// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package retrain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rktim/movie-recommender-mlops/internal/metrics"
	"github.com/Rktim/movie-recommender-mlops/internal/recommend/storage"
)

var (
	// ErrTrainingFailed is returned when the training command exits non-zero
	// or cannot be started.
	ErrTrainingFailed = errors.New("training failed")

	// ErrArtifactMissing is returned when the training command succeeds but
	// the model or report file was not written.
	ErrArtifactMissing = errors.New("training artifact missing")
)

// Placeholders substituted in TrainerConfig.Args.
const (
	PlaceholderModel  = "{model}"
	PlaceholderReport = "{report}"
)

// maxStderr bounds the stderr captured into ErrTrainingFailed.
const maxStderr = 4096

// TrainerConfig configures the external training command.
//
// The command must write two files:
//
//   - {model}: a storage.RankerState encoded with storage.WriteArtifact,
//     that is a gob header followed by a gzip payload, named with
//     storage.ArtifactExt (.gob.gz). The metadata must carry Kind "ranker"
//     and the recommend.RankFeatures columns it consumes.
//   - {report}: a JSON classification report carrying f1_score or, failing
//     that, accuracy.
//
// A pickle or joblib file is accepted by Train, which only checks that the
// files exist, but promotion rejects it as promotion.ErrInvalidChallenger.
// Training pipelines that emit sklearn models need an export step that
// converts the fitted estimator to RankerState before exiting.
type TrainerConfig struct {
	// Command is the training executable.
	// Default: ezyml.
	Command string `koanf:"command"`

	// Args are the command arguments. {model} and {report} are replaced by
	// the challenger paths of the run. The default invokes ezyml with
	// --output {model}, so the installed ezyml must export the .gob.gz
	// format above.
	Args []string `koanf:"args"`

	// WorkDir is the working directory of the command. Empty uses the
	// process working directory.
	WorkDir string `koanf:"work_dir"`

	// Timeout bounds one training run.
	// Default: 30m.
	Timeout time.Duration `koanf:"timeout"`
}

// DefaultTrainerConfig returns the default training command.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		Command: "ezyml",
		Args: []string{
			"train",
			"--data", "data/processed/ranking_data.csv",
			"--target", "relevance_score",
			"--model", "extra_trees",
			"--output", PlaceholderModel,
			"--report", PlaceholderReport,
		},
		Timeout: 30 * time.Minute,
	}
}

// Validate checks the trainer configuration.
func (c *TrainerConfig) Validate() error {
	if strings.TrimSpace(c.Command) == "" {
		return errors.New("training command must be set")
	}
	if c.Timeout <= 0 {
		return errors.New("training timeout must be positive")
	}
	return nil
}

// CommandRunner runs an external command and returns its output.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements CommandRunner.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (stdout, stderr []byte, err error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // command comes from operator configuration
	cmd.Dir = dir
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	err = cmd.Run()
	return out.Bytes(), errOut.Bytes(), err
}

// Artifacts are the files produced by one successful training run.
type Artifacts struct {
	ModelPath  string        `json:"model_path"`
	ReportPath string        `json:"report_path"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// Trainer runs the training job into timestamped challenger paths.
// A failed run is never retried.
type Trainer struct {
	cfg      TrainerConfig
	registry *storage.Registry
	runner   CommandRunner
	logger   zerolog.Logger
	now      func() time.Time
}

// NewTrainer creates a trainer. A nil runner uses ExecRunner.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainer(cfg TrainerConfig, registry *storage.Registry, runner CommandRunner, logger zerolog.Logger) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		return nil, errors.New("model registry is required")
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Trainer{
		cfg:      cfg,
		registry: registry,
		runner:   runner,
		logger:   logger.With().Str("component", "trainer").Logger(),
		now:      time.Now,
	}, nil
}

// Train runs the training command once and verifies that both the model and
// its report were written.
func (t *Trainer) Train(ctx context.Context) (Artifacts, error) {
	started := t.now().UTC()
	modelPath, reportPath := t.registry.NewChallengerPaths(started)
	args := expandArgs(t.cfg.Args, modelPath, reportPath)

	runCtx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	t.logger.Info().
		Str("command", t.cfg.Command).
		Strs("args", args).
		Str("model_path", modelPath).
		Msg("starting training job")

	_, stderr, err := t.runner.Run(runCtx, t.cfg.WorkDir, t.cfg.Command, args...)
	duration := t.now().Sub(started)
	if err != nil {
		metrics.RecordRetrain("failed", duration)
		msg := tail(stderr, maxStderr)
		t.logger.Error().Err(err).Str("stderr", msg).Msg("training job failed")
		if msg != "" {
			return Artifacts{}, fmt.Errorf("%w: %w:\n%s", ErrTrainingFailed, err, msg)
		}
		return Artifacts{}, fmt.Errorf("%w: %w", ErrTrainingFailed, err)
	}

	for _, p := range []string{modelPath, reportPath} {
		if _, err := os.Stat(p); err != nil {
			metrics.RecordRetrain("artifact_missing", duration)
			t.logger.Error().Str("path", p).Msg("training job did not write artifact")
			return Artifacts{}, fmt.Errorf("%w: %s", ErrArtifactMissing, p)
		}
	}

	metrics.RecordRetrain("success", duration)
	t.logger.Info().
		Str("model_path", modelPath).
		Str("report_path", reportPath).
		Dur("duration", duration).
		Msg("training job complete")

	return Artifacts{
		ModelPath:  modelPath,
		ReportPath: reportPath,
		StartedAt:  started,
		Duration:   duration,
	}, nil
}

func expandArgs(args []string, modelPath, reportPath string) []string {
	out := make([]string, len(args))
	r := strings.NewReplacer(PlaceholderModel, modelPath, PlaceholderReport, reportPath)
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}

// tail returns at most n trailing bytes of b, trimmed.
func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return strings.TrimSpace(string(b))
}
