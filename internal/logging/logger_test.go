// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.expected {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestInitWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Environment: "staging", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("title", "heat").Msg("resolved")

	out := buf.String()
	for _, want := range []string{`"service":"movie-recommender"`, `"env":"staging"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s, got %s", want, out)
		}
	}
	if !strings.Contains(out, `"message":"resolved"`) {
		t.Errorf("expected message field, got %s", out)
	}
	if !strings.Contains(out, `"title":"heat"`) {
		t.Errorf("expected title field, got %s", out)
	}
}

func TestCtxAddsIDs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := NewTestLogger(&buf)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCycleID(ctx, "cyc-1")
	Ctx(ctx, base).Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-1"`) {
		t.Errorf("missing request_id in %s", out)
	}
	if !strings.Contains(out, `"cycle_id":"cyc-1"`) {
		t.Errorf("missing cycle_id in %s", out)
	}
}

func TestGenerateIDs(t *testing.T) {
	t.Parallel()

	if got := len(GenerateCycleID()); got != 8 {
		t.Errorf("cycle ID length = %d, want 8", got)
	}
	if got := len(GenerateRequestID()); got != 36 {
		t.Errorf("request ID length = %d, want 36", got)
	}
	if GenerateRequestID() == GenerateRequestID() {
		t.Error("expected unique request IDs")
	}
}

func TestSlogHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandler(NewTestLogger(&buf)))

	logger.WithGroup("svc").With("name", "lifecycle").Warn("restarting",
		"attempt", 3, "err", errors.New("boom"))

	out := buf.String()
	for _, want := range []string{
		`"level":"warn"`,
		`"svc.name":"lifecycle"`,
		`"svc.attempt":3`,
		`"message":"restarting"`,
		`boom`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}
