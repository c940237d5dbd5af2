// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rktim/movie-recommender-mlops/internal/recommend/lifecycle"
)

type fakeCycleRunner struct {
	err   error
	calls chan bool
}

func newFakeCycleRunner(err error) *fakeCycleRunner {
	return &fakeCycleRunner{err: err, calls: make(chan bool, 64)}
}

func (f *fakeCycleRunner) RunCycle(_ context.Context, force bool) (*lifecycle.CycleResult, error) {
	f.calls <- force
	if f.err != nil {
		return nil, f.err
	}
	return &lifecycle.CycleResult{CycleID: "c1", Outcome: lifecycle.OutcomeHealthy}, nil
}

func (f *fakeCycleRunner) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case force := <-f.calls:
			if force {
				t.Error("scheduled cycles must not be forced")
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("got %d cycles, want %d", i, n)
		}
	}
}

// everySchedule fires at a fixed delay, below cron's one second resolution.
type everySchedule time.Duration

func (e everySchedule) Next(t time.Time) time.Time { return t.Add(time.Duration(e)) }

func TestNewLifecycleService_Schedule(t *testing.T) {
	t.Parallel()

	for _, spec := range []string{"0 3 * * *", "@daily", "@every 6h"} {
		if _, err := NewLifecycleService(newFakeCycleRunner(nil), LifecycleServiceConfig{Schedule: spec}, zerolog.Nop()); err != nil {
			t.Errorf("schedule %q: error = %v", spec, err)
		}
	}
	if _, err := NewLifecycleService(newFakeCycleRunner(nil), LifecycleServiceConfig{Schedule: "sometimes"}, zerolog.Nop()); err == nil {
		t.Error("invalid schedule accepted")
	}
}

func TestLifecycleService_RunOnStartup(t *testing.T) {
	t.Parallel()

	runner := newFakeCycleRunner(nil)
	svc, err := NewLifecycleService(runner, LifecycleServiceConfig{Schedule: "@daily", RunOnStartup: true}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	runner.wait(t, 1)
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	if n := len(runner.calls); n != 0 {
		t.Errorf("%d extra cycles ran before the daily schedule", n)
	}
}

func TestLifecycleService_Scheduled(t *testing.T) {
	t.Parallel()

	for _, runErr := range []error{nil, lifecycle.ErrCycleInProgress, errors.New("snapshot unreadable")} {
		runner := newFakeCycleRunner(runErr)
		svc, err := NewLifecycleService(runner, LifecycleServiceConfig{Schedule: "@daily"}, zerolog.Nop())
		if err != nil {
			t.Fatal(err)
		}
		svc.schedule = everySchedule(10 * time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		// Failing cycles do not stop the loop.
		runner.wait(t, 3)
		cancel()
		<-errCh
	}
}

func TestLifecycleService_String(t *testing.T) {
	t.Parallel()

	svc, _ := NewLifecycleService(newFakeCycleRunner(nil), LifecycleServiceConfig{Schedule: "@hourly"}, zerolog.Nop())
	if svc.String() != "lifecycle-service" {
		t.Errorf("String() = %q", svc.String())
	}
}
