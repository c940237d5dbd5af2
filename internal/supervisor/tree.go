// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	// Default: 5
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay in seconds.
	// Default: 30
	FailureDecay float64

	// FailureBackoff is the duration to wait when threshold is exceeded.
	// Default: 15s
	FailureBackoff time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// It must exceed the HTTP drain timeout and the final metrics flush.
	// Default: 10s
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's documented defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// SupervisorTree manages the supervisor hierarchy of the service.
//
// The tree has two layers:
//   - serving: HTTP server, metrics window, champion watcher
//   - lifecycle: scheduled evaluate/retrain/promote cycles
//
// A crashing training cycle restarts inside the lifecycle layer and never
// interrupts request serving.
type SupervisorTree struct {
	root      *suture.Supervisor
	serving   *suture.Supervisor
	lifecycle *suture.Supervisor
	logger    *slog.Logger
	config    TreeConfig
}

// NewSupervisorTree creates a new supervisor tree with the given configuration.
// Zero config fields take their defaults.
//
// Each layer is its own suture.Supervisor under the root with the same
// restart policy, so a lifecycle service that exhausts its failure
// threshold backs off without stopping the serving layer. Services are
// added afterwards with AddServingService and AddLifecycleService. Nothing
// runs until Serve or ServeBackground is called.
//
// Example usage:
//
//	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
//	if err != nil {
//	    return err
//	}
//	tree.AddServingService(services.NewHTTPServerService(server, 10*time.Second, logger))
//	tree.AddLifecycleService(lifecycleSvc)
//	errCh := tree.ServeBackground(ctx)
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	defaults := DefaultTreeConfig()
	if config.FailureThreshold == 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = defaults.FailureDecay
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = defaults.FailureBackoff
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}

	// MustHook has a pointer receiver.
	handler := &sutureslog.Handler{Logger: logger}

	rootSpec := suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	// Children inherit the EventHook when added to the root.
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New("movie-recommender", rootSpec)
	serving := suture.New("serving-layer", childSpec)
	lifecycle := suture.New("lifecycle-layer", childSpec)

	root.Add(serving)
	root.Add(lifecycle)

	return &SupervisorTree{
		root:      root,
		serving:   serving,
		lifecycle: lifecycle,
		logger:    logger,
		config:    config,
	}, nil
}

// Root returns the root supervisor.
func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

// AddServingService adds a service to the serving layer.
func (t *SupervisorTree) AddServingService(svc suture.Service) suture.ServiceToken {
	return t.serving.Add(svc)
}

// AddLifecycleService adds a service to the lifecycle layer.
func (t *SupervisorTree) AddLifecycleService(svc suture.Service) suture.ServiceToken {
	return t.lifecycle.Add(svc)
}

// RemoveLifecycleService stops and removes a lifecycle service.
func (t *SupervisorTree) RemoveLifecycleService(token suture.ServiceToken) error {
	return t.lifecycle.Remove(token)
}

// Serve starts the tree and blocks until the context is canceled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground starts the tree in a background goroutine.
// The returned channel receives the error (or nil) when the tree stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that failed to stop within the
// shutdown timeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
