// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

/*
Package supervisor provides process supervision using suture v4.

The tree isolates request serving from the model lifecycle:

	RootSupervisor ("movie-recommender")
	├── ServingSupervisor ("serving-layer")
	│   ├── HTTPServerService
	│   ├── MetricsWindowService
	│   └── ChampionWatcherService (if WATCH_CHAMPION)
	└── LifecycleSupervisor ("lifecycle-layer")
	    └── LifecycleService (if RETRAIN_ENABLED)

Crashed services restart with suture's backoff. A failing training cycle
never restarts the HTTP server.

Supervisor events are logged through sutureslog, bridged to zerolog with
logging.NewSlogLogger.

Basic setup:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddServingService(services.NewHTTPServerService(srv, 10*time.Second, logger))
	tree.AddLifecycleService(lifecycleSvc)
	return tree.Serve(ctx)

See the services subpackage for the service wrappers.
*/
package supervisor
