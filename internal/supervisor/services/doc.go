// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

/*
Package services provides suture.Service wrappers for the recommender's
long-running components.

Each wrapper implements suture's Service interface and fmt.Stringer:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTPServerService:
  - Runs *http.Server, drains connections on shutdown

MetricsWindowService:
  - Calls Aggregator.Tick periodically so an idle server still closes its window
  - Writes a final snapshot on shutdown

ChampionWatcherService:
  - Watches the champion directory with fsnotify
  - Reloads the scoring model when the champion file is replaced, unloads it
    when the file is removed

LifecycleService:
  - Runs evaluate/retrain/promote cycles on a cron schedule (robfig/cron
    parser); optionally once at startup
  - Failed cycles are logged and retried at the next scheduled time
*/
package services
