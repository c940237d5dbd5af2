// Movie Recommender MLOps - Hybrid Recommendation Serving and Model Lifecycle
// Copyright 2026 Rktim
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Rktim/movie-recommender-mlops

// Package storage persists scoring models, the movie catalog and evaluation
// reports.
//
// # Artifact Format
//
// Models and catalogs are stored as framed gob artifacts:
//
//	filename: ranker.gob.gz, ranker_<YYYYmmdd_HHMMSS>.gob.gz, catalog.gob.gz
//
//	structure:
//	  - Metadata (ArtifactMetadata, including a SHA-256 payload checksum)
//	  - CompressedData (gzip-compressed gob-encoded state)
//
// A checksum mismatch on read returns ErrChecksumMismatch.
//
// # Registry Layout
//
//	<champion_dir>/ranker.gob.gz               serving model
//	<champion_dir>/ranker_backup.gob.gz        previous champion
//	<challenger_dir>/ranker_<ts>.gob.gz        trained, not yet promoted
//	<reports_dir>/champion_report.json         serving model's report
//	<reports_dir>/champion_report_backup.json  previous champion's report
//	<reports_dir>/ranker_<ts>.json             challenger reports
//
// # Reports
//
// A report's score is its "f1_score" metric, or "accuracy" when f1 is
// absent. Metrics may sit under a "metrics" object or at the top level.
//
// All writes go through github.com/google/renameio so a reader never sees a
// partially written file.
package storage
