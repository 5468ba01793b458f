// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package repoindex

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kraklabs/repomd/pkg/mdxml"
	"github.com/kraklabs/repomd/pkg/pkgheader"
)

// Result summarizes one completed run, returned to cmd/repomd for
// logging and optional --json output.
type Result struct {
	PackagesWalked int64
	CacheHits      int64
	CacheMisses    int64
	Dropped        int64
}

// Run executes the full indexing pipeline: validate config, verify the
// input directory, claim the staging directory, walk the tree, fan
// tasks out across a worker pool into the sink trio, then finalize. A
// non-nil Metrics enables Prometheus instrumentation; callers that
// passed --metrics-addr are expected to have already started an HTTP
// server serving metrics.Registry().
func Run(ctx context.Context, cfg *Config, logger *slog.Logger, metrics *Metrics, onProgress ProgressFunc) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if info, err := os.Stat(cfg.InputDir); err != nil || !info.IsDir() {
		return nil, &UsageError{Msg: fmt.Sprintf("input directory %q does not exist", cfg.InputDir)}
	}

	stagingDir := filepath.Join(cfg.OutputDir, ".repodata")
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.Mkdir(stagingDir, 0o755); err != nil {
		if os.IsExist(err) {
			return nil, &StagingConflictError{Path: stagingDir}
		}
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	disarm := armSignalGuard(stagingDir, logger)
	defer disarm()

	var cache *ArtifactCache
	if cfg.Update {
		c, err := NewArtifactCache(mdxml.LoadRepomdMetadata, cfg.OutputDir, cfg.InputDir, cfg.UpdateMDPaths, logger)
		if err != nil {
			os.RemoveAll(stagingDir)
			return nil, fmt.Errorf("load artifact cache: %w", err)
		}
		cache = c
		logger.Info("cache.loaded", "entries", cache.Len())
	}

	walker := &Walker{
		Root:         cfg.InputDir,
		Excludes:     cfg.Excludes,
		SkipSymlinks: cfg.SkipSymlinks,
		PkgList:      cfg.PkgList,
		Logger:       logger,
	}

	// The walker must finish before the sinks can write their preamble,
	// which declares packages="N" up front, so its full output is
	// collected into memory first; the pool then drains a second,
	// fully-populated channel built from that collection.
	taskCh := make(chan Task, 256)
	var walkErr error
	var total int
	walkDone := make(chan struct{})
	go func() {
		defer close(walkDone)
		total, walkErr = walker.Walk(taskCh)
	}()
	tasks := make([]Task, 0, 1024)
	for t := range taskCh {
		tasks = append(tasks, t)
	}
	<-walkDone
	if walkErr != nil {
		os.RemoveAll(stagingDir)
		return nil, fmt.Errorf("walk input directory: %w", walkErr)
	}

	sinks, err := OpenSinks(stagingDir, total, !cfg.NoDatabase)
	if err != nil {
		os.RemoveAll(stagingDir)
		return nil, fmt.Errorf("open sinks: %w", err)
	}

	pool := &Pool{
		Workers:         cfg.Workers,
		Parser:          pkgheader.NewSimplifiedParser(),
		Cache:           cache,
		Sinks:           sinks,
		ChecksumType:    cfg.ChecksumType,
		ChangelogLimit:  cfg.ChangelogLimit,
		LocationBase:    cfg.LocationBase,
		TrustTimestamps: cfg.SkipStat,
		Logger:          logger,
		OnProgress:      onProgress,
		Metrics:         metrics,
	}

	poolCh := make(chan Task, len(tasks))
	for _, t := range tasks {
		poolCh <- t
	}
	close(poolCh)

	stats := pool.Run(ctx, poolCh, int64(total))

	if err := sinks.Close(); err != nil {
		os.RemoveAll(stagingDir)
		return nil, fmt.Errorf("close sinks: %w", err)
	}

	if err := Finalize(cfg, stagingDir, logger, metrics); err != nil {
		return nil, err
	}

	return &Result{
		PackagesWalked: stats.Walked,
		CacheHits:      stats.CacheHits,
		CacheMisses:    stats.CacheMisses,
		Dropped:        stats.Dropped,
	}, nil
}
