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
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kraklabs/repomd/pkg/pkgheader"
)

// ProgressFunc is called after each task finishes, successfully or not,
// so a caller can drive a progress bar.
type ProgressFunc func(done, total int64)

// PoolStats accumulates the counters the orchestrator reports at the end
// of a run and the metrics collector exports during one. Fields are only
// mutated through atomic ops while a Pool.Run is in flight.
type PoolStats struct {
	Walked      int64
	CacheHits   int64
	CacheMisses int64
	Dropped     int64
}

// Pool runs a bounded set of workers that drain a Task channel, resolve
// each task into a Record (from cache or from a fresh header parse), and
// write it to the sink trio: a job channel, N workers, atomic progress
// counters, no per-task result channel because each worker commits its
// own record directly instead of returning it for a caller to collect.
type Pool struct {
	Workers         int
	Parser          pkgheader.Parser
	Cache           *ArtifactCache
	Sinks           *SinkTrio
	ChecksumType    ChecksumType
	ChangelogLimit  int
	LocationBase    string
	TrustTimestamps bool
	Logger          *slog.Logger
	OnProgress      ProgressFunc
	Metrics         *Metrics
}

// Run drains taskCh until it is closed, fanning tasks out across
// p.Workers goroutines. total is used only for progress reporting. It
// returns aggregated stats; a per-task parse or write failure is logged
// and counted as dropped, never aborts the run.
func (p *Pool) Run(ctx context.Context, taskCh <-chan Task, total int64) PoolStats {
	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}

	var stats PoolStats
	var done int64

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskCh {
				select {
				case <-ctx.Done():
					return
				default:
				}

				p.handleTask(task, &stats)

				cur := atomic.AddInt64(&done, 1)
				if p.OnProgress != nil {
					p.OnProgress(cur, total)
				}
			}
		}()
	}
	wg.Wait()

	return stats
}

// handleTask resolves one task into a Record and writes it, using the
// cache when possible. It is called concurrently by every worker
// goroutine, so all stats mutation goes through atomic.AddInt64.
func (p *Pool) handleTask(task Task, stats *PoolStats) {
	start := time.Now()
	defer func() {
		if p.Metrics != nil {
			p.Metrics.TaskDuration.Observe(time.Since(start).Seconds())
		}
	}()

	atomic.AddInt64(&stats.Walked, 1)

	href := task.Filename
	if task.RelDir != "" && task.RelDir != "." {
		href = filepath.ToSlash(filepath.Join(task.RelDir, task.Filename))
	}

	if cached, ok := p.Cache.Lookup(task, p.ChecksumType, p.TrustTimestamps); ok {
		atomic.AddInt64(&stats.CacheHits, 1)
		// The cache owns cached and may hand the same *Record to another
		// task sharing its filename; copy before overwriting the
		// location fields so the cached entry itself is never mutated.
		rec := *cached
		rec.LocationHref = href
		rec.LocationBase = p.LocationBase
		if err := p.Sinks.Write(&rec); err != nil {
			p.logDrop(task, err, stats)
			return
		}
		if p.Metrics != nil {
			p.Metrics.ObserveCacheHit()
		}
		return
	}
	atomic.AddInt64(&stats.CacheMisses, 1)

	rec, err := p.Parser.Parse(task.FullPath, p.ChecksumType, href, p.LocationBase, p.ChangelogLimit)
	if err != nil {
		p.logDrop(task, &PerPackageParseError{Filename: task.Filename, Err: err}, stats)
		return
	}

	if err := p.Sinks.Write(rec); err != nil {
		p.logDrop(task, err, stats)
		return
	}
	if p.Metrics != nil {
		p.Metrics.ObserveCacheMiss()
	}
}

func (p *Pool) logDrop(task Task, err error, stats *PoolStats) {
	atomic.AddInt64(&stats.Dropped, 1)
	if p.Metrics != nil {
		p.Metrics.ObserveDrop()
	}
	if p.Logger != nil {
		p.Logger.Warn("pool.task.dropped", "file", task.Filename, "err", err)
	}
}
