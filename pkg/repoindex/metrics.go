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
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the Prometheus collector set for one run, exposed over
// --metrics-addr for the run's lifetime: cheap counters on the hot path,
// plus two histograms, one for per-task duration and one for the
// finalize sequence.
type Metrics struct {
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
	Dropped       prometheus.Counter
	TaskDuration  prometheus.Histogram
	FinalizeTime  prometheus.Histogram
	registry      *prometheus.Registry
}

// NewMetrics builds a fresh registry and collector set.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "repomd",
			Name:      "cache_hits_total",
			Help:      "Packages resolved from the artifact cache instead of a fresh header parse.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "repomd",
			Name:      "cache_misses_total",
			Help:      "Packages that required a fresh header parse.",
		}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "repomd",
			Name:      "packages_dropped_total",
			Help:      "Packages dropped due to a parse, stat, or sink-write error.",
		}),
		TaskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "repomd",
			Name:      "worker_task_duration_seconds",
			Help:      "Time spent resolving and writing a single package task.",
			Buckets:   prometheus.DefBuckets,
		}),
		FinalizeTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "repomd",
			Name:      "finalize_duration_seconds",
			Help:      "Time spent in the finalize sequence that publishes staged metadata.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.CacheHits, m.CacheMisses, m.Dropped, m.TaskDuration, m.FinalizeTime)
	return m
}

// Registry exposes the underlying registry so cmd/repomd can serve it
// via promhttp.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveCacheHit()  { m.CacheHits.Inc() }
func (m *Metrics) ObserveCacheMiss() { m.CacheMisses.Inc() }
func (m *Metrics) ObserveDrop()      { m.Dropped.Inc() }
