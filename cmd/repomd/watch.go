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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kraklabs/repomd/internal/ui"
	"github.com/kraklabs/repomd/pkg/repoindex"
)

// watchSkipDirs names directories the watcher never descends into: its
// own published output and staging directory, plus the usual VCS noise.
var watchSkipDirs = map[string]bool{
	".git": true, ".repodata": true, "repodata": true,
}

const watchDebounce = 2 * time.Second

// runWatch re-runs the indexer each time the input tree changes,
// coalescing bursts of events into a single debounced run.
func runWatch(cfg *repoindex.Config, logger *slog.Logger, metrics *repoindex.Metrics) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	added, skipped := addWatchDirs(watcher, cfg.InputDir)
	ui.Infof("watching %d directories (%d skipped)", added, skipped)

	runOnce := func() {
		ui.Info("change detected, reindexing...")
		result, err := repoindex.Run(context.Background(), cfg, logger, metrics, nil)
		if err != nil {
			ui.Errorln(err.Error())
			return
		}
		ui.Successf("reindexed: %d walked, %d cache hits, %d dropped",
			result.PackagesWalked, result.CacheHits, result.Dropped)
	}

	runOnce()

	var debounce *time.Timer
	var timerCh <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if isWatchNoise(event.Name) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(watchDebounce)
			timerCh = debounce.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch.fsnotify.error", "err", err)
		case <-timerCh:
			timerCh = nil
			runOnce()
		}
	}
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) (added, skipped int) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if watchSkipDirs[base] || (strings.HasPrefix(base, ".") && base != filepath.Base(root)) {
			skipped++
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			if os.IsPermission(err) {
				return filepath.SkipDir
			}
			return nil
		}
		added++
		return nil
	})
	return added, skipped
}

func isWatchNoise(path string) bool {
	for dir := range watchSkipDirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasSuffix(path, string(filepath.Separator)+dir) {
			return true
		}
	}
	return false
}
