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
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// stagingGuard tracks the one staging directory a process may currently
// own, so an interrupt can remove it instead of leaving an orphaned
// staging directory that would permanently block future runs (it also
// serves as the cross-process lock). A process only ever runs one
// orchestration at a time, so a single package-level cell is
// sufficient; an empty path means nothing is currently staged.
var (
	stagingGuardMu   sync.Mutex
	stagingGuardPath string
)

// armSignalGuard registers path as the staging directory to remove on
// SIGINT/SIGTERM and returns a function that disarms the guard. Callers
// must invoke the returned function once the staging directory has been
// renamed away or removed through the normal path, or the guard may
// race a legitimate second use of the same path.
func armSignalGuard(path string, logger *slog.Logger) (disarm func()) {
	stagingGuardMu.Lock()
	stagingGuardPath = path
	stagingGuardMu.Unlock()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			stagingGuardMu.Lock()
			p := stagingGuardPath
			stagingGuardMu.Unlock()
			if p != "" {
				if logger != nil {
					logger.Warn("signal.interrupt.cleanup", "staging_dir", p)
				}
				os.RemoveAll(p)
			}
			os.Exit(130)
		case <-done:
		}
	}()

	return func() {
		close(done)
		signal.Stop(sigCh)
		stagingGuardMu.Lock()
		stagingGuardPath = ""
		stagingGuardMu.Unlock()
	}
}
