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
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/karrick/godirwalk"
)

// archiveSuffix is the package-archive extension the walker selects on.
// A real deployment would make this pluggable per package format; this
// indexer targets RPM-style archives.
const archiveSuffix = ".rpm"

// Walker enumerates candidate package files, either by a filesystem walk
// (recursive mode) or an explicit include-list (explicit-list mode).
type Walker struct {
	Root         string
	Excludes     []string
	SkipSymlinks bool
	PkgList      string // non-empty switches to explicit-list mode
	Logger       *slog.Logger
}

// Walk emits one Task per selected package file on taskCh and returns the
// total count once the walk completes. taskCh is closed by Walk before
// returning. The sink preamble needs this count before any worker writes,
// so the walker always runs to completion first.
func (w *Walker) Walk(taskCh chan<- Task) (int, error) {
	defer close(taskCh)
	if w.PkgList != "" {
		return w.walkExplicitList(taskCh)
	}
	return w.walkRecursive(taskCh)
}

func (w *Walker) walkRecursive(taskCh chan<- Task) (int, error) {
	n := 0
	err := godirwalk.Walk(w.Root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path == w.Root {
				return nil
			}
			isSymlink := de.IsSymlink()
			if isSymlink && w.SkipSymlinks {
				if de.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if de.IsDir() {
				return nil
			}
			if !strings.HasSuffix(de.Name(), archiveSuffix) {
				return nil
			}
			rel, err := filepath.Rel(w.Root, path)
			if err != nil {
				return nil //nolint:nilerr // unreachable for an in-tree path, defensive only
			}
			if w.isExcluded(rel) {
				return nil
			}
			taskCh <- Task{
				FullPath: path,
				Filename: de.Name(),
				RelDir:   filepath.Dir(rel),
			}
			n++
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			if w.Logger != nil {
				w.Logger.Warn("walk.error", "path", path, "err", err)
			}
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return n, fmt.Errorf("walk %s: %w", w.Root, err)
	}
	return n, nil
}

// walkExplicitList reads repo-relative paths from w.PkgList, one per
// non-blank line (lines starting with "#" are comments and skipped),
// and emits a Task for each that passes the exclude
// filter. No filesystem traversal is performed for selection; the
// files are only required to exist once a worker opens them.
func (w *Walker) walkExplicitList(taskCh chan<- Task) (int, error) {
	f, err := os.Open(w.PkgList)
	if err != nil {
		return 0, fmt.Errorf("open pkglist %s: %w", w.PkgList, err)
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		rel := strings.TrimSpace(scanner.Text())
		if rel == "" || strings.HasPrefix(rel, "#") {
			continue
		}
		if w.isExcluded(rel) {
			continue
		}
		taskCh <- Task{
			FullPath: filepath.Join(w.Root, rel),
			Filename: filepath.Base(rel),
			RelDir:   filepath.Dir(rel),
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("read pkglist %s: %w", w.PkgList, err)
	}
	return n, nil
}

func (w *Walker) isExcluded(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, pattern := range w.Excludes {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}
