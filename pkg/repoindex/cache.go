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
)

// metadataLoader abstracts the repodata XML reader so cache tests don't
// need real XML fixtures on disk; mdxml.LoadRepomdMetadata satisfies it.
type metadataLoader func(dir string) (map[string]*Record, error)

// ArtifactCache holds package records recovered from a prior run's
// published metadata, keyed by archive filename. A Lookup hit lets the
// worker pool skip a full header parse for an unchanged file.
type ArtifactCache struct {
	byFilename map[string]*Record
	logger     *slog.Logger
}

// NewArtifactCache loads prior metadata for an --update run. Sources are
// applied in order output-dir, input-dir, then any auxiliary
// --update-md-path directories; a later source overwrites an earlier
// one's entry for the same filename. This precedence is deliberate:
// "last source wins, output checked first" keeps the most recently
// published metadata authoritative while still letting
// --update-md-path layer in additional, reusable metadata.
func NewArtifactCache(load metadataLoader, outputDir, inputDir string, auxPaths []string, logger *slog.Logger) (*ArtifactCache, error) {
	c := &ArtifactCache{byFilename: map[string]*Record{}, logger: logger}

	sources := append([]string{outputDir, inputDir}, auxPaths...)
	for _, dir := range sources {
		if dir == "" {
			continue
		}
		m, err := load(dir)
		if err != nil {
			if logger != nil {
				logger.Warn("cache.load.error", "dir", dir, "err", err)
			}
			continue
		}
		for filename, rec := range m {
			rec.MarkFromCache()
			c.byFilename[filename] = rec
		}
	}
	return c, nil
}

// Lookup returns the cached record for task, if one validates against
// the file currently on disk, and whether it was found. trustTimestamps
// skips the stat+checksum-type comparison entirely and accepts any
// cached entry by filename alone ("trust timestamps" mode); otherwise
// the entry is only reused when its stored size, modification time,
// and checksum algorithm all still match the file on disk.
func (c *ArtifactCache) Lookup(task Task, checksumType ChecksumType, trustTimestamps bool) (*Record, bool) {
	if c == nil {
		return nil, false
	}
	rec, ok := c.byFilename[task.Filename]
	if !ok {
		return nil, false
	}
	if trustTimestamps {
		return rec, true
	}
	if rec.ChecksumType != checksumType {
		return nil, false
	}
	info, err := os.Stat(task.FullPath)
	if err != nil {
		return nil, false
	}
	if info.Size() != rec.SizePackage || info.ModTime().Unix() != rec.TimeFile {
		return nil, false
	}
	return rec, true
}

// Len reports how many entries the cache currently holds.
func (c *ArtifactCache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byFilename)
}
