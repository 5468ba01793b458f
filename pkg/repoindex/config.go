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
	"fmt"
	"runtime"

	"github.com/kraklabs/repomd/pkg/compress"
)

// Config collects every option the orchestrator needs for one run. It is
// the merge of CLI flags and an optional .repomd.yaml file; callers
// (cmd/repomd) are responsible for producing one fully-resolved Config.
type Config struct {
	InputDir  string
	OutputDir string // defaults to InputDir when empty

	Workers        int
	ChangelogLimit int
	ChecksumType   ChecksumType

	UniqueMDFilenames bool
	NoDatabase        bool
	GroupFile         string
	Compression       compress.Algo

	Update        bool
	UpdateMDPaths []string

	SkipStat     bool
	SkipSymlinks bool

	PkgList  string   // explicit-list mode: path to a file of repo-relative paths
	Excludes []string // glob patterns, matched against repo-relative path

	LocationBase string

	// MetricsAddr, when non-empty, exposes Prometheus metrics over HTTP
	// for the duration of the run.
	MetricsAddr string
}

// Validate checks the combination of options for internal consistency and
// applies defaults. It does not touch the filesystem; the orchestrator is
// responsible for existence checks.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return &UsageError{Msg: "input directory is required"}
	}
	if c.OutputDir == "" {
		c.OutputDir = c.InputDir
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.ChangelogLimit < 0 {
		return &UsageError{Msg: "changelog-limit must be >= 0"}
	}
	switch c.ChecksumType {
	case "":
		c.ChecksumType = ChecksumSHA256
	case ChecksumMD5, ChecksumSHA1, ChecksumSHA256, ChecksumSHA512:
	default:
		return &UsageError{Msg: fmt.Sprintf("unsupported checksum type %q", c.ChecksumType)}
	}
	switch c.Compression {
	case "":
		c.Compression = compress.Gzip
	case compress.Gzip, compress.Bzip2, compress.XZ:
	default:
		return &UsageError{Msg: fmt.Sprintf("unsupported compression %q", c.Compression)}
	}
	if c.PkgList != "" && len(c.Excludes) > 0 {
		// Exclude filters still apply in explicit-list mode; nothing to
		// reject here, kept as a documented non-error branch.
		_ = c.PkgList
	}
	return nil
}
