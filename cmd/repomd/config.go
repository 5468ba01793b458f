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
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the shape of an optional .repomd.yaml: every field
// mirrors a CLI flag, used only to supply a default for flags the user
// did not pass explicitly.
type fileConfig struct {
	OutputDir         string   `yaml:"outputdir"`
	Workers           int      `yaml:"workers"`
	ChangelogLimit    int      `yaml:"changelog_limit"`
	Checksum          string   `yaml:"checksum"`
	UniqueMDFilenames bool     `yaml:"unique_md_filenames"`
	NoDatabase        bool     `yaml:"no_database"`
	GroupFile         string   `yaml:"groupfile"`
	Compression       string   `yaml:"compression"`
	Update            bool     `yaml:"update"`
	UpdateMDPaths     []string `yaml:"update_md_path"`
	SkipStat          bool     `yaml:"skip_stat"`
	SkipSymlinks      bool     `yaml:"skip_symlinks"`
	PkgList           string   `yaml:"pkglist"`
	Excludes          []string `yaml:"excludes"`
	LocationBase      string   `yaml:"location_base"`
	MetricsAddr       string   `yaml:"metrics_addr"`
	Watch             bool     `yaml:"watch"`
}

// loadFileConfig reads path, if it exists. A missing file is not an
// error: most runs have no .repomd.yaml at all.
func loadFileConfig(path string) (*fileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileConfig{}, nil
		}
		return nil, err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, err
	}
	return &fc, nil
}
