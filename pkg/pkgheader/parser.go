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

// Package pkgheader supplies the parser collaborator: given a package
// archive's path, it yields a populated metadata record. Real
// package-header parsing (reading an RPM-style lead/signature/header
// section) is out of scope for the indexing engine; this package
// supplies the interface the engine depends on, plus a simplified
// concrete implementation that reads a small sidecar ".hdr.yaml" file
// next to each archive instead of a real binary header format, so the
// engine is runnable and testable end to end without vendoring a full
// RPM header library.
package pkgheader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/repomd/pkg/repoindex"
)

// Parser is the parse_package collaborator.
type Parser interface {
	// Parse reads the package at path and returns a populated Record.
	// checksumType selects the digest algorithm for the identity
	// checksum; href/base become the record's location fields;
	// changelogLimit caps the number of retained changelog entries
	// (oldest entries dropped beyond the limit).
	Parse(path string, checksumType repoindex.ChecksumType, href, base string, changelogLimit int) (*repoindex.Record, error)
}

// sidecarHeader is the on-disk shape of the simplified stand-in header
// format: <archive>.hdr.yaml next to <archive>.
type sidecarHeader struct {
	Name      string    `yaml:"name"`
	Epoch     string    `yaml:"epoch"`
	Version   string    `yaml:"version"`
	Release   string    `yaml:"release"`
	Arch      string    `yaml:"arch"`
	BuildTime int64     `yaml:"build_time"`
	Provides  []depYAML `yaml:"provides"`
	Requires  []depYAML `yaml:"requires"`
	Conflicts []depYAML `yaml:"conflicts"`
	Obsoletes []depYAML `yaml:"obsoletes"`
	Suggests  []depYAML `yaml:"suggests"`
	Enhances  []depYAML `yaml:"enhances"`
	Recommend []depYAML `yaml:"recommends"`
	Supplems  []depYAML `yaml:"supplements"`
	Files     []fileYAML
	Changelog []changeYAML
}

type depYAML struct {
	Name    string `yaml:"name"`
	Flag    string `yaml:"flag"`
	Epoch   string `yaml:"epoch"`
	Version string `yaml:"version"`
	Release string `yaml:"release"`
	Pre     bool   `yaml:"pre"`
}

type fileYAML struct {
	Path string `yaml:"path"`
	Type string `yaml:"type"`
}

type changeYAML struct {
	Author string `yaml:"author"`
	Date   int64  `yaml:"date"` // unix seconds
	Text   string `yaml:"text"`
}

// SimplifiedParser implements Parser by reading a YAML sidecar header.
type SimplifiedParser struct{}

// NewSimplifiedParser returns the default, corpus-free header parser.
func NewSimplifiedParser() *SimplifiedParser { return &SimplifiedParser{} }

func (p *SimplifiedParser) Parse(path string, checksumType repoindex.ChecksumType, href, base string, changelogLimit int) (*repoindex.Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	hdrPath := path + ".hdr.yaml"
	raw, err := os.ReadFile(hdrPath)
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", hdrPath, err)
	}
	var hdr sidecarHeader
	if err := yaml.Unmarshal(raw, &hdr); err != nil {
		return nil, fmt.Errorf("parse header %s: %w", hdrPath, err)
	}
	if hdr.Name == "" {
		hdr.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	sum, err := repoindex.ChecksumFile(path, checksumType)
	if err != nil {
		return nil, fmt.Errorf("checksum %s: %w", path, err)
	}

	rec := &repoindex.Record{
		Name:         hdr.Name,
		Epoch:        hdr.Epoch,
		Version:      hdr.Version,
		Release:      hdr.Release,
		Arch:         hdr.Arch,
		Checksum:     sum,
		ChecksumType: checksumType,
		SizePackage:  info.Size(),
		TimeFile:     info.ModTime().Unix(),
		TimeBuild:    hdr.BuildTime,
		LocationHref: href,
		LocationBase: base,
	}

	rec.Provides = toDeps(hdr.Provides)
	rec.Requires = toDeps(hdr.Requires)
	rec.Conflicts = toDeps(hdr.Conflicts)
	rec.Obsoletes = toDeps(hdr.Obsoletes)
	rec.Suggests = toDeps(hdr.Suggests)
	rec.Enhances = toDeps(hdr.Enhances)
	rec.Recommends = toDeps(hdr.Recommend)
	rec.Supplements = toDeps(hdr.Supplems)

	for _, f := range hdr.Files {
		rec.Files = append(rec.Files, repoindex.FileEntry{Path: f.Path, Type: repoindex.FileType(f.Type)})
	}

	changelog := hdr.Changelog
	if changelogLimit > 0 && len(changelog) > changelogLimit {
		changelog = changelog[:changelogLimit]
	}
	for _, c := range changelog {
		rec.Changelog = append(rec.Changelog, repoindex.ChangelogEntry{
			Author: c.Author,
			Date:   time.Unix(c.Date, 0).UTC(),
			Text:   c.Text,
		})
	}

	return rec, nil
}

func toDeps(in []depYAML) []repoindex.DepSpec {
	if len(in) == 0 {
		return nil
	}
	out := make([]repoindex.DepSpec, 0, len(in))
	for _, d := range in {
		out = append(out, repoindex.DepSpec{
			Name:    d.Name,
			Flag:    repoindex.DepFlag(d.Flag),
			Epoch:   d.Epoch,
			Version: d.Version,
			Release: d.Release,
			Pre:     d.Pre,
		})
	}
	return out
}
