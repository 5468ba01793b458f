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

package mdxml

import (
	"encoding/xml"
	"fmt"

	"github.com/kraklabs/repomd/pkg/repoindex"
)

// Serialize turns one record into its three XML fragments. Each
// fragment is a standalone <package> element, ready to be appended as
// one atomic segment by a sink.
func Serialize(r *repoindex.Record) (primary, filelists, other []byte, err error) {
	primary, err = xml.MarshalIndent(toPrimaryPackage(r), "  ", "  ")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("mdxml: serialize primary: %w", err)
	}
	filelists, err = xml.MarshalIndent(toFilelistsPackage(r), "  ", "  ")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("mdxml: serialize filelists: %w", err)
	}
	other, err = xml.MarshalIndent(toOtherPackage(r), "  ", "  ")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("mdxml: serialize other: %w", err)
	}
	return primary, filelists, other, nil
}

func toPrimaryPackage(r *repoindex.Record) primaryPackage {
	return primaryPackage{
		Type: "rpm",
		Name: r.Name,
		Arch: r.Arch,
		Version: xmlVersion{
			Epoch:   r.Epoch,
			Version: r.Version,
			Release: r.Release,
		},
		Checksum: xmlChecksum{
			Type:  string(r.ChecksumType),
			PkgID: "YES",
			Value: r.Checksum,
		},
		Size: xmlSize{Package: r.SizePackage},
		Location: xmlLocation{
			Href: r.LocationHref,
			Base: r.LocationBase,
		},
		Time: xmlTime{File: r.TimeFile, Build: r.TimeBuild},
		Format: primaryFormat{
			Provides:    toEntryList(r.Provides),
			Requires:    toEntryList(r.Requires),
			Conflicts:   toEntryList(r.Conflicts),
			Obsoletes:   toEntryList(r.Obsoletes),
			Suggests:    toEntryList(r.Suggests),
			Enhances:    toEntryList(r.Enhances),
			Recommends:  toEntryList(r.Recommends),
			Supplements: toEntryList(r.Supplements),
			Files:       toFileList(r.Files, primaryFileFilter),
		},
	}
}

// primaryFileFilter keeps only directories and ghost entries in
// primary.xml's abbreviated file list, mirroring real repo metadata,
// where primary.xml lists only a handful of "important" paths and the
// full manifest lives in filelists.xml.
func primaryFileFilter(f repoindex.FileEntry) bool {
	return f.Type == repoindex.FileTypeDir || f.Type == repoindex.FileTypeGhost
}

func toFilelistsPackage(r *repoindex.Record) filelistsPackage {
	return filelistsPackage{
		PkgID: r.Checksum,
		Name:  r.Name,
		Arch:  r.Arch,
		Version: xmlVersion{
			Epoch:   r.Epoch,
			Version: r.Version,
			Release: r.Release,
		},
		Files: toFileList(r.Files, nil),
	}
}

func toOtherPackage(r *repoindex.Record) otherPackage {
	p := otherPackage{
		PkgID: r.Checksum,
		Name:  r.Name,
		Arch:  r.Arch,
		Version: xmlVersion{
			Epoch:   r.Epoch,
			Version: r.Version,
			Release: r.Release,
		},
	}
	for _, c := range r.Changelog {
		p.Changelog = append(p.Changelog, xmlChangelogEntry{
			Author: c.Author,
			Date:   c.Date.Unix(),
			Text:   c.Text,
		})
	}
	return p
}

func toEntryList(deps []repoindex.DepSpec) xmlEntryList {
	if len(deps) == 0 {
		return xmlEntryList{}
	}
	out := make([]xmlEntry, 0, len(deps))
	for _, d := range deps {
		e := xmlEntry{
			Name:    d.Name,
			Flag:    string(d.Flag),
			Epoch:   d.Epoch,
			Version: d.Version,
			Release: d.Release,
		}
		if d.Pre {
			e.Pre = "1"
		}
		out = append(out, e)
	}
	return xmlEntryList{Entries: out}
}

func toFileList(files []repoindex.FileEntry, keep func(repoindex.FileEntry) bool) []xmlFile {
	out := make([]xmlFile, 0, len(files))
	for _, f := range files {
		if keep != nil && !keep(f) {
			continue
		}
		xf := xmlFile{Path: f.Path}
		if f.Type != repoindex.FileTypeFile {
			xf.Type = string(f.Type)
		}
		out = append(out, xf)
	}
	return out
}
