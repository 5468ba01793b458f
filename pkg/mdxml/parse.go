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
	"io"
	"path/filepath"
	"time"

	"github.com/kraklabs/repomd/pkg/repoindex"
)

type primaryDoc struct {
	Packages []primaryPackage `xml:"package"`
}

type filelistsDoc struct {
	Packages []filelistsPackage `xml:"package"`
}

type otherDoc struct {
	Packages []otherPackage `xml:"package"`
}

// ParsePrimary reads an existing primary.xml document and returns one
// partial Record per <package>, keyed by the archive's basename
// (filepath.Base(LocationHref)). Records returned here carry only the
// fields primary.xml stores; LoadRepomdMetadata merges in filelists and
// other before handing records to the cache.
func ParsePrimary(r io.Reader) (map[string]*repoindex.Record, error) {
	var doc primaryDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("mdxml: parse primary.xml: %w", err)
	}
	out := make(map[string]*repoindex.Record, len(doc.Packages))
	for _, p := range doc.Packages {
		rec := &repoindex.Record{
			Name:         p.Name,
			Epoch:        p.Version.Epoch,
			Version:      p.Version.Version,
			Release:      p.Version.Release,
			Arch:         p.Arch,
			Checksum:     p.Checksum.Value,
			ChecksumType: repoindex.ChecksumType(p.Checksum.Type),
			SizePackage:  p.Size.Package,
			TimeFile:     p.Time.File,
			TimeBuild:    p.Time.Build,
			LocationHref: p.Location.Href,
			LocationBase: p.Location.Base,
		}
		rec.Provides = fromEntryList(p.Format.Provides)
		rec.Requires = fromEntryList(p.Format.Requires)
		rec.Conflicts = fromEntryList(p.Format.Conflicts)
		rec.Obsoletes = fromEntryList(p.Format.Obsoletes)
		rec.Suggests = fromEntryList(p.Format.Suggests)
		rec.Enhances = fromEntryList(p.Format.Enhances)
		rec.Recommends = fromEntryList(p.Format.Recommends)
		rec.Supplements = fromEntryList(p.Format.Supplements)
		for _, f := range p.Format.Files {
			rec.Files = append(rec.Files, repoindex.FileEntry{Path: f.Path, Type: fileTypeOf(f.Type)})
		}
		out[filepath.Base(p.Location.Href)] = rec
	}
	return out, nil
}

// ParseFilelists reads an existing filelists.xml document, merging its
// full per-package file lists into the records map (keyed by pkgid,
// i.e. checksum, matching filelists.xml's own key).
func ParseFilelists(r io.Reader, byChecksum map[string]*repoindex.Record) error {
	var doc filelistsDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("mdxml: parse filelists.xml: %w", err)
	}
	for _, p := range doc.Packages {
		rec, ok := byChecksum[p.PkgID]
		if !ok {
			continue
		}
		rec.Files = nil
		for _, f := range p.Files {
			rec.Files = append(rec.Files, repoindex.FileEntry{Path: f.Path, Type: fileTypeOf(f.Type)})
		}
	}
	return nil
}

// ParseOther reads an existing other.xml document, merging changelog
// entries into the records map (keyed by pkgid).
func ParseOther(r io.Reader, byChecksum map[string]*repoindex.Record) error {
	var doc otherDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("mdxml: parse other.xml: %w", err)
	}
	for _, p := range doc.Packages {
		rec, ok := byChecksum[p.PkgID]
		if !ok {
			continue
		}
		for _, c := range p.Changelog {
			rec.Changelog = append(rec.Changelog, repoindex.ChangelogEntry{
				Author: c.Author,
				Date:   time.Unix(c.Date, 0).UTC(),
				Text:   c.Text,
			})
		}
	}
	return nil
}

func fromEntryList(l xmlEntryList) []repoindex.DepSpec {
	if len(l.Entries) == 0 {
		return nil
	}
	out := make([]repoindex.DepSpec, 0, len(l.Entries))
	for _, e := range l.Entries {
		out = append(out, repoindex.DepSpec{
			Name:    e.Name,
			Flag:    repoindex.DepFlag(e.Flag),
			Epoch:   e.Epoch,
			Version: e.Version,
			Release: e.Release,
			Pre:     e.Pre == "1",
		})
	}
	return out
}

func fileTypeOf(attr string) repoindex.FileType {
	if attr == "" {
		return repoindex.FileTypeFile
	}
	return repoindex.FileType(attr)
}
