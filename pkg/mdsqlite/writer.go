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

package mdsqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/kraklabs/repomd/pkg/repoindex"
)

// Writer batches one record at a time into the three document
// databases, mirroring the way mdxml.Serialize produces three fragments
// from one record. repoindex's SinkTrio shares one Writer across its
// three sinks and calls each Insert* method only while holding that
// document's own mutex.
//
// pkgKey is supplied by the caller rather than generated here: the three
// Insert* methods are called under three independent mutexes (one per
// sink), so a counter owned by the Writer itself could be bumped by
// another record's InsertPrimary between this record's InsertPrimary and
// its InsertFilelists/InsertOther, joining the wrong rows together. The
// caller must assign one pkgKey per record and pass the same value to
// all three calls.
type Writer struct {
	primary   *sql.DB
	filelists *sql.DB
	other     *sql.DB
}

// NewWriter wraps three already-schema'd databases.
func NewWriter(primary, filelists, other *sql.DB) *Writer {
	return &Writer{primary: primary, filelists: filelists, other: other}
}

// InsertPrimary writes one record's row (and its dependency/file child
// rows) into primary.sqlite under the given pkgKey.
func (w *Writer) InsertPrimary(r *repoindex.Record, pkgKey int64) error {
	_, err := w.primary.Exec(
		`INSERT INTO packages (pkgKey, pkgId, name, arch, version, epoch, release,
			checksum_type, summary, description, packager, size_package,
			time_file, time_build, location_href, location_base)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pkgKey, r.Checksum, r.Name, r.Arch, r.Version, r.Epoch, r.Release,
		string(r.ChecksumType), "", "", "", r.SizePackage,
		r.TimeFile, r.TimeBuild, r.LocationHref, r.LocationBase,
	)
	if err != nil {
		return fmt.Errorf("mdsqlite: insert package row: %w", err)
	}

	for table, deps := range map[string][]repoindex.DepSpec{
		"provides":  r.Provides,
		"conflicts": r.Conflicts,
		"obsoletes": r.Obsoletes,
		"suggests":  r.Suggests,
		"enhances":  r.Enhances,
		"recommends": r.Recommends,
		"supplements": r.Supplements,
	} {
		if err := w.insertDeps(table, pkgKey, deps, false); err != nil {
			return err
		}
	}
	if err := w.insertDeps("requires", pkgKey, r.Requires, true); err != nil {
		return err
	}

	for _, f := range r.Files {
		if _, err := w.primary.Exec(
			`INSERT INTO files (pkgKey, name, type) VALUES (?, ?, ?)`,
			pkgKey, f.Path, string(f.Type),
		); err != nil {
			return fmt.Errorf("mdsqlite: insert file row: %w", err)
		}
	}

	return nil
}

func (w *Writer) insertDeps(table string, pkgKey int64, deps []repoindex.DepSpec, withPre bool) error {
	for _, d := range deps {
		var err error
		if withPre {
			pre := "FALSE"
			if d.Pre {
				pre = "TRUE"
			}
			_, err = w.primary.Exec(
				fmt.Sprintf(`INSERT INTO %s (pkgKey, name, flags, epoch, version, release, pre) VALUES (?, ?, ?, ?, ?, ?, ?)`, table),
				pkgKey, d.Name, string(d.Flag), d.Epoch, d.Version, d.Release, pre,
			)
		} else {
			_, err = w.primary.Exec(
				fmt.Sprintf(`INSERT INTO %s (pkgKey, name, flags, epoch, version, release) VALUES (?, ?, ?, ?, ?, ?)`, table),
				pkgKey, d.Name, string(d.Flag), d.Epoch, d.Version, d.Release,
			)
		}
		if err != nil {
			return fmt.Errorf("mdsqlite: insert %s row: %w", table, err)
		}
	}
	return nil
}

// InsertFilelists writes one record's package row and file list into
// filelists.sqlite, grouping files by directory the way createrepo-style
// tooling packs filelists for size (dirname + "/"-joined basenames).
// pkgKey must be the same value passed to InsertPrimary for r.
func (w *Writer) InsertFilelists(r *repoindex.Record, pkgKey int64) error {
	_, err := w.filelists.Exec(
		`INSERT INTO packages (pkgKey, pkgId, name, arch, version, epoch, release) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pkgKey, r.Checksum, r.Name, r.Arch, r.Version, r.Epoch, r.Release,
	)
	if err != nil {
		return fmt.Errorf("mdsqlite: insert filelists package row: %w", err)
	}

	byDir := map[string][]string{}
	typesByDir := map[string][]string{}
	var order []string
	for _, f := range r.Files {
		dir, base := splitDir(f.Path)
		if _, seen := byDir[dir]; !seen {
			order = append(order, dir)
		}
		byDir[dir] = append(byDir[dir], base)
		typesByDir[dir] = append(typesByDir[dir], string(f.Type))
	}
	for _, dir := range order {
		if _, err := w.filelists.Exec(
			`INSERT INTO filelist (pkgKey, dirname, filenames, filetypes) VALUES (?, ?, ?, ?)`,
			pkgKey, dir, strings.Join(byDir[dir], "/"), strings.Join(typesByDir[dir], ""),
		); err != nil {
			return fmt.Errorf("mdsqlite: insert filelist row: %w", err)
		}
	}
	return nil
}

// InsertOther writes one record's package row and changelog into
// other.sqlite. pkgKey must be the same value passed to InsertPrimary
// for r.
func (w *Writer) InsertOther(r *repoindex.Record, pkgKey int64) error {
	_, err := w.other.Exec(
		`INSERT INTO packages (pkgKey, pkgId, name, arch, version, epoch, release) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pkgKey, r.Checksum, r.Name, r.Arch, r.Version, r.Epoch, r.Release,
	)
	if err != nil {
		return fmt.Errorf("mdsqlite: insert other package row: %w", err)
	}
	for _, c := range r.Changelog {
		if _, err := w.other.Exec(
			`INSERT INTO changelog (pkgKey, author, date, changelog) VALUES (?, ?, ?, ?)`,
			pkgKey, c.Author, c.Date.Unix(), c.Text,
		); err != nil {
			return fmt.Errorf("mdsqlite: insert changelog row: %w", err)
		}
	}
	return nil
}

func splitDir(path string) (dir, base string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}
