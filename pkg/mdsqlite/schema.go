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

// Package mdsqlite is the SQLite schema-creation and row-insertion
// collaborator (insert_primary, insert_filelists, insert_other). It is
// a thin, direct wrapper over database/sql and
// github.com/mattn/go-sqlite3 — the SQLite driver most consistently
// depended on across the retrieved corpus's manifests — with one schema
// and one set of INSERT statements per document class, matching real
// repository tooling's primary.sqlite/filelists.sqlite/other.sqlite
// layout.
package mdsqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
)

const primarySchema = `
CREATE TABLE packages (
	pkgKey INTEGER PRIMARY KEY,
	pkgId TEXT,
	name TEXT,
	arch TEXT,
	version TEXT,
	epoch TEXT,
	release TEXT,
	checksum_type TEXT,
	summary TEXT,
	description TEXT,
	packager TEXT,
	size_package INTEGER,
	time_file INTEGER,
	time_build INTEGER,
	location_href TEXT,
	location_base TEXT
);
CREATE TABLE provides (pkgKey INTEGER, name TEXT, flags TEXT, epoch TEXT, version TEXT, release TEXT);
CREATE TABLE requires (pkgKey INTEGER, name TEXT, flags TEXT, epoch TEXT, version TEXT, release TEXT, pre TEXT);
CREATE TABLE conflicts (pkgKey INTEGER, name TEXT, flags TEXT, epoch TEXT, version TEXT, release TEXT);
CREATE TABLE obsoletes (pkgKey INTEGER, name TEXT, flags TEXT, epoch TEXT, version TEXT, release TEXT);
CREATE TABLE suggests (pkgKey INTEGER, name TEXT, flags TEXT, epoch TEXT, version TEXT, release TEXT);
CREATE TABLE enhances (pkgKey INTEGER, name TEXT, flags TEXT, epoch TEXT, version TEXT, release TEXT);
CREATE TABLE recommends (pkgKey INTEGER, name TEXT, flags TEXT, epoch TEXT, version TEXT, release TEXT);
CREATE TABLE supplements (pkgKey INTEGER, name TEXT, flags TEXT, epoch TEXT, version TEXT, release TEXT);
CREATE TABLE files (pkgKey INTEGER, name TEXT, type TEXT);
CREATE INDEX packagename ON packages (name);
CREATE TABLE db_info (dbversion INTEGER, checksum TEXT);
`

const filelistsSchema = `
CREATE TABLE packages (pkgKey INTEGER PRIMARY KEY, pkgId TEXT, name TEXT, arch TEXT, version TEXT, epoch TEXT, release TEXT);
CREATE TABLE filelist (pkgKey INTEGER, dirname TEXT, filenames TEXT, filetypes TEXT);
CREATE INDEX pkgId ON packages (pkgId);
CREATE TABLE db_info (dbversion INTEGER, checksum TEXT);
`

const otherSchema = `
CREATE TABLE packages (pkgKey INTEGER PRIMARY KEY, pkgId TEXT, name TEXT, arch TEXT, version TEXT, epoch TEXT, release TEXT);
CREATE TABLE changelog (pkgKey INTEGER, author TEXT, date INTEGER, changelog TEXT);
CREATE INDEX pkgId ON packages (pkgId);
CREATE TABLE db_info (dbversion INTEGER, checksum TEXT);
`

// Open creates path as a fresh SQLite database (it must not already
// exist — the finalizer is the only code that reopens one in place) and
// applies the given schema.
func Open(path, schema string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("mdsqlite: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("mdsqlite: create schema %s: %w", path, err)
	}
	return db, nil
}

// OpenPrimary opens (and schemas) primary.sqlite.
func OpenPrimary(path string) (*sql.DB, error) { return Open(path, primarySchema) }

// OpenFilelists opens (and schemas) filelists.sqlite.
func OpenFilelists(path string) (*sql.DB, error) { return Open(path, filelistsSchema) }

// OpenOther opens (and schemas) other.sqlite.
func OpenOther(path string) (*sql.DB, error) { return Open(path, otherSchema) }

// Reopen opens an already-schema'd database file in place, without
// applying any CREATE TABLE statements. The finalizer uses this to
// stamp db_info.checksum onto a database the sink trio already
// populated and closed.
func Reopen(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("mdsqlite: reopen %s: %w", path, err)
	}
	return db, nil
}

// SetChecksum records the checksum of this database's matching XML
// document into db_info, the coupling the finalizer must establish.
func SetChecksum(db *sql.DB, checksum string) error {
	if _, err := db.Exec(`DELETE FROM db_info`); err != nil {
		return fmt.Errorf("mdsqlite: clear db_info: %w", err)
	}
	if _, err := db.Exec(`INSERT INTO db_info (dbversion, checksum) VALUES (?, ?)`, 10, checksum); err != nil {
		return fmt.Errorf("mdsqlite: set db_info: %w", err)
	}
	return nil
}
