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
	"database/sql"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/kraklabs/repomd/pkg/mdsqlite"
	"github.com/kraklabs/repomd/pkg/mdxml"
)

// SinkTrio owns the three output streams (primary.xml, filelists.xml,
// other.xml) plus their matching SQLite databases, when enabled. Each
// stream is guarded by its own mutex; workers acquire them independently
// in the fixed order primary, filelists, other, releasing each before
// acquiring the next. Collapsing this into a single lock
// would serialize work that is otherwise independent per document.
type SinkTrio struct {
	primaryMu   sync.Mutex
	filelistsMu sync.Mutex
	otherMu     sync.Mutex

	primaryFile   *os.File
	filelistsFile *os.File
	otherFile     *os.File

	primaryDB   *sql.DB
	filelistsDB *sql.DB
	otherDB     *sql.DB
	dbWriter    *mdsqlite.Writer
	withDB      bool

	nextPkgKey int64
	written    int
}

// OpenSinks creates the three staging XML documents (and, unless
// withDB is false, their SQLite companions) under stagingDir and writes
// each document's preamble.
func OpenSinks(stagingDir string, packageCount int, withDB bool) (*SinkTrio, error) {
	s := &SinkTrio{withDB: withDB}

	var err error
	s.primaryFile, err = os.Create(stagingDir + "/primary.xml")
	if err != nil {
		return nil, fmt.Errorf("open primary.xml: %w", err)
	}
	s.filelistsFile, err = os.Create(stagingDir + "/filelists.xml")
	if err != nil {
		return nil, fmt.Errorf("open filelists.xml: %w", err)
	}
	s.otherFile, err = os.Create(stagingDir + "/other.xml")
	if err != nil {
		return nil, fmt.Errorf("open other.xml: %w", err)
	}

	if _, err := s.primaryFile.WriteString(mdxml.Preamble(mdxml.Primary, packageCount)); err != nil {
		return nil, fmt.Errorf("write primary.xml preamble: %w", err)
	}
	if _, err := s.filelistsFile.WriteString(mdxml.Preamble(mdxml.Filelists, packageCount)); err != nil {
		return nil, fmt.Errorf("write filelists.xml preamble: %w", err)
	}
	if _, err := s.otherFile.WriteString(mdxml.Preamble(mdxml.Other, packageCount)); err != nil {
		return nil, fmt.Errorf("write other.xml preamble: %w", err)
	}

	if withDB {
		s.primaryDB, err = mdsqlite.OpenPrimary(stagingDir + "/primary.sqlite")
		if err != nil {
			return nil, err
		}
		s.filelistsDB, err = mdsqlite.OpenFilelists(stagingDir + "/filelists.sqlite")
		if err != nil {
			return nil, err
		}
		s.otherDB, err = mdsqlite.OpenOther(stagingDir + "/other.sqlite")
		if err != nil {
			return nil, err
		}
		s.dbWriter = mdsqlite.NewWriter(s.primaryDB, s.filelistsDB, s.otherDB)
	}

	return s, nil
}

// Write serializes r and appends its fragment to each of the three
// documents (and, when enabled, inserts its row into each database). It
// is safe for concurrent use by multiple workers; this is the one
// function on the hot path that touches shared sink state.
//
// pkgKey is assigned once per record, before any sink mutex is taken,
// and passed to all three Insert* calls. It must not be derived from
// each sink's own insert count: primary, filelists, and other are
// guarded by three independent mutexes, so a per-sink counter could be
// bumped by a different record's write between this record's primary
// insert and its filelists/other inserts, joining the wrong rows
// together.
func (s *SinkTrio) Write(r *Record) error {
	primary, filelists, other, err := mdxml.Serialize(r)
	if err != nil {
		return &SinkWriteError{Sink: "serialize", Err: err}
	}

	pkgKey := atomic.AddInt64(&s.nextPkgKey, 1) - 1

	s.primaryMu.Lock()
	_, err = s.primaryFile.Write(primary)
	if err == nil && s.withDB {
		err = s.dbWriter.InsertPrimary(r, pkgKey)
	}
	s.primaryMu.Unlock()
	if err != nil {
		return &SinkWriteError{Sink: "primary", Err: err}
	}

	s.filelistsMu.Lock()
	_, err = s.filelistsFile.Write(filelists)
	if err == nil && s.withDB {
		err = s.dbWriter.InsertFilelists(r, pkgKey)
	}
	s.filelistsMu.Unlock()
	if err != nil {
		return &SinkWriteError{Sink: "filelists", Err: err}
	}

	s.otherMu.Lock()
	_, err = s.otherFile.Write(other)
	if err == nil && s.withDB {
		err = s.dbWriter.InsertOther(r, pkgKey)
	}
	s.otherMu.Unlock()
	if err != nil {
		return &SinkWriteError{Sink: "other", Err: err}
	}

	return nil
}

// Close writes each document's closing tag and closes every open file
// and database handle. It is not safe to call Write after Close.
func (s *SinkTrio) Close() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if _, err := s.primaryFile.WriteString(mdxml.Closing(mdxml.Primary)); err != nil {
		record(err)
	}
	record(s.primaryFile.Close())
	if _, err := s.filelistsFile.WriteString(mdxml.Closing(mdxml.Filelists)); err != nil {
		record(err)
	}
	record(s.filelistsFile.Close())
	if _, err := s.otherFile.WriteString(mdxml.Closing(mdxml.Other)); err != nil {
		record(err)
	}
	record(s.otherFile.Close())

	if s.withDB {
		record(s.primaryDB.Close())
		record(s.filelistsDB.Close())
		record(s.otherDB.Close())
	}

	return firstErr
}
