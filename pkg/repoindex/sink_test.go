// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package repoindex

import (
	"database/sql"
	"fmt"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordFor(i int) *Record {
	return &Record{
		Name:         fmt.Sprintf("pkg%d", i),
		Version:      "1",
		Release:      "1",
		Arch:         "x86_64",
		Checksum:     fmt.Sprintf("checksum%d", i),
		ChecksumType: ChecksumSHA256,
		Files:        []FileEntry{{Path: fmt.Sprintf("/usr/bin/pkg%d", i), Type: FileTypeFile}},
		Changelog:    []ChangelogEntry{{Author: "dev", Text: fmt.Sprintf("note %d", i)}},
	}
}

// TestSinkTrioWriteJoinsAcrossDocumentsUnderConcurrency guards against a
// pkgKey assigned independently per sink: primary, filelists, and other
// are written under three separate mutexes, so if each sink inferred its
// own pkgKey from its own insert count, one record's filelist/changelog
// rows could end up keyed to a different record's packages row whenever
// workers interleave.
func TestSinkTrioWriteJoinsAcrossDocumentsUnderConcurrency(t *testing.T) {
	dir := t.TempDir()
	sinks, err := OpenSinks(dir, 64, true)
	require.NoError(t, err)

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			require.NoError(t, sinks.Write(recordFor(i)))
		}(i)
	}
	wg.Wait()
	require.NoError(t, sinks.Close())

	db, err := sql.Open("sqlite3", dir+"/primary.sqlite")
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT p.name, f.name FROM packages p JOIN files f ON f.pkgKey = p.pkgKey`)
	require.NoError(t, err)
	defer rows.Close()

	seen := 0
	for rows.Next() {
		var pkgName, fileName string
		require.NoError(t, rows.Scan(&pkgName, &fileName))
		assert.Equal(t, "/usr/bin/"+pkgName, fileName, "file row must join back to its own package row, not a sibling's")
		seen++
	}
	assert.Equal(t, n, seen)

	otherDB, err := sql.Open("sqlite3", dir+"/other.sqlite")
	require.NoError(t, err)
	defer otherDB.Close()

	changelogRows, err := otherDB.Query(`SELECT p.name, c.changelog FROM packages p JOIN changelog c ON c.pkgKey = p.pkgKey`)
	require.NoError(t, err)
	defer changelogRows.Close()

	seenChangelog := 0
	for changelogRows.Next() {
		var pkgName, text string
		require.NoError(t, changelogRows.Scan(&pkgName, &text))
		var idx int
		_, scanErr := fmt.Sscanf(pkgName, "pkg%d", &idx)
		require.NoError(t, scanErr)
		assert.Equal(t, fmt.Sprintf("note %d", idx), text)
		seenChangelog++
	}
	assert.Equal(t, n, seenChangelog)
}
