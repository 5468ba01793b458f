// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package mdsqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenPrimaryCreatesExpectedTables(t *testing.T) {
	db, err := OpenPrimary(filepath.Join(t.TempDir(), "primary.sqlite"))
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"packages", "provides", "requires", "conflicts",
		"obsoletes", "suggests", "enhances", "recommends", "supplements", "files", "db_info"} {
		_, err := db.Exec("SELECT * FROM " + table + " LIMIT 0")
		assert.NoError(t, err, "table %s should exist", table)
	}
}

func TestOpenFilelistsAndOtherCreateExpectedTables(t *testing.T) {
	fl, err := OpenFilelists(filepath.Join(t.TempDir(), "filelists.sqlite"))
	require.NoError(t, err)
	defer fl.Close()
	for _, table := range []string{"packages", "filelist", "db_info"} {
		_, err := fl.Exec("SELECT * FROM " + table + " LIMIT 0")
		assert.NoError(t, err)
	}

	other, err := OpenOther(filepath.Join(t.TempDir(), "other.sqlite"))
	require.NoError(t, err)
	defer other.Close()
	for _, table := range []string{"packages", "changelog", "db_info"} {
		_, err := other.Exec("SELECT * FROM " + table + " LIMIT 0")
		assert.NoError(t, err)
	}
}

func TestSetChecksumReplacesExistingRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "primary.sqlite")
	db, err := OpenPrimary(path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, SetChecksum(db, "first"))
	require.NoError(t, SetChecksum(db, "second"))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM db_info").Scan(&count))
	assert.Equal(t, 1, count)

	var checksum string
	require.NoError(t, db.QueryRow("SELECT checksum FROM db_info").Scan(&checksum))
	assert.Equal(t, "second", checksum)
}

func TestReopenDoesNotReapplySchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "primary.sqlite")
	db, err := OpenPrimary(path)
	require.NoError(t, err)
	require.NoError(t, SetChecksum(db, "abc"))
	require.NoError(t, db.Close())

	reopened, err := Reopen(path)
	require.NoError(t, err)
	defer reopened.Close()

	var checksum string
	require.NoError(t, reopened.QueryRow("SELECT checksum FROM db_info").Scan(&checksum))
	assert.Equal(t, "abc", checksum)
}
