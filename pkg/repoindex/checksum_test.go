// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package repoindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumFileKnownVectors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	cases := map[ChecksumType]string{
		ChecksumMD5:    "900150983cd24fb0d6963f7d28e17f72",
		ChecksumSHA1:   "a9993e364706816aba3e25717850c26c9cd0d89d",
		ChecksumSHA256: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
	}
	for typ, want := range cases {
		got, err := ChecksumFile(path, typ)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestChecksumFileUnsupportedType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	_, err := ChecksumFile(path, "crc32")
	assert.Error(t, err)
}
