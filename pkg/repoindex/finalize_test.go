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

	"github.com/kraklabs/repomd/pkg/compress"
)

func TestFinalizeGroupFilePublishesBothForms(t *testing.T) {
	repodataDir := t.TempDir()
	groupPath := filepath.Join(t.TempDir(), "g.xml")
	require.NoError(t, os.WriteFile(groupPath, []byte("<comps></comps>"), 0o644))

	cfg := &Config{ChecksumType: ChecksumSHA256, Compression: compress.Gzip, GroupFile: groupPath}
	records, err := finalizeGroupFile(repodataDir, cfg, 1)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byType := map[string]bool{}
	for _, r := range records {
		byType[r.Type] = true
	}
	assert.True(t, byType["group"], "uncompressed form must be published as a repomd record")
	assert.True(t, byType["group_gz"], "compressed form must be published as a repomd record")

	_, err = os.Stat(filepath.Join(repodataDir, "g.xml"))
	assert.NoError(t, err, "uncompressed g.xml must remain in repodata/")

	_, err = os.Stat(filepath.Join(repodataDir, "g.xml.gz"))
	assert.NoError(t, err, "compressed copy must also be published")
}

func TestFinalizeGroupFileNamesAfterSourceBasename(t *testing.T) {
	repodataDir := t.TempDir()
	groupPath := filepath.Join(t.TempDir(), "custom-groups.xml")
	require.NoError(t, os.WriteFile(groupPath, []byte("<comps></comps>"), 0o644))

	cfg := &Config{ChecksumType: ChecksumSHA256, Compression: compress.Gzip, GroupFile: groupPath}
	records, err := finalizeGroupFile(repodataDir, cfg, 1)
	require.NoError(t, err)

	for _, r := range records {
		assert.Contains(t, r.Location, "custom-groups.xml", "published name must derive from the source basename, not a fixed name")
	}
}
