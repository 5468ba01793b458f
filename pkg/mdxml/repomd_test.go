// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package mdxml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeRepomdIncludesEachRecord(t *testing.T) {
	records := []RepomdRecord{
		{Type: "primary", Checksum: "aaa", ChecksumType: "sha256", OpenChecksum: "bbb", OpenSize: 100, Location: "repodata/primary.xml.gz", Timestamp: 42, Size: 50},
		{Type: "filelists", Checksum: "ccc", ChecksumType: "sha256", Location: "repodata/filelists.xml.gz", Timestamp: 42, Size: 30},
		{Type: "primary_db", Checksum: "ddd", ChecksumType: "sha256", Location: "repodata/primary.sqlite.gz", Timestamp: 42, Size: 10, DatabaseVer: 10},
	}
	body, err := SerializeRepomd(42, records)
	require.NoError(t, err)

	out := string(body)
	assert.Contains(t, out, `<revision>42</revision>`)
	assert.Contains(t, out, `type="primary"`)
	assert.Contains(t, out, `type="filelists"`)
	assert.Contains(t, out, `type="primary_db"`)
	assert.Contains(t, out, "aaa")
	assert.Contains(t, out, "<open-checksum")
	assert.Contains(t, out, "<database_version>10</database_version>")
}

func TestSerializeRepomdOmitsOpenChecksumWhenAbsent(t *testing.T) {
	records := []RepomdRecord{{Type: "other", Checksum: "x", ChecksumType: "sha256", Location: "repodata/other.xml.gz"}}
	body, err := SerializeRepomd(1, records)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "<open-checksum")
}
