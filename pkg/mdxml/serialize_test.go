// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package mdxml

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/repomd/pkg/repoindex"
)

func sampleRecord() *repoindex.Record {
	r := &repoindex.Record{
		Name:         "foo",
		Epoch:        "0",
		Version:      "1.2.3",
		Release:      "1",
		Arch:         "x86_64",
		Checksum:     "abc123",
		ChecksumType: repoindex.ChecksumSHA256,
		SizePackage:  1024,
		TimeFile:     1700000000,
		TimeBuild:    1699999000,
		LocationHref: "foo-1.2.3-1.x86_64.rpm",
	}
	r.Provides = []repoindex.DepSpec{{Name: "foo", Flag: repoindex.DepFlagEQ, Version: "1.2.3"}}
	r.Requires = []repoindex.DepSpec{{Name: "libc", Flag: repoindex.DepFlagGE, Version: "2.0", Pre: true}}
	r.Files = []repoindex.FileEntry{
		{Path: "/usr/bin/foo", Type: repoindex.FileTypeFile},
		{Path: "/usr/share/foo", Type: repoindex.FileTypeDir},
	}
	r.Changelog = []repoindex.ChangelogEntry{
		{Author: "dev <dev@example.com>", Date: time.Unix(1699999000, 0).UTC(), Text: "initial release"},
	}
	return r
}

func TestSerializeProducesThreeNonEmptyFragments(t *testing.T) {
	primary, filelists, other, err := Serialize(sampleRecord())
	require.NoError(t, err)
	assert.Contains(t, string(primary), "<name>foo</name>")
	assert.Contains(t, string(filelists), `pkgid="abc123"`)
	assert.Contains(t, string(other), "initial release")
}

func TestPrimaryFileListIsAbbreviated(t *testing.T) {
	primary, _, _, err := Serialize(sampleRecord())
	require.NoError(t, err)
	assert.NotContains(t, string(primary), "/usr/bin/foo", "primary.xml should not carry plain file entries")
	assert.Contains(t, string(primary), "/usr/share/foo")
}

func TestFilelistsCarriesAllFiles(t *testing.T) {
	_, filelists, _, err := Serialize(sampleRecord())
	require.NoError(t, err)
	assert.Contains(t, string(filelists), "/usr/bin/foo")
	assert.Contains(t, string(filelists), "/usr/share/foo")
}

func TestPreambleAndClosing(t *testing.T) {
	p := Preamble(Primary, 3)
	assert.Contains(t, p, `packages="3"`)
	assert.Contains(t, p, "xmlns:rpm=")
	assert.Equal(t, "</metadata>\n", Closing(Primary))
	assert.Equal(t, "</filelists>\n", Closing(Filelists))
	assert.Equal(t, "</otherdata>\n", Closing(Other))
}
