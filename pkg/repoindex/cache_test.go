// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package repoindex

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactCacheMissWhenEmpty(t *testing.T) {
	loader := func(dir string) (map[string]*Record, error) {
		return map[string]*Record{}, nil
	}
	c, err := NewArtifactCache(loader, "out", "in", nil, nil)
	require.NoError(t, err)
	_, ok := c.Lookup(Task{Filename: "a.rpm"}, ChecksumSHA256, false)
	assert.False(t, ok)
}

func TestArtifactCacheHitWithMatchingStat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.rpm")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	loader := func(d string) (map[string]*Record, error) {
		return map[string]*Record{
			"a.rpm": {
				Name:         "a",
				Checksum:     "deadbeef",
				ChecksumType: ChecksumSHA256,
				SizePackage:  info.Size(),
				TimeFile:     info.ModTime().Unix(),
			},
		}, nil
	}
	c, err := NewArtifactCache(loader, "out", "in", nil, nil)
	require.NoError(t, err)

	rec, ok := c.Lookup(Task{Filename: "a.rpm", FullPath: path}, ChecksumSHA256, false)
	require.True(t, ok)
	assert.True(t, rec.FromCache())
	assert.Equal(t, "a", rec.Name)
}

func TestArtifactCacheMissOnSizeChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.rpm")
	require.NoError(t, os.WriteFile(path, []byte("hello world, longer now"), 0o644))

	loader := func(d string) (map[string]*Record, error) {
		return map[string]*Record{
			"a.rpm": {ChecksumType: ChecksumSHA256, SizePackage: 5, TimeFile: time.Now().Unix()},
		}, nil
	}
	c, err := NewArtifactCache(loader, "out", "in", nil, nil)
	require.NoError(t, err)

	_, ok := c.Lookup(Task{Filename: "a.rpm", FullPath: path}, ChecksumSHA256, false)
	assert.False(t, ok)
}

func TestArtifactCacheTrustTimestampsSkipsStat(t *testing.T) {
	loader := func(d string) (map[string]*Record, error) {
		return map[string]*Record{
			"a.rpm": {Name: "a", ChecksumType: ChecksumSHA256},
		}, nil
	}
	c, err := NewArtifactCache(loader, "out", "in", nil, nil)
	require.NoError(t, err)

	rec, ok := c.Lookup(Task{Filename: "a.rpm", FullPath: "/does/not/exist.rpm"}, ChecksumSHA256, true)
	require.True(t, ok)
	assert.Equal(t, "a", rec.Name)
}

func TestArtifactCacheLaterSourceOverwrites(t *testing.T) {
	calls := 0
	loader := func(dir string) (map[string]*Record, error) {
		calls++
		if dir == "out" {
			return map[string]*Record{"a.rpm": {Name: "from-output"}}, nil
		}
		return map[string]*Record{"a.rpm": {Name: "from-input"}}, nil
	}
	c, err := NewArtifactCache(loader, "out", "in", nil, nil)
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	rec, ok := c.Lookup(Task{Filename: "a.rpm"}, "", true)
	require.True(t, ok)
	assert.Equal(t, "from-input", rec.Name, "input dir is loaded after output dir and wins")
}
