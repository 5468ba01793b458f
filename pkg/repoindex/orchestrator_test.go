// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package repoindex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePkg(t *testing.T, dir, name, header string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("archive bytes for "+name), 0o644))
	require.NoError(t, os.WriteFile(path+".hdr.yaml", []byte(header), 0o644))
}

func TestRunEmptyInputDirProducesEmptyRepodata(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{InputDir: dir, NoDatabase: true}

	result, err := Run(context.Background(), cfg, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.PackagesWalked)

	body, err := os.ReadFile(filepath.Join(dir, "repodata", "repomd.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "<repomd")
}

func TestRunTwoFreshPackages(t *testing.T) {
	dir := t.TempDir()
	writePkg(t, dir, "a-1-1.x86_64.rpm", "name: a\nversion: \"1\"\nrelease: \"1\"\narch: x86_64\n")
	writePkg(t, dir, "b-1-1.x86_64.rpm", "name: b\nversion: \"1\"\nrelease: \"1\"\narch: x86_64\n")

	cfg := &Config{InputDir: dir, NoDatabase: true}
	result, err := Run(context.Background(), cfg, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.PackagesWalked)
	assert.Equal(t, int64(0), result.Dropped)

	for _, name := range []string{"primary.xml.gz", "filelists.xml.gz", "other.xml.gz", "repomd.xml"} {
		_, err := os.Stat(filepath.Join(dir, "repodata", name))
		assert.NoError(t, err, "expected %s to be published", name)
	}
}

func TestRunRejectsMissingInputDir(t *testing.T) {
	cfg := &Config{InputDir: filepath.Join(t.TempDir(), "does-not-exist")}
	_, err := Run(context.Background(), cfg, nil, nil, nil)
	require.Error(t, err)
	_, ok := err.(*UsageError)
	assert.True(t, ok)
}

func TestRunRejectsConcurrentStagingDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".repodata"), 0o755))

	cfg := &Config{InputDir: dir}
	_, err := Run(context.Background(), cfg, nil, nil, nil)
	require.Error(t, err)
	_, ok := err.(*StagingConflictError)
	assert.True(t, ok)
}

func TestRunUpdateReusesCacheOnSecondPass(t *testing.T) {
	dir := t.TempDir()
	writePkg(t, dir, "a-1-1.x86_64.rpm", "name: a\nversion: \"1\"\nrelease: \"1\"\narch: x86_64\n")

	cfg := &Config{InputDir: dir, NoDatabase: true}
	_, err := Run(context.Background(), cfg, nil, nil, nil)
	require.NoError(t, err)

	cfg2 := &Config{InputDir: dir, NoDatabase: true, Update: true}
	result, err := Run(context.Background(), cfg2, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.CacheHits)
	assert.Equal(t, int64(0), result.CacheMisses)
}
