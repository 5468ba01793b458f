// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"os"
	"path/filepath"
	"testing"

	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileConfigMissingFileIsNotAnError(t *testing.T) {
	fc, err := loadFileConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, &fileConfig{}, fc)
}

func TestLoadFileConfigParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".repomd.yaml")
	body := "workers: 4\nchecksum: sha512\nexcludes:\n  - \"*.src.rpm\"\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	fc, err := loadFileConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, fc.Workers)
	assert.Equal(t, "sha512", fc.Checksum)
	assert.Equal(t, []string{"*.src.rpm"}, fc.Excludes)
}

func TestApplyFileDefaultsOnlyFillsUnsetFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	workers := fs.Int("workers", 0, "")
	checksum := fs.String("checksum", "sha256", "")
	uniqueMD := fs.Bool("unique-md-filenames", false, "")

	require.NoError(t, fs.Parse([]string{"--checksum=sha1"}))

	fc := &fileConfig{Workers: 8, Checksum: "sha512", UniqueMDFilenames: true}
	applyFileDefaults(fs, fc, fileConfigSetters{
		workers:       workers,
		checksum:      checksum,
		uniqueMD:      uniqueMD,
		outputDir:     new(string),
		groupFile:     new(string),
		compression:   new(string),
		update:        new(bool),
		updateMDPaths: &[]string{},
		skipStat:      new(bool),
		skipSymlinks:  new(bool),
		pkgList:       new(string),
		excludes:      &[]string{},
		locationBase:  new(string),
		metricsAddr:   new(string),
		watch:         new(bool),
		noDatabase:    new(bool),
		changelogLimit: new(int),
	})

	assert.Equal(t, 8, *workers, "unset flag takes the file default")
	assert.Equal(t, "sha1", *checksum, "explicitly passed flag is never overridden")
	assert.True(t, *uniqueMD, "bool defaults OR in the file value")
}
