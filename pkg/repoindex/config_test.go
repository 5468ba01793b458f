// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package repoindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/repomd/pkg/compress"
)

func TestValidateRequiresInputDir(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	_, ok := err.(*UsageError)
	assert.True(t, ok)
}

func TestValidateAppliesDefaults(t *testing.T) {
	cfg := &Config{InputDir: "/tmp/repo"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/tmp/repo", cfg.OutputDir)
	assert.Equal(t, ChecksumSHA256, cfg.ChecksumType)
	assert.Equal(t, compress.Gzip, cfg.Compression)
	assert.Greater(t, cfg.Workers, 0)
}

func TestValidateRejectsUnsupportedChecksum(t *testing.T) {
	cfg := &Config{InputDir: "/tmp/repo", ChecksumType: "crc32"}
	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidateRejectsNegativeChangelogLimit(t *testing.T) {
	cfg := &Config{InputDir: "/tmp/repo", ChangelogLimit: -1}
	err := cfg.Validate()
	require.Error(t, err)
}
