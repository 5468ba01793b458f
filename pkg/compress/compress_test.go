// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package compress

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripEachAlgo(t *testing.T) {
	for _, algo := range []Algo{Gzip, Bzip2, XZ} {
		t.Run(string(algo), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, algo)
			require.NoError(t, err)
			_, err = w.Write([]byte("the quick brown fox jumps over the lazy dog"))
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := NewReader(&buf, algo)
			require.NoError(t, err)
			defer r.Close()
			out, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, "the quick brown fox jumps over the lazy dog", string(out))
		})
	}
}

func TestCompressFileKeepsSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.xml")
	require.NoError(t, os.WriteFile(src, []byte("<metadata/>"), 0o644))

	dst, err := CompressFile(src, Gzip)
	require.NoError(t, err)
	assert.Equal(t, src+".gz", dst)

	_, err = os.Stat(src)
	assert.NoError(t, err, "CompressFile must not remove the source")
	_, err = os.Stat(dst)
	assert.NoError(t, err)
}

func TestExt(t *testing.T) {
	assert.Equal(t, "gz", Gzip.Ext())
	assert.Equal(t, "bz2", Bzip2.Ext())
	assert.Equal(t, "xz", XZ.Ext())
}
