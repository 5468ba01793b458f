// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package compress wraps the three compression stream primitives the
// indexing engine treats as external collaborators: gzip, bzip2, and xz
// writers/readers behind one small interface, plus a standalone file
// compressor used by the finalizer.
package compress

import (
	"fmt"
	"io"
	"os"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// Algo names one of the three supported stream compression algorithms.
type Algo string

const (
	Gzip  Algo = "gz"
	Bzip2 Algo = "bz2"
	XZ    Algo = "xz"
)

// Ext returns the conventional file extension for the algorithm.
func (a Algo) Ext() string {
	switch a {
	case Bzip2:
		return "bz2"
	case XZ:
		return "xz"
	default:
		return "gz"
	}
}

// WriteCloser is a compressing writer that must be Close()d to flush its
// trailer; Close does not close the underlying writer.
type WriteCloser interface {
	io.WriteCloser
}

// NewWriter opens a compressing writer over w using the given algorithm.
func NewWriter(w io.Writer, algo Algo) (WriteCloser, error) {
	switch algo {
	case Gzip, "":
		return gzip.NewWriterLevel(w, gzip.DefaultCompression)
	case Bzip2:
		return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
	case XZ:
		return xz.NewWriter(w)
	default:
		return nil, fmt.Errorf("compress: unsupported algorithm %q", algo)
	}
}

// NewReader opens a decompressing reader over r using the given algorithm.
// The cache loader (pkg/mdxml) uses it to read back previously published
// documents.
func NewReader(r io.Reader, algo Algo) (io.ReadCloser, error) {
	switch algo {
	case Gzip, "":
		return gzip.NewReader(r)
	case Bzip2:
		zr, err := bzip2.NewReader(r, nil)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(zr), nil
	case XZ:
		zr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(zr), nil
	default:
		return nil, fmt.Errorf("compress: unsupported algorithm %q", algo)
	}
}

// CompressFile compresses srcPath into srcPath+"."+algo.Ext(), using the
// given algorithm, and returns the destination path. It does not remove
// srcPath; callers that need "compress then delete original" (the
// finalizer's SQLite handling) do that explicitly.
func CompressFile(srcPath string, algo Algo) (string, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("compress: open %s: %w", srcPath, err)
	}
	defer src.Close()

	dstPath := srcPath + "." + algo.Ext()
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("compress: create %s: %w", dstPath, err)
	}
	defer dst.Close()

	zw, err := NewWriter(dst, algo)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(zw, src); err != nil {
		zw.Close()
		return "", fmt.Errorf("compress: write %s: %w", dstPath, err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress: close %s: %w", dstPath, err)
	}
	return dstPath, nil
}
