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

package mdxml

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/repomd/pkg/compress"
	"github.com/kraklabs/repomd/pkg/repoindex"
)

// LoadRepomdMetadata opens an existing repodata/ directory's repomd.xml,
// follows its primary/filelists/other entries (transparently
// decompressing whichever of gzip/bzip2/xz was used), and returns every
// record it
// finds keyed by the archive filename the record was indexed under
// (filepath.Base of the original location href). A directory that
// doesn't have a repodata/ at all, or whose repomd.xml is missing, is
// not an error — it simply yields an empty map, matching a first run
// against a repo that has never been indexed.
func LoadRepomdMetadata(dir string) (map[string]*repoindex.Record, error) {
	repodataDir := filepath.Join(dir, "repodata")
	repomdPath := filepath.Join(repodataDir, "repomd.xml")

	entries, err := readRepomd(repomdPath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*repoindex.Record{}, nil
		}
		return nil, err
	}

	byFilename := map[string]*repoindex.Record{}
	byChecksum := map[string]*repoindex.Record{}

	for _, kind := range []string{"primary", "filelists", "other"} {
		href, ok := entries[kind]
		if !ok {
			continue
		}
		rc, err := openRepodataFile(repodataDir, href)
		if err != nil {
			return nil, err
		}

		switch kind {
		case "primary":
			m, err := ParsePrimary(rc)
			rc.Close()
			if err != nil {
				return nil, err
			}
			for filename, rec := range m {
				byFilename[filename] = rec
				byChecksum[rec.Checksum] = rec
			}
		case "filelists":
			err := ParseFilelists(rc, byChecksum)
			rc.Close()
			if err != nil {
				return nil, err
			}
		case "other":
			err := ParseOther(rc, byChecksum)
			rc.Close()
			if err != nil {
				return nil, err
			}
		}
	}

	return byFilename, nil
}

// readRepomd returns, for each of "primary"/"filelists"/"other", the
// location href of its repomd.xml <data> entry.
func readRepomd(repomdPath string) (map[string]string, error) {
	f, err := os.Open(repomdPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var doc repomdXML
	if err := xml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("mdxml: parse repomd.xml: %w", err)
	}

	out := map[string]string{}
	for _, d := range doc.Data {
		if _, exists := out[d.Type]; !exists {
			out[d.Type] = d.Location.Href
		}
	}
	return out, nil
}

func openRepodataFile(repodataDir, href string) (readCloser, error) {
	path := filepath.Join(repodataDir, filepath.Base(href))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mdxml: open %s: %w", path, err)
	}

	algo := algoFromExt(path)
	if algo == "" {
		return f, nil
	}
	dec, err := compress.NewReader(f, algo)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mdxml: decompress %s: %w", path, err)
	}
	return &wrappedReader{inner: dec, underlying: f}, nil
}

func algoFromExt(path string) compress.Algo {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return compress.Gzip
	case strings.HasSuffix(path, ".bz2"):
		return compress.Bzip2
	case strings.HasSuffix(path, ".xz"):
		return compress.XZ
	default:
		return ""
	}
}

type readCloser interface {
	Read(p []byte) (int, error)
	Close() error
}

// wrappedReader closes both the decompressor and the underlying file.
type wrappedReader struct {
	inner      readCloser
	underlying *os.File
}

func (w *wrappedReader) Read(p []byte) (int, error) { return w.inner.Read(p) }

func (w *wrappedReader) Close() error {
	err := w.inner.Close()
	if cerr := w.underlying.Close(); err == nil {
		err = cerr
	}
	return err
}
