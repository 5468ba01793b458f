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

package repoindex

import (
	"crypto/md5"  //nolint:gosec // repo metadata checksum type, not a security boundary
	"crypto/sha1" //nolint:gosec // ditto
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// newHash returns a fresh hash.Hash for the given checksum type.
func newHash(t ChecksumType) (hash.Hash, error) {
	switch t {
	case ChecksumMD5:
		return md5.New(), nil
	case ChecksumSHA1:
		return sha1.New(), nil
	case ChecksumSHA256:
		return sha256.New(), nil
	case ChecksumSHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("checksum: unsupported type %q", t)
	}
}

// ChecksumFile computes the hex digest of a file's bytes under the
// given algorithm.
func ChecksumFile(path string, t ChecksumType) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return ChecksumReader(f, t)
}

// ChecksumReader computes the hex digest of r's bytes under the given
// algorithm.
func ChecksumReader(r io.Reader, t ChecksumType) (string, error) {
	h, err := newHash(t)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
