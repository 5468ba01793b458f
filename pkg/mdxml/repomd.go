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
)

const repomdNS = "http://linux.duke.edu/metadata/repo"

// RepomdRecord is one <data type="..."> entry of repomd.xml: file-level
// metadata for a single published artifact.
type RepomdRecord struct {
	Type         string // "primary", "filelists", "other", "primary_db", ...
	Checksum     string
	ChecksumType string
	OpenChecksum string // checksum of the decompressed document, empty for *_db entries without one
	Location     string // href relative to the repodata directory
	Timestamp    int64
	Size         int64 // compressed size
	OpenSize     int64 // decompressed size, 0 when not applicable
	DatabaseVer  int   // sqlite schema version, 0 for non-database entries
}

type repomdXML struct {
	XMLName  xml.Name        `xml:"repomd"`
	XMLNS    string          `xml:"xmlns,attr"`
	RPMNS    string          `xml:"xmlns:rpm,attr"`
	Revision int64           `xml:"revision"`
	Data     []repomdDataXML `xml:"data"`
}

type repomdDataXML struct {
	Type         string           `xml:"type,attr"`
	Checksum     repomdChecksum   `xml:"checksum"`
	OpenChecksum *repomdChecksum  `xml:"open-checksum,omitempty"`
	Location     repomdLocation   `xml:"location"`
	Timestamp    int64            `xml:"timestamp"`
	Size         int64            `xml:"size"`
	OpenSize     *int64           `xml:"open-size,omitempty"`
	DatabaseVer  *int             `xml:"database_version,omitempty"`
}

type repomdChecksum struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type repomdLocation struct {
	Href string `xml:"href,attr"`
}

// SerializeRepomd renders the repomd.xml manifest. revision is normally
// the publish-time Unix timestamp: repository clients treat an
// increasing revision as "metadata changed, refetch".
func SerializeRepomd(revision int64, records []RepomdRecord) ([]byte, error) {
	doc := repomdXML{
		XMLNS:    repomdNS,
		RPMNS:    rpmNS,
		Revision: revision,
	}
	for _, r := range records {
		d := repomdDataXML{
			Type:      r.Type,
			Checksum:  repomdChecksum{Type: r.ChecksumType, Value: r.Checksum},
			Location:  repomdLocation{Href: r.Location},
			Timestamp: r.Timestamp,
			Size:      r.Size,
		}
		if r.OpenChecksum != "" {
			d.OpenChecksum = &repomdChecksum{Type: r.ChecksumType, Value: r.OpenChecksum}
			openSize := r.OpenSize
			d.OpenSize = &openSize
		}
		if r.DatabaseVer > 0 {
			v := r.DatabaseVer
			d.DatabaseVer = &v
		}
		doc.Data = append(doc.Data, d)
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mdxml: serialize repomd: %w", err)
	}
	out := make([]byte, 0, len(xmlProlog)+len(body)+1)
	out = append(out, xmlProlog...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}
