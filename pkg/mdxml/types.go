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

// Package mdxml implements the XML serialization collaborators:
// serialize() of one record into three fragments, the repomd.xml
// manifest writer, and the reader that loads existing
// primary/filelists/other documents back into records (used only to
// populate the artifact cache). None of this is algorithmically
// interesting, but the engine needs a concrete implementation to run,
// and no third-party XML-repository-metadata library appears anywhere
// in the retrieved corpus, so it is written directly against
// encoding/xml, the same way
// the retrieved corpus's own repo-metadata tool (solus-project/ferryd)
// does.
package mdxml

import "encoding/xml"

const (
	commonNS    = "http://linux.duke.edu/metadata/common"
	filelistsNS = "http://linux.duke.edu/metadata/filelists"
	otherNS     = "http://linux.duke.edu/metadata/other"
	rpmNS       = "http://linux.duke.edu/metadata/rpm"
)

// xmlVersion mirrors one package's <version> element.
type xmlVersion struct {
	Epoch   string `xml:"epoch,attr"`
	Version string `xml:"ver,attr"`
	Release string `xml:"rel,attr"`
}

// xmlChecksum mirrors <checksum type="...">.
type xmlChecksum struct {
	Type  string `xml:"type,attr"`
	PkgID string `xml:"pkgid,attr,omitempty"`
	Value string `xml:",chardata"`
}

type xmlEntry struct {
	Name    string `xml:"name,attr"`
	Flag    string `xml:"flags,attr,omitempty"`
	Epoch   string `xml:"epoch,attr,omitempty"`
	Version string `xml:"ver,attr,omitempty"`
	Release string `xml:"rel,attr,omitempty"`
	Pre     string `xml:"pre,attr,omitempty"`
}

type xmlEntryList struct {
	Entries []xmlEntry `xml:"entry"`
}

type xmlFile struct {
	Type string `xml:"type,attr,omitempty"`
	Path string `xml:",chardata"`
}

type xmlChangelogEntry struct {
	Author string `xml:"author,attr"`
	Date   int64  `xml:"date,attr"`
	Text   string `xml:",chardata"`
}

// primaryPackage is one <package type="rpm"> element of primary.xml.
type primaryPackage struct {
	XMLName      xml.Name      `xml:"package"`
	Type         string        `xml:"type,attr"`
	Name         string        `xml:"name"`
	Arch         string        `xml:"arch"`
	Version      xmlVersion    `xml:"version"`
	Checksum     xmlChecksum   `xml:"checksum"`
	Summary      string        `xml:"summary"`
	Description  string        `xml:"description"`
	Packager     string        `xml:"packager"`
	Size         xmlSize       `xml:"size"`
	Location     xmlLocation   `xml:"location"`
	Time         xmlTime       `xml:"time"`
	Format       primaryFormat `xml:"format"`
}

type xmlSize struct {
	Package int64 `xml:"package,attr"`
}

type xmlLocation struct {
	Href string `xml:"href,attr"`
	Base string `xml:"xml:base,attr,omitempty"`
}

type xmlTime struct {
	File  int64 `xml:"file,attr"`
	Build int64 `xml:"build,attr"`
}

type primaryFormat struct {
	Provides    xmlEntryList `xml:"provides"`
	Requires    xmlEntryList `xml:"requires"`
	Conflicts   xmlEntryList `xml:"conflicts"`
	Obsoletes   xmlEntryList `xml:"obsoletes"`
	Suggests    xmlEntryList `xml:"suggests"`
	Enhances    xmlEntryList `xml:"enhances"`
	Recommends  xmlEntryList `xml:"recommends"`
	Supplements xmlEntryList `xml:"supplements"`
	Files       []xmlFile    `xml:"file"`
}

// filelistsPackage is one <package> element of filelists.xml.
type filelistsPackage struct {
	XMLName xml.Name   `xml:"package"`
	PkgID   string     `xml:"pkgid,attr"`
	Name    string     `xml:"name,attr"`
	Arch    string     `xml:"arch,attr"`
	Version xmlVersion `xml:"version"`
	Files   []xmlFile  `xml:"file"`
}

// otherPackage is one <package> element of other.xml.
type otherPackage struct {
	XMLName   xml.Name            `xml:"package"`
	PkgID     string              `xml:"pkgid,attr"`
	Name      string              `xml:"name,attr"`
	Arch      string              `xml:"arch,attr"`
	Version   xmlVersion          `xml:"version"`
	Changelog []xmlChangelogEntry `xml:"changelog"`
}
