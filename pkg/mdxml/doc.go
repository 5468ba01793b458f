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

import "fmt"

// DocKind identifies one of the three document classes.
type DocKind string

const (
	Primary   DocKind = "primary"
	Filelists DocKind = "filelists"
	Other     DocKind = "other"
)

const xmlProlog = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// rootTag and namespace for each document class.
func rootTag(kind DocKind) (name, ns string) {
	switch kind {
	case Primary:
		return "metadata", commonNS
	case Filelists:
		return "filelists", filelistsNS
	case Other:
		return "otherdata", otherNS
	default:
		return "metadata", commonNS
	}
}

// Preamble returns the XML prolog plus the opening root tag declaring
// packages="count", written once before any worker-driven writes.
func Preamble(kind DocKind, count int) string {
	name, ns := rootTag(kind)
	extra := ""
	if kind == Primary {
		extra = fmt.Sprintf(` xmlns:rpm=%q`, rpmNS)
	}
	return fmt.Sprintf("%s<%s xmlns=%q%s packages=%q>\n", xmlProlog, name, ns, extra, fmt.Sprint(count))
}

// Closing returns the closing root tag.
func Closing(kind DocKind) string {
	name, _ := rootTag(kind)
	return fmt.Sprintf("</%s>\n", name)
}
