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

// Package ui provides the small set of console formatting helpers the
// CLI uses for section headers, labels, and status lines. Color is
// driven by fatih/color, auto-disabled when stdout isn't a terminal
// (mattn/go-isatty) or NO_COLOR is set, and can be forced off with
// --no-color.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Red    = color.New(color.FgRed)
	Cyan   = color.New(color.FgCyan)
	Dim    = color.New(color.Faint)
	Bold   = color.New(color.Bold)
)

// InitColors decides whether color output is enabled, honoring an
// explicit --no-color flag, the NO_COLOR convention, and whether stdout
// is actually a terminal.
func InitColors(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// Header prints a bold section title.
func Header(title string) {
	_, _ = Bold.Println(title)
}

// SubHeader prints a dim subsection title.
func SubHeader(title string) {
	_, _ = Dim.Println(title)
}

// Label returns s styled as a field label (bold), for inline use with
// fmt.Printf alongside an unstyled value.
func Label(s string) string { return Bold.Sprint(s) }

// DimText returns s styled as secondary, de-emphasized text.
func DimText(s string) string { return Dim.Sprint(s) }

// CountText returns n formatted for display, bolded, since counts are
// usually the one number in a line worth drawing the eye to.
func CountText(n int) string { return Bold.Sprint(n) }

// Info prints an informational line prefixed with a cyan marker.
func Info(msg string) {
	fmt.Printf("%s %s\n", Cyan.Sprint("i"), msg)
}

// Infof is Info with formatting.
func Infof(format string, args ...interface{}) { Info(fmt.Sprintf(format, args...)) }

// Success prints a green checkmark line.
func Success(msg string) {
	_, _ = Green.Printf("%s %s\n", "✓", msg)
}

// Successf is Success with formatting.
func Successf(format string, args ...interface{}) { Success(fmt.Sprintf(format, args...)) }

// Warning prints a yellow warning line to stderr.
func Warning(msg string) {
	_, _ = Yellow.Fprintf(os.Stderr, "warning: %s\n", msg)
}

// Warningf is Warning with formatting.
func Warningf(format string, args ...interface{}) { Warning(fmt.Sprintf(format, args...)) }

// Errorln prints a red error line to stderr.
func Errorln(msg string) {
	_, _ = Red.Fprintf(os.Stderr, "error: %s\n", msg)
}
