// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"regexp"
	"strings"

	"github.com/jeranaias/wakeup/internal/util"
)

// ansiRe matches SGR escape sequences.
var ansiRe = regexp.MustCompile("\x1b\\[[0-9;]*m")

// StripANSI removes styling escape sequences from s.
func StripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

// visibleWidth measures the display width of s with styling excluded.
func visibleWidth(s string) int {
	return util.StringWidth(StripANSI(s))
}

// wrapText wraps every line independently to the given visible width.
// Drawn rules and indented lines (code bodies, list continuations)
// pass through unwrapped. Words never split; a single word wider than
// the limit keeps its own line.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	lines := strings.Split(text, "\n")
	var out []string
	for _, line := range lines {
		out = append(out, wrapLine(line, width)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(line string, width int) []string {
	if visibleWidth(line) <= width {
		return []string{line}
	}

	visible := StripANSI(line)
	// Rules are a fixed drawing; indented lines are code or aligned
	// continuations whose layout must survive.
	if strings.Contains(visible, "─") || strings.HasPrefix(visible, "    ") {
		return []string{line}
	}

	var out []string
	var current strings.Builder
	currentWidth := 0

	for _, word := range strings.Split(line, " ") {
		w := visibleWidth(word)
		if currentWidth == 0 {
			current.WriteString(word)
			currentWidth = w
			continue
		}
		if currentWidth+1+w > width {
			out = append(out, current.String())
			current.Reset()
			current.WriteString(word)
			currentWidth = w
			continue
		}
		current.WriteString(" ")
		current.WriteString(word)
		currentWidth += 1 + w
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	if len(out) == 0 {
		return []string{line}
	}
	return out
}
