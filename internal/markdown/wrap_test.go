// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"strings"
	"testing"
)

func TestWrapShortLineUnchanged(t *testing.T) {
	line := "short enough"
	got := wrapText(line, 40)
	if got != line {
		t.Errorf("got %q", got)
	}
}

func TestWrapLongLine(t *testing.T) {
	line := "alpha beta gamma delta epsilon zeta eta theta"
	width := 20
	got := wrapText(line, width)

	segments := strings.Split(got, "\n")
	if len(segments) < 2 {
		t.Fatalf("line was not wrapped: %q", got)
	}

	// No segment exceeds the width.
	for _, seg := range segments {
		if visibleWidth(seg) > width {
			t.Errorf("segment %q exceeds width %d", seg, width)
		}
	}

	// Joining the segments restores the original words in order.
	if strings.Join(segments, " ") != line {
		t.Errorf("words lost or reordered: %q", got)
	}
}

func TestWrapDoesNotSplitLongWord(t *testing.T) {
	word := strings.Repeat("x", 50)
	got := wrapText("tiny "+word, 20)

	segments := strings.Split(got, "\n")
	found := false
	for _, seg := range segments {
		if seg == word {
			found = true
		}
	}
	if !found {
		t.Errorf("long word was split: %q", got)
	}
}

func TestWrapMeasuresVisibleLengthOnly(t *testing.T) {
	// Heavily styled but visibly short; must not wrap.
	styled := "\x1b[1m\x1b[38;5;12malpha\x1b[0m \x1b[3mbeta\x1b[0m"
	got := wrapText(styled, 15)
	if strings.Contains(got, "\n") {
		t.Errorf("styled short line was wrapped: %q", got)
	}
}

func TestWrapSkipsRulesAndIndentedLines(t *testing.T) {
	rule := strings.Repeat("─", 60)
	if got := wrapText(rule, 20); got != rule {
		t.Errorf("rule was wrapped: %q", got)
	}

	code := "    indented code line that is much longer than the width limit here"
	if got := wrapText(code, 20); got != code {
		t.Errorf("indented line was wrapped: %q", got)
	}
}

func TestWrapEachLineIndependently(t *testing.T) {
	input := "one two three four five six seven\nshort"
	got := wrapText(input, 15)
	lines := strings.Split(got, "\n")
	if lines[len(lines)-1] != "short" {
		t.Errorf("second source line disturbed: %q", got)
	}
}

func TestStripANSI(t *testing.T) {
	styled := "\x1b[1mbold\x1b[0m and \x1b[38;5;10mgreen\x1b[0m"
	if got := StripANSI(styled); got != "bold and green" {
		t.Errorf("got %q", got)
	}
}

func TestRenderWrapsToWidthMinusFour(t *testing.T) {
	long := strings.Repeat("word ", 30)
	got := StripANSI(Render(long, 40))
	for _, line := range strings.Split(got, "\n") {
		if visibleWidth(line) > 36 {
			t.Errorf("line %q exceeds width-4", line)
		}
	}
}
