// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	h1Style = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true).Underline(true)
	h2Style = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true).Underline(true)
	h3Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	h4Style = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	h5Style = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	h6Style = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	inlineCodeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Background(lipgloss.Color("8"))
	boldStyle       = lipgloss.NewStyle().Bold(true)
	italicStyle     = lipgloss.NewStyle().Italic(true)
	strikeStyle     = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	linkTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Underline(true)
	linkURLStyle    = lipgloss.NewStyle().Faint(true)
	quoteStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	bulletStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	hrStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	codeBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	langLabelStyle  = lipgloss.NewStyle().Faint(true)
)

// =============================================================================
// RENDER
// =============================================================================

// Render transforms markdown into ANSI-styled terminal text wrapped to
// the given terminal width. Pure: same input and width, same output.
//
// Pass order matters. Code fences leave first so nothing else touches
// code; bold runs before italic so ** is never mis-read as two single
// markers; placeholders return before blank-line collapsing so block
// spacing is normalized with everything else.
func Render(md string, width int) string {
	if width <= 0 {
		width = 80
	}

	text, blocks := extractCodeBlocks(md)
	text = renderHeadings(text)
	text = renderHorizontalRules(text)
	text = renderInlineCode(text)
	text = renderBold(text)
	text = renderItalic(text)
	text = renderStrikethrough(text)
	text = renderLinks(text)
	text = renderBlockquotes(text)
	text = renderLists(text)
	text = restoreCodeBlocks(text, blocks)
	text = collapseBlankLines(text)
	text = wrapText(text, width-4)
	return strings.TrimSpace(text)
}

// =============================================================================
// PASSES
// =============================================================================

var headingRes = []struct {
	re     *regexp.Regexp
	indent string
	style  *lipgloss.Style
	spaced bool
}{
	// Deepest level first so "######" is never consumed by "#".
	{regexp.MustCompile(`(?m)^###### +(.+)$`), "        ", &h6Style, false},
	{regexp.MustCompile(`(?m)^##### +(.+)$`), "      ", &h5Style, false},
	{regexp.MustCompile(`(?m)^#### +(.+)$`), "    ", &h4Style, false},
	{regexp.MustCompile(`(?m)^### +(.+)$`), "  ", &h3Style, false},
	{regexp.MustCompile(`(?m)^## +(.+)$`), "", &h2Style, true},
	{regexp.MustCompile(`(?m)^# +(.+)$`), "", &h1Style, true},
}

// renderHeadings styles the six heading levels: emphasis decreases and
// indent grows with depth; level 1 and 2 get surrounding blank lines.
func renderHeadings(text string) string {
	for _, h := range headingRes {
		h := h
		text = h.re.ReplaceAllStringFunc(text, func(m string) string {
			title := h.re.FindStringSubmatch(m)[1]
			line := h.indent + h.style.Render(title)
			if h.spaced {
				return "\n" + line + "\n"
			}
			return line
		})
	}
	return text
}

const hrWidth = 60

var hrRe = regexp.MustCompile(`(?m)^[-*_]{3,} *$`)

// renderHorizontalRules turns marker lines into a drawn rule.
func renderHorizontalRules(text string) string {
	rule := hrStyle.Render(strings.Repeat("─", hrWidth))
	return hrRe.ReplaceAllString(text, rule)
}

// Inline code must not contain a backtick or newline.
var inlineCodeRe = regexp.MustCompile("`([^`\r\n]+)`")

func renderInlineCode(text string) string {
	return inlineCodeRe.ReplaceAllStringFunc(text, func(m string) string {
		code := inlineCodeRe.FindStringSubmatch(m)[1]
		return inlineCodeStyle.Render(" " + code + " ")
	})
}

var (
	boldStarRe       = regexp.MustCompile(`\*\*([^\n]+?)\*\*`)
	boldUnderscoreRe = regexp.MustCompile(`__([^\n]+?)__`)
)

func renderBold(text string) string {
	text = replaceGroupStyled(boldStarRe, text, boldStyle)
	text = replaceGroupStyled(boldUnderscoreRe, text, boldStyle)
	return text
}

var (
	// Bold has already consumed doubled markers, so a lone * pair is
	// safe to treat as italic.
	italicStarRe = regexp.MustCompile(`\*([^*\n]+?)\*`)

	// Underscore italic needs a non-word boundary on both sides so
	// snake_case identifiers survive. RE2 has no lookaround; the
	// boundary characters are captured and restored instead.
	italicUnderscoreRe = regexp.MustCompile(`(^|[^0-9A-Za-z_])_([^_\n]+?)_($|[^0-9A-Za-z_])`)
)

func renderItalic(text string) string {
	text = replaceGroupStyled(italicStarRe, text, italicStyle)

	// Two rounds: the first consumes the boundary character between
	// adjacent matches, hiding the second one until a rescan.
	for i := 0; i < 2; i++ {
		text = italicUnderscoreRe.ReplaceAllStringFunc(text, func(m string) string {
			sub := italicUnderscoreRe.FindStringSubmatch(m)
			return sub[1] + italicStyle.Render(sub[2]) + sub[3]
		})
	}
	return text
}

var strikeRe = regexp.MustCompile(`~~([^\n]+?)~~`)

func renderStrikethrough(text string) string {
	return replaceGroupStyled(strikeRe, text, strikeStyle)
}

var linkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// renderLinks shows the link text styled, followed by the dimmed URL
// in parentheses.
func renderLinks(text string) string {
	return linkRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := linkRe.FindStringSubmatch(m)
		return linkTextStyle.Render(sub[1]) + " " + linkURLStyle.Render("("+sub[2]+")")
	})
}

var blockquoteRe = regexp.MustCompile(`(?m)^> +(.+)$`)

func renderBlockquotes(text string) string {
	return blockquoteRe.ReplaceAllStringFunc(text, func(m string) string {
		quoted := blockquoteRe.FindStringSubmatch(m)[1]
		return "  " + quoteStyle.Render("│ "+quoted)
	})
}

var (
	ulRe = regexp.MustCompile(`(?m)^(\s*)[-*+] +(.+)$`)
	olRe = regexp.MustCompile(`(?m)^(\s*)(\d+)\. +(.+)$`)
)

// renderLists restyles list markers, preserving original indentation.
// Unordered markers become a bullet glyph; ordered markers keep their
// number.
func renderLists(text string) string {
	text = ulRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := ulRe.FindStringSubmatch(m)
		return sub[1] + bulletStyle.Render("•") + " " + sub[2]
	})
	text = olRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := olRe.FindStringSubmatch(m)
		return sub[1] + bulletStyle.Render(sub[2]+".") + " " + sub[3]
	})
	return text
}

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// collapseBlankLines squeezes runs of 3+ newlines down to one blank
// line. Idempotent.
func collapseBlankLines(text string) string {
	return blankRunRe.ReplaceAllString(text, "\n\n")
}

// replaceGroupStyled replaces each match with its first capture group
// rendered through style.
func replaceGroupStyled(re *regexp.Regexp, text string, style lipgloss.Style) string {
	return re.ReplaceAllStringFunc(text, func(m string) string {
		return style.Render(re.FindStringSubmatch(m)[1])
	})
}
