// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// =============================================================================
// CODE BLOCK EXTRACTION
// =============================================================================

// codeBlockRe matches a fenced block with an optional language tag,
// across both line-ending conventions.
var codeBlockRe = regexp.MustCompile("(?s)```(\\w*)\r?\n(.*?)```")

// placeholder produces the token that stands in for block n while the
// inline passes run. NUL delimiters keep it from colliding with any
// text the model could plausibly emit.
func placeholder(n int) string {
	return fmt.Sprintf("\x00CODEBLOCK%d\x00", n)
}

// extractCodeBlocks replaces every fenced block with a placeholder and
// stashes the rendered block by index. Running this first guarantees
// the inline styling passes never alter code content.
func extractCodeBlocks(text string) (string, []string) {
	var blocks []string
	out := codeBlockRe.ReplaceAllStringFunc(text, func(match string) string {
		sub := codeBlockRe.FindStringSubmatch(match)
		lang, code := sub[1], sub[2]
		blocks = append(blocks, renderCodeBlock(lang, code))
		return placeholder(len(blocks) - 1)
	})
	return out, blocks
}

// restoreCodeBlocks substitutes each placeholder back with its stashed
// rendered block.
func restoreCodeBlocks(text string, blocks []string) string {
	for i, block := range blocks {
		text = strings.Replace(text, placeholder(i), block, 1)
	}
	return text
}

// =============================================================================
// CODE BLOCK RENDERING
// =============================================================================

const codeBorderWidth = 50

// renderCodeBlock draws one fenced block: top border, optional
// language label, highlighted body indented four spaces, bottom
// border.
func renderCodeBlock(lang, code string) string {
	code = strings.TrimSpace(code)
	border := codeBorderStyle.Render(strings.Repeat("─", codeBorderWidth))

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(border)
	b.WriteString("\n")
	if lang != "" {
		b.WriteString(langLabelStyle.Render("  [" + lang + "]"))
		b.WriteString("\n")
	}

	for _, line := range strings.Split(highlightCode(code, lang), "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(border)
	b.WriteString("\n")
	return b.String()
}

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// highlightCode applies chroma highlighting. If anything fails the
// code comes back unstyled rather than dropped.
func highlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}
