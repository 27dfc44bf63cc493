// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown renders model output as ANSI-styled terminal text.
//
// Render is a pure function of its input and the terminal width. It is
// a fixed pipeline of text-transform passes: fenced code blocks are
// pulled out first and replaced with placeholders so the inline passes
// can never touch code, then headings, rules, inline styles, quotes
// and lists are restyled, the code blocks are restored, blank runs are
// collapsed, and finally everything is word-wrapped to the terminal.
// Each pass is an ordinary function over text, so passes are testable
// in isolation and their order is explicit in Render.
package markdown
