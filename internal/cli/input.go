// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// input.go - Line input with history for the wakeup session loops.

package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/peterh/liner"
)

// =============================================================================
// INPUT WITH HISTORY
// =============================================================================

// LineReader wraps liner with a persistent history file. Arrow keys
// navigate history; Ctrl+C aborts the current prompt only.
type LineReader struct {
	line        *liner.State
	historyFile string
	maxEntries  int
}

// NewLineReader creates a reader whose history persists at
// historyFile, keeping at most maxEntries lines on disk.
func NewLineReader(historyFile string, maxEntries int) *LineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &LineReader{
		line:        line,
		historyFile: historyFile,
		maxEntries:  maxEntries,
	}
	r.loadHistory()
	return r
}

// loadHistory reads prior prompts from the history file.
func (r *LineReader) loadHistory() {
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line with the given prompt. Non-empty input is
// appended to history. Returns liner.ErrPromptAborted on Ctrl+C and
// io.EOF on Ctrl+D.
func (r *LineReader) ReadInput(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists history with owner-only permissions, trimmed
// to the configured size.
func (r *LineReader) SaveHistory() {
	var buf bytes.Buffer
	if _, err := r.line.WriteHistory(&buf); err != nil {
		return
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if r.maxEntries > 0 && len(lines) > r.maxEntries {
		lines = lines[len(lines)-r.maxEntries:]
	}

	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	for _, line := range lines {
		if line != "" {
			fmt.Fprintln(f, line)
		}
	}
}

// Close saves history and restores the terminal.
func (r *LineReader) Close() {
	r.SaveHistory()
	r.line.Close()
}

// =============================================================================
// SIMPLE PROMPTS
// =============================================================================

// promptInput reads one line from stdin without history. Used for
// one-shot questions outside the REPL loops.
func promptInput(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// confirm asks a yes/no question, defaulting to no.
func confirm(prompt string) bool {
	answer := strings.ToLower(promptInput(prompt + " [y/N]: "))
	return answer == "y" || answer == "yes"
}
