// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging sets up the diagnostic logger.
//
// The CLI stays quiet by default. With debug enabled, zerolog writes
// human-readable lines to a log file in the config directory so device
// flow and inference failures can be inspected after the fact.
package logging

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// New returns a logger writing to logPath when debug is true, and a
// no-op logger otherwise. Failures to open the log file degrade to the
// no-op logger; diagnostics must never break the CLI itself.
func New(debug bool, logPath string) zerolog.Logger {
	if !debug {
		return zerolog.Nop()
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return zerolog.Nop()
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return zerolog.Nop()
	}

	writer := zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: "2006-01-02 15:04:05"}
	return zerolog.New(writer).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}
