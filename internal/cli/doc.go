// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the wakeup command surface.
//
// cli.go parses the command line into a Command plus Args; the
// handler files (login.go, chat.go, ...) implement one subcommand
// each on top of the shared App wiring in app.go. Library packages
// return typed errors; every failure exit happens in main.
package cli
