// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing for the wakeup CLI.
//
// Commands:
//   wakeup                  Interactive wake-up menu (chat | tools | agent)
//   wakeup login            Sign in via device authorization
//   wakeup logout           Delete the stored credential
//   wakeup whoami           Show the signed-in account
//   wakeup chat             Start a plain chat session
//   wakeup tools            Start a chat session with tools enabled
//   wakeup agent            Generate an application from a prompt
//   wakeup version          Print version information
//   wakeup help             Print usage
package cli

import (
	"fmt"
	"os"
	"strings"
)

// =============================================================================
// VERSION INFO
// =============================================================================

// Version information, set at build time via ldflags.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command identifies which subcommand was requested.
type Command int

const (
	CmdMenu Command = iota
	CmdLogin
	CmdLogout
	CmdWhoami
	CmdChat
	CmdTools
	CmdAgent
	CmdVersion
	CmdHelp
	CmdUnknown
)

// Args holds the parsed command-line arguments.
type Args struct {
	// ConversationID resumes an existing conversation (chat/tools).
	ConversationID string

	// Raw holds any positional arguments after the subcommand.
	Raw []string
}

// usageText is the full help output.
const usageText = `wakeup - terminal client for the wakeup assistant

Usage:
  wakeup [command] [flags]

Commands:
  (none)     Open the interactive menu (requires login)
  login      Sign in via device authorization
  logout     Delete the stored credential
  whoami     Show the signed-in account
  chat       Start a plain chat session
  tools      Start a chat session with tools enabled
  agent      Generate an application from a prompt
  version    Print version information
  help       Show this help

Flags:
  --conversation ID    Resume an existing conversation (chat, tools)

Environment:
  WAKEUP_SERVER_URL    Backend base URL (default http://localhost:3000)
  WAKEUP_MODEL         Model hint forwarded to the backend
  WAKEUP_DEBUG         Set to 1 to log diagnostics to ~/.wakeup/debug.log
  NO_COLOR             Disable colored output

Version: %s
`

// PrintUsage prints the help text to stdout.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version details to stdout.
func PrintVersion() {
	fmt.Printf("wakeup %s\n", Version)
	fmt.Printf("  commit: %s\n", GitCommit)
	fmt.Printf("  built:  %s\n", BuildDate)
}

// Parse reads os.Args and returns the requested command and arguments.
func Parse() (Command, Args) {
	return parseArgs(os.Args[1:])
}

// parseArgs is the testable core of Parse.
func parseArgs(argv []string) (Command, Args) {
	var args Args

	rest := make([]string, 0, len(argv))
	for i := 0; i < len(argv); i++ {
		switch argv[i] {
		case "--conversation", "-c":
			if i+1 < len(argv) {
				args.ConversationID = argv[i+1]
				i++
			}
		case "--help", "-h":
			return CmdHelp, args
		case "--version", "-V":
			return CmdVersion, args
		default:
			rest = append(rest, argv[i])
		}
	}

	if len(rest) == 0 {
		return CmdMenu, args
	}

	cmd := strings.ToLower(rest[0])
	args.Raw = rest[1:]

	switch cmd {
	case "login":
		return CmdLogin, args
	case "logout":
		return CmdLogout, args
	case "whoami":
		return CmdWhoami, args
	case "chat":
		return CmdChat, args
	case "tools":
		return CmdTools, args
	case "agent":
		return CmdAgent, args
	case "version":
		return CmdVersion, args
	case "help":
		return CmdHelp, args
	default:
		// Keep the unrecognized word so the caller can name it.
		args.Raw = rest
		return CmdUnknown, args
	}
}
