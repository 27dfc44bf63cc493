// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import "testing"

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want Command
	}{
		{"no args opens menu", nil, CmdMenu},
		{"login", []string{"login"}, CmdLogin},
		{"logout", []string{"logout"}, CmdLogout},
		{"whoami", []string{"whoami"}, CmdWhoami},
		{"chat", []string{"chat"}, CmdChat},
		{"tools", []string{"tools"}, CmdTools},
		{"agent", []string{"agent"}, CmdAgent},
		{"version", []string{"version"}, CmdVersion},
		{"help", []string{"help"}, CmdHelp},
		{"case insensitive", []string{"LOGIN"}, CmdLogin},
		{"help flag", []string{"--help"}, CmdHelp},
		{"version flag", []string{"--version"}, CmdVersion},
		{"unknown", []string{"frobnicate"}, CmdUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := parseArgs(tt.argv)
			if got != tt.want {
				t.Errorf("parseArgs(%v) = %v, want %v", tt.argv, got, tt.want)
			}
		})
	}
}

func TestParseArgsConversationFlag(t *testing.T) {
	cmd, args := parseArgs([]string{"chat", "--conversation", "abc123"})
	if cmd != CmdChat {
		t.Fatalf("cmd = %v", cmd)
	}
	if args.ConversationID != "abc123" {
		t.Errorf("conversation id = %q", args.ConversationID)
	}

	// Flag before the subcommand works too.
	cmd, args = parseArgs([]string{"-c", "abc123", "tools"})
	if cmd != CmdTools {
		t.Fatalf("cmd = %v", cmd)
	}
	if args.ConversationID != "abc123" {
		t.Errorf("conversation id = %q", args.ConversationID)
	}
}

func TestParseArgsUnknownKeepsWord(t *testing.T) {
	_, args := parseArgs([]string{"frobnicate", "x"})
	if len(args.Raw) == 0 || args.Raw[0] != "frobnicate" {
		t.Errorf("raw = %v, want the unknown word first", args.Raw)
	}
}
