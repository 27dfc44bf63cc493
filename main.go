// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// wakeup is a terminal client for the wakeup assistant: device-flow
// login, streamed chat with markdown rendering, tool-enabled chat, and
// application generation.
//
// This file is the only place the process exits. Handlers return
// errors; graceful completion and user cancellation exit 0, everything
// else exits 1.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/jeranaias/wakeup/internal/cli"
)

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdVersion:
		cli.PrintVersion()
		return
	case cli.CmdHelp:
		cli.PrintUsage()
		return
	case cli.CmdUnknown:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args.Raw[0])
		cli.PrintUsage()
		os.Exit(1)
	}

	app, err := cli.NewApp()
	if err != nil {
		fail(err)
	}

	switch cmd {
	case cli.CmdLogin:
		// Ctrl+C while polling for approval cancels the login.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err = app.Login(ctx)
		stop()
	case cli.CmdLogout:
		err = app.Logout()
	case cli.CmdWhoami:
		err = app.Whoami(context.Background())
	case cli.CmdChat:
		err = app.Chat(context.Background(), args.ConversationID)
	case cli.CmdTools:
		err = app.Tools(context.Background(), args.ConversationID)
	case cli.CmdAgent:
		err = app.Agent(context.Background())
	case cli.CmdMenu:
		err = app.Menu(context.Background())
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		fail(err)
	}
}

// fail prints the error and exits non-zero.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
