// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// menu.go - The interactive wake-up menu shown by a bare "wakeup".

package cli

import (
	"context"
	"fmt"
	"strings"
)

// Menu verifies the stored credential, greets the user, and loops over
// the mode menu until the user exits.
func (a *App) Menu(ctx context.Context) error {
	if err := requireInteractive(); err != nil {
		return err
	}

	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	name := sess.user.Name
	if name == "" {
		name = sess.user.Email
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("wakeup") + " " + infoStyle.Render("- hello, "+name))
	fmt.Println(renderSeparator(40))

	for {
		fmt.Println()
		fmt.Println("  1) chat   " + dimStyle.Render("plain conversation"))
		fmt.Println("  2) tools  " + dimStyle.Render("conversation with search, code execution, URL context"))
		fmt.Println("  3) agent  " + dimStyle.Render("generate an application from a prompt"))
		fmt.Println("  4) recent " + dimStyle.Render("list conversations to resume"))
		fmt.Println("  5) exit")
		fmt.Println()

		choice := strings.ToLower(promptInput(promptStyle.Render("wakeup> ")))

		var err error
		switch choice {
		case "1", "chat":
			err = a.Chat(ctx, "")
		case "2", "tools":
			err = a.Tools(ctx, "")
		case "3", "agent":
			err = a.Agent(ctx)
		case "4", "recent", "list":
			err = a.listRecent(ctx, sess.user.ID)
		case "5", "exit", "quit", "q", "":
			fmt.Println(infoStyle.Render("Goodbye!"))
			return nil
		default:
			fmt.Println(warningStyle.Render("Unknown choice: " + choice))
			continue
		}

		// A failed session returns to the menu rather than killing the
		// process; the user can pick another mode or exit.
		if err != nil {
			fmt.Println(errorStyle.Render("[Error]") + " " + err.Error())
		}
	}
}

// listRecent shows the user's conversations, newest activity first,
// with the id needed to resume one via --conversation.
func (a *App) listRecent(ctx context.Context, userID string) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	convs, err := st.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(convs) == 0 {
		fmt.Println(infoStyle.Render("No conversations yet."))
		return nil
	}

	fmt.Println()
	for _, c := range convs {
		fmt.Printf("  %s  %-6s %s\n",
			dimStyle.Render(c.ID),
			c.Mode,
			c.Title)
	}
	fmt.Println()
	fmt.Println(dimStyle.Render("Resume with: wakeup chat --conversation <id>"))
	return nil
}
