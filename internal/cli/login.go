// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// login.go - Device-authorization login for the wakeup CLI.

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/wakeup/internal/auth"
)

// Login runs the device-authorization flow and stores the credential.
// Ctrl+C while polling cancels cleanly; terminal flow errors surface
// as user-facing messages.
func (a *App) Login(ctx context.Context) error {
	flow := auth.NewDeviceFlow(a.Config.Server.URL, a.Config.Server.ClientID).
		WithLogger(a.Logger).
		OnCode(displayDeviceCode)

	fmt.Println(titleStyle.Render("wakeup login"))
	fmt.Println()

	grant, err := flow.Run(ctx)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			fmt.Println(infoStyle.Render("Login cancelled."))
			return nil
		case errors.Is(err, auth.ErrAccessDenied):
			return fmt.Errorf("login failed: %w", err)
		case errors.Is(err, auth.ErrDeviceCodeExpired):
			return fmt.Errorf("login failed: %w (run 'wakeup login' to try again)", err)
		default:
			return fmt.Errorf("login failed: %w", err)
		}
	}

	if _, err := a.tokenStore().Save(grant); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(successStyle.Render("Logged in.") + " " + infoStyle.Render("Run 'wakeup' to get started."))
	return nil
}

// displayDeviceCode shows the user code and verification URLs once the
// authorization session is issued.
func displayDeviceCode(authz auth.DeviceAuthorization) {
	fmt.Println(infoStyle.Render("To sign in, open the verification page in your browser:"))
	fmt.Println()
	fmt.Printf("  %s\n", authz.VerificationURI)
	if authz.VerificationURIComplete != "" {
		fmt.Printf("  %s %s\n", dimStyle.Render("(or directly:"), dimStyle.Render(authz.VerificationURIComplete+")"))
	}
	fmt.Println()
	fmt.Printf("  %s %s\n", infoStyle.Render("and enter the code:"), highlightStyle.Render(authz.UserCode))
	fmt.Println()
	fmt.Println(dimStyle.Render("Waiting for approval... press Ctrl+C to cancel."))
}
