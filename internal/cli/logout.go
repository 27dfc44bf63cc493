// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// logout.go - Credential removal for the wakeup CLI.

package cli

import "fmt"

// Logout deletes the stored credential. Logging out while already
// logged out succeeds; the end state is the same either way.
func (a *App) Logout() error {
	if err := a.tokenStore().Clear(); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Logged out."))
	return nil
}
