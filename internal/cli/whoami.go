// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// whoami.go - Account lookup for the wakeup CLI.

package cli

import (
	"context"
	"fmt"
	"time"
)

// Whoami resolves the stored credential against the backend and prints
// the account. Local file presence alone is not enough; the server has
// the final say on whether the credential is still good.
func (a *App) Whoami(ctx context.Context) error {
	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", infoStyle.Render("Name: "), sess.user.Name)
	fmt.Printf("%s %s\n", infoStyle.Render("Email:"), sess.user.Email)

	if tok, _ := a.tokenStore().Load(); tok != nil && tok.ExpiresAt != nil {
		remaining := time.Until(*tok.ExpiresAt).Round(time.Minute)
		fmt.Printf("%s %s\n", dimStyle.Render("Token:"), dimStyle.Render(fmt.Sprintf("expires in %s", remaining)))
	}
	return nil
}
