// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Shared wiring for the wakeup command handlers.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/wakeup/internal/api"
	"github.com/jeranaias/wakeup/internal/auth"
	"github.com/jeranaias/wakeup/internal/config"
	"github.com/jeranaias/wakeup/internal/logging"
	"github.com/jeranaias/wakeup/internal/store"
)

// Error variables for authentication preconditions.
var (
	// ErrNotLoggedIn indicates no credential is stored.
	ErrNotLoggedIn = errors.New("not logged in; run 'wakeup login' first")

	// ErrSessionExpired indicates the stored credential is expired or
	// about to expire.
	ErrSessionExpired = errors.New("session expired; run 'wakeup login' again")
)

// App bundles the configuration and logger shared by every handler.
type App struct {
	// Dir is the wakeup config directory (~/.wakeup).
	Dir string

	Config *config.Config
	Logger zerolog.Logger
}

// NewApp loads the configuration and prepares the config directory.
func NewApp() (*App, error) {
	dir := config.DefaultDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	return &App{
		Dir:    dir,
		Config: cfg,
		Logger: logging.New(cfg.Debug, config.LogPath(dir)),
	}, nil
}

// tokenStore returns the credential store for this App.
func (a *App) tokenStore() *auth.TokenStore {
	return auth.NewTokenStore(a.Dir)
}

// session is the authenticated state behind every interactive loop.
type session struct {
	user   *api.User
	client *api.Client
}

// requireSession loads the stored credential, rejects expired ones,
// and resolves the account behind it. The two precondition errors are
// user-facing; anything else is a backend failure.
func (a *App) requireSession(ctx context.Context) (*session, error) {
	tok, err := a.tokenStore().Load()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, ErrNotLoggedIn
	}
	if tok.Expired(time.Now()) {
		return nil, ErrSessionExpired
	}

	client := api.NewClient(a.Config.Server.URL, tok.AccessToken).
		WithModel(a.Config.Chat.Model).
		WithLogger(a.Logger)

	user, err := client.Me(ctx)
	if err != nil {
		if errors.Is(err, api.ErrAuthFailed) {
			return nil, ErrSessionExpired
		}
		return nil, err
	}

	return &session{user: user, client: client}, nil
}

// openStore opens the conversation database in the config directory.
func (a *App) openStore() (*store.Store, error) {
	return store.Open(config.DatabasePath(a.Dir))
}
