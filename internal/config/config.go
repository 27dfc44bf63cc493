// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for wakeup.
//
// Precedence, lowest to highest: built-in defaults, ~/.wakeup/config.toml,
// a local .env file, then WAKEUP_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete wakeup configuration.
type Config struct {
	// Server settings
	Server ServerConfig `toml:"server"`

	// Chat settings
	Chat ChatConfig `toml:"chat"`

	// Debug enables diagnostic logging to ~/.wakeup/debug.log.
	Debug bool `toml:"debug"`
}

// ServerConfig points the CLI at a wakeup backend.
type ServerConfig struct {
	// URL is the backend base URL, also used for device authorization.
	URL string `toml:"url"`
	// ClientID identifies this CLI to the authorization server.
	ClientID string `toml:"client_id"`
}

// ChatConfig holds chat session settings.
type ChatConfig struct {
	// Model is an optional model hint forwarded to the backend.
	Model string `toml:"model"`
	// HistorySize caps the prompt history file.
	HistorySize int `toml:"history_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:      "http://localhost:3000",
			ClientID: "wakeup-cli",
		},
		Chat: ChatConfig{
			HistorySize: 1000,
		},
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration from dir (the wakeup config directory;
// empty resolves to ~/.wakeup). A missing config file is fine, the
// defaults apply.
func Load(dir string) (*Config, error) {
	cfg := Default()

	if dir == "" {
		dir = DefaultDir()
	}

	// A .env in the working directory is picked up for local
	// development; absence is not an error.
	_ = godotenv.Load()

	path := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets environment variables win over file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WAKEUP_SERVER_URL"); v != "" {
		cfg.Server.URL = v
	}
	if v := os.Getenv("WAKEUP_CLIENT_ID"); v != "" {
		cfg.Server.ClientID = v
	}
	if v := os.Getenv("WAKEUP_MODEL"); v != "" {
		cfg.Chat.Model = v
	}
	if v := os.Getenv("WAKEUP_DEBUG"); v != "" {
		cfg.Debug = v == "1" || strings.EqualFold(v, "true")
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid server url: %q", c.Server.URL)
	}
	if c.Server.ClientID == "" {
		return fmt.Errorf("client_id must not be empty")
	}
	if c.Chat.HistorySize <= 0 {
		c.Chat.HistorySize = 1000
	}
	return nil
}

// =============================================================================
// PATHS
// =============================================================================

// DefaultDir returns the wakeup config directory under the user's
// home, falling back to the working directory if home is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wakeup"
	}
	return filepath.Join(home, ".wakeup")
}

// DatabasePath returns the conversation database path inside dir.
func DatabasePath(dir string) string {
	return filepath.Join(dir, "wakeup.db")
}

// HistoryPath returns the prompt history file path inside dir.
func HistoryPath(dir string) string {
	return filepath.Join(dir, "history")
}

// LogPath returns the debug log path inside dir.
func LogPath(dir string) string {
	return filepath.Join(dir, "debug.log")
}
