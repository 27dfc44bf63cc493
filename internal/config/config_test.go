// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.URL != "http://localhost:3000" {
		t.Errorf("url = %q", cfg.Server.URL)
	}
	if cfg.Server.ClientID != "wakeup-cli" {
		t.Errorf("client_id = %q", cfg.Server.ClientID)
	}
	if cfg.Debug {
		t.Errorf("debug should default to false")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
debug = true

[server]
url = "https://wakeup.example.com"
client_id = "my-cli"

[chat]
model = "gemini-2.0-flash"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.URL != "https://wakeup.example.com" {
		t.Errorf("url = %q", cfg.Server.URL)
	}
	if cfg.Server.ClientID != "my-cli" {
		t.Errorf("client_id = %q", cfg.Server.ClientID)
	}
	if cfg.Chat.Model != "gemini-2.0-flash" {
		t.Errorf("model = %q", cfg.Chat.Model)
	}
	if !cfg.Debug {
		t.Errorf("debug should be true")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := "[server]\nurl = \"http://from-file:3000\"\n"
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("WAKEUP_SERVER_URL", "http://from-env:4000")
	t.Setenv("WAKEUP_DEBUG", "1")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.URL != "http://from-env:4000" {
		t.Errorf("url = %q, env should win", cfg.Server.URL)
	}
	if !cfg.Debug {
		t.Errorf("WAKEUP_DEBUG=1 should enable debug")
	}
}

func TestLoadInvalidURL(t *testing.T) {
	t.Setenv("WAKEUP_SERVER_URL", "not a url")
	if _, err := Load(t.TempDir()); err == nil {
		t.Errorf("expected error for invalid url")
	}
}

func TestLoadBadTOML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("= broken"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Errorf("expected parse error")
	}
}
