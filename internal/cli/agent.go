// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// agent.go - Application generation for the wakeup CLI.
//
// The agent mode asks for a description, confirms a working directory,
// requests a structured generation result from the backend, and writes
// the returned files. A failed generation offers a retry with the same
// prompt rather than dropping the user back to the shell.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/wakeup/internal/api"
)

// Agent runs one generation session.
func (a *App) Agent(ctx context.Context) error {
	if err := requireInteractive(); err != nil {
		return err
	}

	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("wakeup agent"))
	fmt.Println()

	prompt := promptInput(infoStyle.Render("Describe the application to generate: "))
	if strings.TrimSpace(prompt) == "" {
		fmt.Println(infoStyle.Render("Nothing to do."))
		return nil
	}

	dir, err := chooseWorkingDir()
	if err != nil {
		return err
	}
	if dir == "" {
		fmt.Println(infoStyle.Render("Cancelled."))
		return nil
	}

	for {
		fmt.Println()
		fmt.Println(dimStyle.Render("Generating... this can take a minute."))

		result, err := sess.client.GenerateApp(ctx, api.AgentRequest{Prompt: prompt})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			a.Logger.Error().Err(err).Msg("generation failed")
			fmt.Println(errorStyle.Render("[Error]") + " " + err.Error())
			if !confirm(infoStyle.Render("Try again with the same prompt?")) {
				return nil
			}
			continue
		}

		if err := writeGeneratedFiles(dir, result.Files); err != nil {
			return err
		}

		fmt.Println()
		if result.Summary != "" {
			fmt.Println(result.Summary)
			fmt.Println()
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("Wrote %d file(s) to %s", len(result.Files), dir)))
		return nil
	}
}

// chooseWorkingDir asks where generated files should go and requires
// explicit consent before anything is written. Returns "" on decline.
func chooseWorkingDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	def := filepath.Join(cwd, "generated-app")

	dir := promptInput(infoStyle.Render(fmt.Sprintf("Output directory [%s]: ", def)))
	if dir == "" {
		dir = def
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("invalid directory: %w", err)
	}

	if !confirm(warningStyle.Render("Files will be written under " + abs + ". Continue?")) {
		return "", nil
	}
	return abs, nil
}

// writeGeneratedFiles writes each returned file under dir, rejecting
// paths that would escape it.
func writeGeneratedFiles(dir string, files []api.GeneratedFile) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	for _, f := range files {
		rel := filepath.Clean(f.Path)
		if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("refusing to write outside output directory: %q", f.Path)
		}

		target := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", rel, err)
		}
		if err := os.WriteFile(target, []byte(f.Content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", rel, err)
		}
		fmt.Println(dimStyle.Render("  wrote ") + rel)
	}
	return nil
}
