// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tools.go - Tool-enabled chat for the wakeup CLI.

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/wakeup/internal/api"
	"github.com/jeranaias/wakeup/internal/store"
	"github.com/jeranaias/wakeup/internal/util"
)

// Tools starts a chat session with a user-selected tool set.
func (a *App) Tools(ctx context.Context, conversationID string) error {
	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	tools := selectTools()
	if tools.Len() == 0 {
		fmt.Println(warningStyle.Render("No tools selected; running as plain chat."))
	}

	return a.runChatLoop(ctx, sess, conversationID, store.ModeTool, tools)
}

// selectTools prompts for the tools to enable. Empty input enables
// everything; the returned set is immutable for the whole session.
func selectTools() api.ToolSet {
	defs := api.DefaultTools()

	fmt.Println()
	fmt.Println(titleStyle.Render("Available tools"))
	for i, def := range defs {
		fmt.Printf("  %d) %-16s %s\n", i+1, def.Name, dimStyle.Render(def.Description))
	}
	fmt.Println()

	answer := promptInput(infoStyle.Render("Enable which tools? (numbers, comma-separated; Enter for all): "))
	if answer == "" {
		ids := make([]string, len(defs))
		for i, def := range defs {
			ids[i] = def.ID
		}
		return api.NewToolSet(ids...)
	}

	set := api.NewToolSet()
	for _, field := range strings.Split(answer, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || n < 1 || n > len(defs) {
			continue
		}
		set = set.With(defs[n-1].ID)
	}
	return set
}

// =============================================================================
// TOOL ACTIVITY DISPLAY
// =============================================================================

// printToolCall shows a tool invocation in a bordered box.
func printToolCall(call api.ToolCall) {
	var body strings.Builder
	body.WriteString(highlightStyle.Render("tool: " + call.Name))
	if len(call.Arguments) > 0 {
		body.WriteString("\n")
		body.WriteString(dimStyle.Render(compactJSON(call.Arguments)))
	}
	fmt.Println(toolBoxStyle.Render(body.String()))
}

// printToolResult shows a tool outcome in a bordered box.
func printToolResult(res api.ToolResult) {
	var body strings.Builder
	body.WriteString(infoStyle.Render("result: " + res.Name))
	body.WriteString("\n")
	body.WriteString(util.TruncateRunes(compactJSON(res.Result), 200))
	fmt.Println(toolBoxStyle.Render(body.String()))
}

// compactJSON renders a value as one-line JSON for box display.
func compactJSON(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
