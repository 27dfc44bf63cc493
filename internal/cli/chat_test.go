// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jeranaias/wakeup/internal/api"
	"github.com/jeranaias/wakeup/internal/store"
)

func newTestApp(t *testing.T) (*App, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "wakeup.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return &App{Logger: zerolog.Nop()}, st
}

func TestAutoTitleFirstMessageOnly(t *testing.T) {
	app, st := newTestApp(t)
	ctx := context.Background()

	conv, err := st.Create(ctx, "u1", store.ModeChat)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	had := app.autoTitle(ctx, st, "u1", conv.ID, "first question", false)
	if !had {
		t.Fatalf("autoTitle should report a user message exists")
	}

	got, err := st.Get(ctx, "u1", conv.ID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if got.Title != "first question" {
		t.Errorf("title = %q, want the first message", got.Title)
	}

	// A second message must not alter the title.
	app.autoTitle(ctx, st, "u1", conv.ID, "second question", had)

	got, err = st.Get(ctx, "u1", conv.ID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if got.Title != "first question" {
		t.Errorf("title changed by second message: %q", got.Title)
	}
}

func TestAutoTitleSkipsResumedConversation(t *testing.T) {
	app, st := newTestApp(t)
	ctx := context.Background()

	conv, err := st.Create(ctx, "u1", store.ModeChat)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	// Resuming seeds hadUserMessage=true; the replayed first message
	// already named the conversation in its original session.
	app.autoTitle(ctx, st, "u1", conv.ID, "a later message", true)

	got, err := st.Get(ctx, "u1", conv.ID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if got.Title != "New chat conversation" {
		t.Errorf("resumed conversation was retitled: %q", got.Title)
	}
}

func TestAutoTitleTruncates(t *testing.T) {
	app, st := newTestApp(t)
	ctx := context.Background()

	conv, err := st.Create(ctx, "u1", store.ModeChat)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	long := strings.Repeat("q", 80)
	app.autoTitle(ctx, st, "u1", conv.ID, long, false)

	got, err := st.Get(ctx, "u1", conv.ID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if len([]rune(got.Title)) != 50 {
		t.Errorf("title length = %d runes, want 50", len([]rune(got.Title)))
	}
	if !strings.HasSuffix(got.Title, "...") {
		t.Errorf("truncated title should end with ellipsis: %q", got.Title)
	}
}

func TestSaveToolActivityUsesToolRole(t *testing.T) {
	app, st := newTestApp(t)
	ctx := context.Background()

	conv, err := st.Create(ctx, "u1", store.ModeTool)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if _, err := st.AddMessage(ctx, conv.ID, "assistant", "done"); err != nil {
		t.Fatalf("add assistant message: %v", err)
	}

	app.saveToolActivity(ctx, st, conv.ID, &api.StreamResult{
		ToolCalls: []api.ToolCall{
			{ID: "t1", Name: "google_search", Arguments: map[string]any{"query": "go"}},
		},
		ToolResults: []api.ToolResult{
			{ID: "t1", Name: "google_search", Result: "3 hits"},
		},
	})

	msgs, err := st.Messages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("message count = %d, want 3", len(msgs))
	}

	for _, m := range msgs[1:] {
		if m.Role != "tool" {
			t.Errorf("tool activity stored with role %q, want \"tool\"", m.Role)
		}
		payload, ok := m.Content.(map[string]any)
		if !ok {
			t.Fatalf("tool payload not decoded as structured content: %T", m.Content)
		}
		if payload["name"] != "google_search" {
			t.Errorf("payload name = %v", payload["name"])
		}
	}

	// Call and result stay distinguishable by shape.
	call := msgs[1].Content.(map[string]any)
	if _, ok := call["arguments"]; !ok {
		t.Errorf("call payload lost its arguments: %v", call)
	}
	result := msgs[2].Content.(map[string]any)
	if result["result"] != "3 hits" {
		t.Errorf("result payload = %v", result)
	}
}

func TestStreamCanceller(t *testing.T) {
	var c streamCanceller

	// Cancel with nothing installed is a no-op.
	c.Cancel()

	ctx, cancel := context.WithCancel(context.Background())
	c.Set(cancel)
	c.Cancel()
	select {
	case <-ctx.Done():
	default:
		t.Errorf("installed cancel func was not invoked")
	}

	// After Clear, a later signal must not touch the next context.
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	c.Set(cancel2)
	c.Clear()
	c.Cancel()
	select {
	case <-ctx2.Done():
		t.Errorf("cleared canceller still cancelled the stream")
	default:
	}
}
