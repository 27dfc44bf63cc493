// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat loop for the wakeup CLI.
//
// Shared by "wakeup chat" and "wakeup tools"; the only difference is
// the enabled tool set. The reply is buffered while streaming and
// rendered as markdown once complete, so formatting passes see whole
// constructs instead of chunk fragments.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/peterh/liner"

	"github.com/jeranaias/wakeup/internal/api"
	"github.com/jeranaias/wakeup/internal/config"
	"github.com/jeranaias/wakeup/internal/markdown"
	"github.com/jeranaias/wakeup/internal/store"
	"github.com/jeranaias/wakeup/internal/util"
)

// thinkingLine is shown while waiting for the first chunk.
const thinkingLine = "thinking..."

// Chat starts a plain chat session, resuming conversationID when one
// is given.
func (a *App) Chat(ctx context.Context, conversationID string) error {
	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}
	return a.runChatLoop(ctx, sess, conversationID, store.ModeChat, api.ToolSet{})
}

// runChatLoop drives one REPL session against a conversation.
func (a *App) runChatLoop(ctx context.Context, sess *session, conversationID, mode string, tools api.ToolSet) error {
	if err := requireInteractive(); err != nil {
		return err
	}

	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	conv, err := st.GetOrCreate(ctx, sess.user.ID, conversationID, mode)
	if err != nil {
		return err
	}

	// Replay history so a resumed conversation reads naturally, and
	// seed the request history from it.
	history, hadUserMessage, err := a.replayConversation(ctx, st, conv)
	if err != nil {
		return err
	}

	reader := NewLineReader(config.HistoryPath(a.Dir), a.Config.Chat.HistorySize)
	defer reader.Close()

	fmt.Println()
	fmt.Println(infoStyle.Render("Type a message and press Enter. 'exit' or Ctrl+D leaves the session."))
	if tools.Len() > 0 {
		fmt.Println(dimStyle.Render("Tools enabled: " + strings.Join(tools.IDs(), ", ")))
	}
	fmt.Println()

	// Ctrl+C during streaming cancels the in-flight reply only; at the
	// prompt, liner reports it as ErrPromptAborted.
	var canceller streamCanceller
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			canceller.Cancel()
		}
	}()

	for {
		input, err := reader.ReadInput(promptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C or Ctrl+D at the prompt ends the session.
			if err == liner.ErrPromptAborted {
				fmt.Println()
			}
			fmt.Println(infoStyle.Render("Goodbye!"))
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			fmt.Println(infoStyle.Render("Goodbye!"))
			return nil
		}

		if _, err := st.AddMessage(ctx, conv.ID, "user", input); err != nil {
			return err
		}

		hadUserMessage = a.autoTitle(ctx, st, sess.user.ID, conv.ID, input, hadUserMessage)

		history = append(history, api.NewUserMessage(input))

		streamCtx, cancel := context.WithCancel(ctx)
		canceller.Set(cancel)
		result, err := a.streamReply(streamCtx, sess, st, conv.ID, history, tools)
		canceller.Clear()
		cancel()

		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println()
				fmt.Println(warningStyle.Render("[Cancelled]"))
				continue
			}
			a.Logger.Error().Err(err).Str("conversation", conv.ID).Msg("inference failed")
			fmt.Println()
			fmt.Println(errorStyle.Render("[Error]") + " " + err.Error())
			continue
		}

		history = append(history, api.NewAssistantMessage(result.Content))
	}
}

// replayConversation prints prior messages and rebuilds the request
// history from them.
func (a *App) replayConversation(ctx context.Context, st *store.Store, conv *store.Conversation) ([]api.ChatMessage, bool, error) {
	msgs, err := st.Messages(ctx, conv.ID)
	if err != nil {
		return nil, false, err
	}

	history := make([]api.ChatMessage, 0, len(msgs))
	hadUser := false

	if len(msgs) > 0 {
		fmt.Println()
		fmt.Println(dimStyle.Render("Resuming: " + conv.Title))
		fmt.Println(renderSeparator(40))
	}

	for _, msg := range msgs {
		switch msg.Role {
		case "user":
			hadUser = true
			fmt.Println()
			fmt.Println(promptStyle.Render("you> ") + msg.Text())
			history = append(history, api.NewUserMessage(msg.Text()))
		case "assistant":
			fmt.Println(markdown.Render(msg.Text(), GetTerminalWidth()))
			history = append(history, api.NewAssistantMessage(msg.Text()))
		default:
			// Tool activity is displayed, not replayed into the
			// request history; the backend reconstructs tool context.
			fmt.Println(dimStyle.Render("[" + msg.Role + "] " + msg.Text()))
		}
	}

	return history, hadUser, nil
}

// streamReply sends the history, shows progress while streaming, and
// persists the reply and any tool activity.
func (a *App) streamReply(ctx context.Context, sess *session, st *store.Store, convID string, history []api.ChatMessage, tools api.ToolSet) (*api.StreamResult, error) {
	fmt.Println()
	fmt.Print(dimStyle.Render(thinkingLine))
	cleared := false
	clearThinking := func() {
		if !cleared {
			fmt.Print("\r" + strings.Repeat(" ", len(thinkingLine)) + "\r")
			cleared = true
		}
	}

	req := api.ChatRequest{
		Messages: history,
		Tools:    tools.IDs(),
	}

	result, err := sess.client.ChatStream(ctx, req, func(event api.StreamEvent) {
		switch event.Type {
		case api.EventText:
			clearThinking()
		case api.EventToolCall:
			clearThinking()
			if event.ToolCall != nil {
				printToolCall(*event.ToolCall)
			}
		case api.EventToolResult:
			clearThinking()
			if event.ToolResult != nil {
				printToolResult(*event.ToolResult)
			}
		}
	})
	clearThinking()
	if err != nil {
		// Keep whatever arrived before a mid-stream failure.
		var streamErr *api.StreamError
		if errors.As(err, &streamErr) && streamErr.Partial != "" {
			fmt.Println(markdown.Render(streamErr.Partial, GetTerminalWidth()))
			fmt.Println(warningStyle.Render("[Response interrupted]"))
			if _, saveErr := st.AddMessage(ctx, convID, "assistant", streamErr.Partial); saveErr != nil {
				a.Logger.Warn().Err(saveErr).Msg("failed to save partial reply")
			}
		}
		return nil, err
	}

	fmt.Println(markdown.Render(result.Content, GetTerminalWidth()))

	if _, err := st.AddMessage(ctx, convID, "assistant", result.Content); err != nil {
		return nil, err
	}
	a.saveToolActivity(ctx, st, convID, result)

	if result.Usage != nil {
		fmt.Println(dimStyle.Render(fmt.Sprintf("[%d tokens]", result.Usage.TotalTokens)))
	}
	return result, nil
}

// autoTitle names a fresh conversation after its first user message,
// truncated to the title limit. Once a user message exists, later
// messages never change the title. Returns whether a user message now
// exists.
func (a *App) autoTitle(ctx context.Context, st *store.Store, userID, convID, input string, hadUserMessage bool) bool {
	if hadUserMessage {
		return true
	}
	title := util.TruncateRunes(input, 50)
	if err := st.SetTitle(ctx, userID, convID, title); err != nil {
		a.Logger.Warn().Err(err).Msg("failed to set conversation title")
	}
	return true
}

// saveToolActivity persists tool calls and results under the "tool"
// role; the payload shape distinguishes a call from a result.
func (a *App) saveToolActivity(ctx context.Context, st *store.Store, convID string, result *api.StreamResult) {
	for _, call := range result.ToolCalls {
		if _, err := st.AddMessage(ctx, convID, "tool", call); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to save tool call")
		}
	}
	for _, res := range result.ToolResults {
		if _, err := st.AddMessage(ctx, convID, "tool", res); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to save tool result")
		}
	}
}

// streamCanceller hands the active stream's cancel function between
// the REPL loop and the signal goroutine.
type streamCanceller struct {
	fn atomic.Pointer[context.CancelFunc]
}

// Set installs the cancel function for the in-flight stream.
func (c *streamCanceller) Set(cancel context.CancelFunc) {
	c.fn.Store(&cancel)
}

// Clear detaches the current cancel function; later Cancel calls are
// no-ops until the next Set.
func (c *streamCanceller) Clear() {
	c.fn.Store(nil)
}

// Cancel invokes the installed cancel function, if any.
func (c *streamCanceller) Cancel() {
	if p := c.fn.Load(); p != nil {
		(*p)()
	}
}
