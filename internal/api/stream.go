// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// =============================================================================
// STREAMING TYPES
// =============================================================================

// Stream event kinds emitted by the backend chat endpoint.
const (
	EventText       = "text"
	EventToolCall   = "tool_call"
	EventToolResult = "tool_result"
	EventDone       = "done"
)

// ToolCall is a tool invocation the model decided to make.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolResult is the outcome of one tool invocation.
type ToolResult struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Result any    `json:"result"`
}

// StreamEvent is one SSE event from the chat endpoint.
type StreamEvent struct {
	Type         string      `json:"type"`
	Content      string      `json:"content,omitempty"`
	ToolCall     *ToolCall   `json:"tool_call,omitempty"`
	ToolResult   *ToolResult `json:"tool_result,omitempty"`
	FinishReason string      `json:"finish_reason,omitempty"`
	Usage        *Usage      `json:"usage,omitempty"`
}

// StreamCallback is invoked for each event as it arrives.
type StreamCallback func(event StreamEvent)

// ChatRequest is the streaming chat payload. Messages carry the full
// replay history in ascending creation order; Tools names the enabled
// tools, empty for plain chat.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	Tools    []string      `json:"tools,omitempty"`
	Model    string        `json:"model,omitempty"`
	Stream   bool          `json:"stream"`
}

// StreamResult is the accumulated outcome of one streamed reply.
type StreamResult struct {
	Content      string
	FinishReason string
	Usage        *Usage
	ToolCalls    []ToolCall
	ToolResults  []ToolResult
}

// StreamError preserves partial content received before a mid-stream
// failure.
type StreamError struct {
	Partial string
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events from a stream.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates an SSE reader over r.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{reader: bufio.NewReader(r)}
}

// ReadEvent reads the next event, returning its type and data.
// Returns io.EOF when the stream ends.
func (s *SSEReader) ReadEvent() (string, []byte, error) {
	var eventType string
	var dataLines [][]byte

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				if len(dataLines) > 0 {
					return eventType, bytes.Join(dataLines, []byte("\n")), nil
				}
				return "", nil, io.EOF
			}
			return "", nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Blank line terminates the event.
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		switch {
		case bytes.HasPrefix(line, []byte("event:")):
			eventType = string(bytes.TrimSpace(line[6:]))
		case bytes.HasPrefix(line, []byte("data:")):
			dataLines = append(dataLines, bytes.TrimSpace(line[5:]))
		}
		// id:, retry:, and comment lines are ignored.
	}
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// ChatStream sends the conversation history and streams the reply.
// The callback sees every event in arrival order; the returned result
// holds the accumulated content, tool activity, and usage counters.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, callback StreamCallback) (*StreamResult, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	req.Stream = true
	if req.Model == "" {
		req.Model = c.model
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Msg("chat stream request failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		err := c.handleErrorResponse(resp.StatusCode, body)
		c.logger.Error().Err(err).Int("status", resp.StatusCode).Msg("chat stream rejected")
		return nil, err
	}

	return c.processStream(ctx, resp.Body, callback)
}

// processStream reads SSE events until done, accumulating the result.
func (c *Client) processStream(ctx context.Context, body io.Reader, callback StreamCallback) (*StreamResult, error) {
	reader := NewSSEReader(body)
	result := &StreamResult{}
	var content strings.Builder

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		_, data, err := reader.ReadEvent()
		if err != nil {
			if err == io.EOF {
				result.Content = content.String()
				return result, nil
			}
			return nil, &StreamError{Partial: content.String(), Err: err}
		}

		if bytes.Equal(data, []byte("[DONE]")) {
			result.Content = content.String()
			return result, nil
		}

		var event StreamEvent
		if err := json.Unmarshal(data, &event); err != nil {
			// Skip malformed events rather than aborting the stream.
			continue
		}

		switch event.Type {
		case EventText:
			content.WriteString(event.Content)
		case EventToolCall:
			if event.ToolCall != nil {
				result.ToolCalls = append(result.ToolCalls, *event.ToolCall)
			}
		case EventToolResult:
			if event.ToolResult != nil {
				result.ToolResults = append(result.ToolResults, *event.ToolResult)
			}
		case EventDone:
			result.FinishReason = event.FinishReason
			result.Usage = event.Usage
		}

		if callback != nil {
			callback(event)
		}

		if event.Type == EventDone {
			result.Content = content.String()
			return result, nil
		}
	}
}
