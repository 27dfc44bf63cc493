// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// =============================================================================
// CONSTANTS AND ERRORS
// =============================================================================

const (
	// DefaultTimeout bounds non-streaming requests. Streaming requests
	// have no client timeout; they are controlled via context.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize caps non-streaming response bodies.
	MaxResponseSize = 10 * 1024 * 1024

	// userAgent identifies the CLI on backend requests.
	userAgent = "wakeup-cli"
)

// Error variables for common backend errors.
var (
	// ErrNotConfigured indicates no bearer token was provided.
	ErrNotConfigured = errors.New("not authenticated")

	// ErrAuthFailed indicates the server rejected the credential.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrServerError indicates a backend-side failure.
	ErrServerError = errors.New("server error")
)

// APIError is an error payload returned by the backend.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("api error (HTTP %d): %s", e.Status, e.Message)
}

// apiErrorResponse is the backend's error body shape.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// TYPES
// =============================================================================

// ChatMessage is a single {role, content} turn sent to the backend.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: "assistant", Content: content}
}

// Usage holds the token counters reported by the backend.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// User is the authenticated account behind the stored credential.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// GeneratedFile is one file produced by the agent endpoint.
type GeneratedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// AgentRequest asks the backend to generate an application.
type AgentRequest struct {
	Prompt   string        `json:"prompt"`
	Messages []ChatMessage `json:"messages,omitempty"`
}

// AgentResult is the structured output of a generation request.
type AgentResult struct {
	Summary string          `json:"summary"`
	Files   []GeneratedFile `json:"files"`
	Usage   *Usage          `json:"usage,omitempty"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the wakeup backend with a bearer credential.
type Client struct {
	baseURL      string
	token        string
	model        string
	httpClient   *http.Client
	streamClient *http.Client
	logger       zerolog.Logger
}

// NewClient creates a backend client for the given base URL and
// access token. An empty token still yields a usable client, but
// authenticated calls fail with ErrNotConfigured.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		// No timeout for streaming, controlled via context.
		streamClient: &http.Client{},
		logger:       zerolog.Nop(),
	}
}

// WithModel sets the model hint sent with chat requests.
func (c *Client) WithModel(model string) *Client {
	c.model = model
	return c
}

// WithHTTPClient sets the client used for all requests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	c.streamClient = hc
	return c
}

// WithLogger sets the diagnostic logger.
func (c *Client) WithLogger(logger zerolog.Logger) *Client {
	c.logger = logger
	return c
}

// IsConfigured reports whether a bearer token is present.
func (c *Client) IsConfigured() bool {
	return c.token != ""
}

// =============================================================================
// REQUESTS
// =============================================================================

// Me returns the account that owns the current credential.
func (c *Client) Me(ctx context.Context) (*User, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, body)
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

// GenerateApp asks the backend for a structured code-generation
// result. Non-streaming; the agent loop shows a spinner while waiting.
func (c *Client) GenerateApp(ctx context.Context, req AgentRequest) (*AgentResult, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/agent/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Msg("agent generation request failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := c.handleErrorResponse(resp.StatusCode, body)
		c.logger.Error().Err(err).Int("status", resp.StatusCode).Msg("agent generation rejected")
		return nil, err
	}

	var result AgentResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode generation result: %w", err)
	}
	return &result, nil
}

// setHeaders applies the standard headers to an outgoing request.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
}

// handleErrorResponse maps an HTTP error status to a sentinel or typed
// error, preserving the server's message where present.
func (c *Client) handleErrorResponse(status int, body []byte) error {
	var apiErr apiErrorResponse
	message := strings.TrimSpace(string(body))
	code := ""
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
		code = apiErr.Error.Code
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuthFailed, message)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, message)
	case status >= 500:
		return fmt.Errorf("%w: %s", ErrServerError, message)
	default:
		return &APIError{Code: code, Message: message, Status: status}
	}
}
