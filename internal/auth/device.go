// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

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
	// DefaultScope is the scope requested when none is configured.
	DefaultScope = "openid profile email"

	// deviceCodePath issues a new device authorization.
	deviceCodePath = "/api/auth/device/code"

	// deviceTokenPath is polled for the grant result.
	deviceTokenPath = "/api/auth/device/token"

	// deviceGrantType is the RFC 8628 grant type identifier.
	deviceGrantType = "urn:ietf:params:oauth:grant-type:device_code"

	// defaultPollInterval is used when the server does not suggest one.
	defaultPollInterval = 5 * time.Second

	// slowDownIncrement is added to the poll interval on each slow_down.
	slowDownIncrement = 5 * time.Second

	// userAgent identifies the CLI on device-flow requests.
	userAgent = "wakeup-cli"

	// maxErrorBody caps how much of an error response body is read.
	maxErrorBody = 64 * 1024
)

// Error variables for terminal device-flow outcomes.
var (
	// ErrAccessDenied indicates the user rejected the authorization request.
	ErrAccessDenied = errors.New("access was denied by the user")

	// ErrDeviceCodeExpired indicates the device code expired before approval.
	ErrDeviceCodeExpired = errors.New("device code expired")
)

// DeviceFlowError is a non-retriable error returned by the authorization
// server, carrying the OAuth error code and description.
type DeviceFlowError struct {
	Code        string
	Description string
	Status      int
}

// Error implements the error interface.
func (e *DeviceFlowError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("device flow error [%s] (HTTP %d): %s", e.Code, e.Status, e.Description)
	}
	return fmt.Sprintf("device flow error [%s] (HTTP %d)", e.Code, e.Status)
}

// =============================================================================
// TYPES
// =============================================================================

// FlowState labels the poller's position in the grant state machine.
// It only surfaces in debug logs; callers observe typed errors instead.
type FlowState string

const (
	StateRequesting       FlowState = "REQUESTING"
	StateAwaitingApproval FlowState = "AWAITING_APPROVAL"
	StateApproved         FlowState = "APPROVED"
	StateDenied           FlowState = "DENIED"
	StateExpired          FlowState = "EXPIRED"
	StateFailed           FlowState = "FAILED"
)

// DeviceAuthorization is the transient session issued by the code
// endpoint. It lives only for the duration of one login attempt and is
// never persisted. DeviceCode stays internal; UserCode and the
// verification URLs are shown to the user.
type DeviceAuthorization struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete"`
	ExpiresIn               int64  `json:"expires_in"`
	Interval                int64  `json:"interval,omitempty"`
}

// oauthErrorResponse is the error body shape from both endpoints.
type oauthErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// DeviceFlow drives the device-authorization grant against one server.
type DeviceFlow struct {
	baseURL    string
	clientID   string
	scope      string
	httpClient *http.Client
	logger     zerolog.Logger
	onCode     func(DeviceAuthorization)

	// Seams for tests: wall clock and interruptible sleep.
	now  func() time.Time
	wait func(context.Context, time.Duration) error
}

// NewDeviceFlow creates a flow for the given authorization server and
// client identifier.
func NewDeviceFlow(baseURL, clientID string) *DeviceFlow {
	return &DeviceFlow{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		clientID:   clientID,
		scope:      DefaultScope,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zerolog.Nop(),
		now:        time.Now,
		wait:       sleepContext,
	}
}

// WithScope sets the requested OAuth scope.
func (f *DeviceFlow) WithScope(scope string) *DeviceFlow {
	f.scope = scope
	return f
}

// WithHTTPClient sets a custom HTTP client.
func (f *DeviceFlow) WithHTTPClient(c *http.Client) *DeviceFlow {
	f.httpClient = c
	return f
}

// WithLogger sets the diagnostic logger.
func (f *DeviceFlow) WithLogger(logger zerolog.Logger) *DeviceFlow {
	f.logger = logger
	return f
}

// OnCode registers the callback invoked once the user code and
// verification URLs are available for display.
func (f *DeviceFlow) OnCode(fn func(DeviceAuthorization)) *DeviceFlow {
	f.onCode = fn
	return f
}

// =============================================================================
// FLOW
// =============================================================================

// Run executes the full grant: request a device code, hand it to the
// display callback, then poll until a terminal state. It blocks without
// busy-waiting; each poll is scheduled interval seconds after the
// previous attempt completes, so call spacing grows by call latency.
//
// Terminal outcomes: the grant on approval; ErrAccessDenied on denial;
// ErrDeviceCodeExpired when the server says expired_token or the
// locally captured deadline passes; a *DeviceFlowError for any other
// server error; a wrapped transport error otherwise. Cancelling ctx
// returns ctx.Err().
func (f *DeviceFlow) Run(ctx context.Context) (TokenGrant, error) {
	f.logger.Debug().Str("state", string(StateRequesting)).Msg("requesting device code")

	authz, err := f.requestCode(ctx)
	if err != nil {
		f.logger.Error().Err(err).Str("state", string(StateFailed)).Msg("device code request failed")
		return TokenGrant{}, err
	}

	if f.onCode != nil {
		f.onCode(authz)
	}

	interval := defaultPollInterval
	if authz.Interval > 0 {
		interval = time.Duration(authz.Interval) * time.Second
	}

	// Local deadline as a safety net alongside the server's
	// expired_token signal. Zero when the server gave no expires_in.
	var deadline time.Time
	if authz.ExpiresIn > 0 {
		deadline = f.now().Add(time.Duration(authz.ExpiresIn) * time.Second)
	}

	f.logger.Debug().
		Str("state", string(StateAwaitingApproval)).
		Dur("interval", interval).
		Int64("expires_in", authz.ExpiresIn).
		Msg("awaiting approval")

	for {
		if err := f.wait(ctx, interval); err != nil {
			return TokenGrant{}, err
		}

		if !deadline.IsZero() && f.now().After(deadline) {
			f.logger.Warn().Str("state", string(StateExpired)).Msg("device code deadline passed")
			return TokenGrant{}, ErrDeviceCodeExpired
		}

		grant, err := f.poll(ctx, authz.DeviceCode)
		if err == nil {
			f.logger.Debug().Str("state", string(StateApproved)).Msg("authorization approved")
			return grant, nil
		}

		var dfe *DeviceFlowError
		if !errors.As(err, &dfe) {
			// Transport failure, terminal.
			f.logger.Error().Err(err).Str("state", string(StateFailed)).Msg("token poll failed")
			return TokenGrant{}, err
		}

		switch dfe.Code {
		case "authorization_pending":
			// Still waiting on the user, poll again after the interval.
			continue
		case "slow_down":
			interval += slowDownIncrement
			f.logger.Debug().Dur("interval", interval).Msg("server requested slow_down")
			continue
		case "access_denied":
			f.logger.Warn().Str("state", string(StateDenied)).Msg("authorization denied")
			return TokenGrant{}, ErrAccessDenied
		case "expired_token":
			f.logger.Warn().Str("state", string(StateExpired)).Msg("device code expired")
			return TokenGrant{}, ErrDeviceCodeExpired
		default:
			f.logger.Error().Err(dfe).Str("state", string(StateFailed)).Msg("authorization failed")
			return TokenGrant{}, dfe
		}
	}
}

// requestCode calls the device code endpoint.
func (f *DeviceFlow) requestCode(ctx context.Context) (DeviceAuthorization, error) {
	body := map[string]string{
		"client_id": f.clientID,
		"scope":     f.scope,
	}

	var authz DeviceAuthorization
	if err := f.post(ctx, deviceCodePath, body, &authz); err != nil {
		return DeviceAuthorization{}, err
	}
	if authz.DeviceCode == "" || authz.UserCode == "" {
		return DeviceAuthorization{}, &DeviceFlowError{
			Code:        "invalid_response",
			Description: "server returned no device code",
			Status:      http.StatusOK,
		}
	}
	return authz, nil
}

// poll calls the token endpoint once for the given device code.
func (f *DeviceFlow) poll(ctx context.Context, deviceCode string) (TokenGrant, error) {
	body := map[string]string{
		"grant_type":  deviceGrantType,
		"device_code": deviceCode,
		"client_id":   f.clientID,
	}

	var grant TokenGrant
	if err := f.post(ctx, deviceTokenPath, body, &grant); err != nil {
		return TokenGrant{}, err
	}
	// A 200 without an access token is a malformed grant, not approval.
	if grant.AccessToken == "" {
		return TokenGrant{}, &DeviceFlowError{
			Code:        "invalid_response",
			Description: "token response contained no access token",
			Status:      http.StatusOK,
		}
	}
	return grant, nil
}

// post sends a JSON request and decodes either the success payload or
// an OAuth error body into a *DeviceFlowError.
func (f *DeviceFlow) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var oauthErr oauthErrorResponse
		if json.Unmarshal(data, &oauthErr) == nil && oauthErr.Error != "" {
			return &DeviceFlowError{
				Code:        oauthErr.Error,
				Description: oauthErr.ErrorDescription,
				Status:      resp.StatusCode,
			}
		}
		return &DeviceFlowError{
			Code:        "server_error",
			Description: strings.TrimSpace(string(data)),
			Status:      resp.StatusCode,
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// sleepContext blocks for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		// Still honor cancellation even for a zero wait.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
