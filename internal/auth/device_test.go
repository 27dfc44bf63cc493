// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedServer serves one device authorization and then replays a
// fixed sequence of token-endpoint responses.
type scriptedServer struct {
	authz     DeviceAuthorization
	responses []scriptedResponse
	polls     int
}

type scriptedResponse struct {
	status int
	body   any
}

func (s *scriptedServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(deviceCodePath, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(s.authz)
	})
	mux.HandleFunc(deviceTokenPath, func(w http.ResponseWriter, r *http.Request) {
		if s.polls >= len(s.responses) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		resp := s.responses[s.polls]
		s.polls++
		w.WriteHeader(resp.status)
		json.NewEncoder(w).Encode(resp.body)
	})
	return mux
}

func pending() scriptedResponse {
	return scriptedResponse{http.StatusBadRequest, oauthErrorResponse{Error: "authorization_pending"}}
}

func oauthErr(code, desc string) scriptedResponse {
	return scriptedResponse{http.StatusBadRequest, oauthErrorResponse{Error: code, ErrorDescription: desc}}
}

func granted(token string) scriptedResponse {
	return scriptedResponse{http.StatusOK, TokenGrant{AccessToken: token, TokenType: "Bearer", ExpiresIn: 3600}}
}

// newTestFlow wires a flow to the scripted server with an instant wait
// that records each requested delay.
func newTestFlow(t *testing.T, s *scriptedServer) (*DeviceFlow, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(s.handler())
	t.Cleanup(srv.Close)

	waits := &[]time.Duration{}
	flow := NewDeviceFlow(srv.URL, "wakeup-cli")
	flow.wait = func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return ctx.Err()
	}
	return flow, waits
}

func TestDeviceFlowApproved(t *testing.T) {
	srv := &scriptedServer{
		authz: DeviceAuthorization{
			DeviceCode:              "dev-1",
			UserCode:                "ABCD-1234",
			VerificationURI:         "https://example.com/device",
			VerificationURIComplete: "https://example.com/device?code=ABCD-1234",
			ExpiresIn:               600,
			Interval:                5,
		},
		responses: []scriptedResponse{
			pending(),
			pending(),
			oauthErr("slow_down", ""),
			granted("tok-final"),
		},
	}

	flow, waits := newTestFlow(t, srv)

	var shown DeviceAuthorization
	flow.OnCode(func(a DeviceAuthorization) { shown = a })

	grant, err := flow.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-final", grant.AccessToken)
	assert.Equal(t, 4, srv.polls, "must poll until the grant completes, never terminating early")

	assert.Equal(t, "ABCD-1234", shown.UserCode)
	assert.Equal(t, "https://example.com/device?code=ABCD-1234", shown.VerificationURIComplete)

	// Wait before every poll; interval grows exactly once, after slow_down.
	require.Equal(t, []time.Duration{
		5 * time.Second,
		5 * time.Second,
		5 * time.Second,
		10 * time.Second,
	}, *waits)
}

func TestDeviceFlowDenied(t *testing.T) {
	srv := &scriptedServer{
		authz:     DeviceAuthorization{DeviceCode: "dev-1", UserCode: "CODE", ExpiresIn: 600, Interval: 1},
		responses: []scriptedResponse{oauthErr("access_denied", "user said no")},
	}
	flow, _ := newTestFlow(t, srv)

	_, err := flow.Run(context.Background())
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Equal(t, 1, srv.polls, "denial is terminal, no further polling")
}

func TestDeviceFlowExpiredToken(t *testing.T) {
	srv := &scriptedServer{
		authz:     DeviceAuthorization{DeviceCode: "dev-1", UserCode: "CODE", ExpiresIn: 600, Interval: 1},
		responses: []scriptedResponse{pending(), oauthErr("expired_token", "")},
	}
	flow, _ := newTestFlow(t, srv)

	_, err := flow.Run(context.Background())
	assert.ErrorIs(t, err, ErrDeviceCodeExpired)
	assert.Equal(t, 2, srv.polls)
}

func TestDeviceFlowServerError(t *testing.T) {
	srv := &scriptedServer{
		authz:     DeviceAuthorization{DeviceCode: "dev-1", UserCode: "CODE", ExpiresIn: 600, Interval: 1},
		responses: []scriptedResponse{oauthErr("invalid_client", "unknown client")},
	}
	flow, _ := newTestFlow(t, srv)

	_, err := flow.Run(context.Background())
	var dfe *DeviceFlowError
	require.ErrorAs(t, err, &dfe)
	assert.Equal(t, "invalid_client", dfe.Code)
	assert.Equal(t, "unknown client", dfe.Description)
}

func TestDeviceFlowLocalDeadline(t *testing.T) {
	srv := &scriptedServer{
		authz: DeviceAuthorization{DeviceCode: "dev-1", UserCode: "CODE", ExpiresIn: 300, Interval: 5},
		// The server never gets asked; the local deadline fires first.
		responses: []scriptedResponse{pending()},
	}
	flow, _ := newTestFlow(t, srv)

	start := time.Now()
	calls := 0
	flow.now = func() time.Time {
		calls++
		if calls == 1 {
			return start // deadline capture
		}
		return start.Add(10 * time.Minute)
	}

	_, err := flow.Run(context.Background())
	assert.ErrorIs(t, err, ErrDeviceCodeExpired)
	assert.Equal(t, 0, srv.polls, "no poll after the local deadline has passed")
}

func TestDeviceFlowEmptyGrantRejected(t *testing.T) {
	srv := &scriptedServer{
		authz:     DeviceAuthorization{DeviceCode: "dev-1", UserCode: "CODE", ExpiresIn: 600, Interval: 1},
		responses: []scriptedResponse{{http.StatusOK, map[string]any{}}},
	}
	flow, _ := newTestFlow(t, srv)

	grant, err := flow.Run(context.Background())
	var dfe *DeviceFlowError
	require.ErrorAs(t, err, &dfe)
	assert.Equal(t, "invalid_response", dfe.Code)
	assert.Empty(t, grant.AccessToken, "a bodyless 200 must never count as approval")
	assert.Equal(t, 1, srv.polls, "malformed grant is terminal, no further polling")
}

func TestDeviceFlowContextCancelled(t *testing.T) {
	srv := &scriptedServer{
		authz:     DeviceAuthorization{DeviceCode: "dev-1", UserCode: "CODE", ExpiresIn: 600, Interval: 1},
		responses: []scriptedResponse{pending(), pending()},
	}
	flow, _ := newTestFlow(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	flow.wait = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := flow.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeviceFlowDefaultInterval(t *testing.T) {
	srv := &scriptedServer{
		authz:     DeviceAuthorization{DeviceCode: "dev-1", UserCode: "CODE", ExpiresIn: 600},
		responses: []scriptedResponse{granted("tok")},
	}
	flow, waits := newTestFlow(t, srv)

	_, err := flow.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, *waits, 1)
	assert.Equal(t, defaultPollInterval, (*waits)[0])
}

func TestDeviceFlowCodeRequestError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(deviceCodePath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(oauthErrorResponse{Error: "invalid_scope", ErrorDescription: "bad scope"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	flow := NewDeviceFlow(server.URL, "wakeup-cli")
	_, err := flow.Run(context.Background())

	var dfe *DeviceFlowError
	require.True(t, errors.As(err, &dfe))
	assert.Equal(t, "invalid_scope", dfe.Code)
}
