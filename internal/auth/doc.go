// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth implements local credential storage and the OAuth 2.0
// device-authorization grant (RFC 8628) used by `wakeup login`.
//
// The credential lives in a single JSON file under the wakeup config
// directory. Presence of the file means "logged in"; absence or an
// unreadable file means "logged out" and is never treated as an error.
//
// The device flow is a small state machine: request a device code,
// show the user code and verification URL, then poll the token
// endpoint on the server-suggested interval until the grant is
// approved, denied, expired, or fails. All terminal outcomes are
// returned as typed errors so callers decide how to exit.
package auth
