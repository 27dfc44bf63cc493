// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the client for the wakeup backend: streaming chat
// inference over SSE, agent code generation, and the authenticated
// user lookup behind whoami.
//
// All requests carry the stored bearer credential. Streaming delivers
// text chunks to a caller-supplied callback in arrival order; the
// caller accumulates and renders once the stream completes.
package api
