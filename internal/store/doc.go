// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists conversations and messages in a local SQLite
// database under the wakeup config directory.
//
// Conversations are owned by exactly one user; every read and update
// filters by user_id so a conversation id can never resolve across
// users. Messages are replayed in ascending creation order, which is
// the canonical history fed to the inference backend.
package store
