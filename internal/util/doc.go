// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across the wakeup CLI:
// UTF-8 safe string truncation, display-width measurement, and
// crash-safe atomic file writes.
package util
