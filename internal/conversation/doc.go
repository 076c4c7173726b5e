// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation drives the request/response cycle of a chat.
//
// Each accepted Submit appends the user's message at once, sends the full
// history to POST /api/chat, and later appends exactly one more message:
// the assistant reply, or a system message describing the failure
// ("Network Error: ...", "API Error: <code>", "Error parsing response: ...").
package conversation
