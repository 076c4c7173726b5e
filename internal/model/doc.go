// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Role: Message role enumeration (user, assistant, system)
//   - Message: Immutable history entry with a local ID and timestamp
//   - History: Append-only ordered log of messages
//
// # Usage
//
//	h := model.NewHistory()
//	h.Append(model.NewUserMessage("Hello!"))
//	req := ollama.ChatRequest{Model: "llama3", Messages: h.Wire()}
package model
