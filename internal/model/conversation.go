// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"github.com/jeranaias/rigchat/internal/ollama"
)

// =============================================================================
// HISTORY TYPE
// =============================================================================

// History is the ordered, append-only message log of the one conversation
// a session holds. Entries are never edited or removed.
//
// History is not safe for concurrent use; it is owned by the session loop.
type History struct {
	messages []Message
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{messages: make([]Message, 0)}
}

// Append adds a message to the end of the history.
func (h *History) Append(msg Message) {
	h.messages = append(h.messages, msg)
}

// Len returns the number of messages.
func (h *History) Len() int {
	return len(h.messages)
}

// Last returns the most recent message, or false when empty.
func (h *History) Last() (Message, bool) {
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// Messages returns a copy of all messages in order.
func (h *History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Wire returns the whole history as the messages array of a chat request.
// Every entry is sent, locally generated system messages included.
func (h *History) Wire() []ollama.Message {
	out := make([]ollama.Message, 0, len(h.messages))
	for _, msg := range h.messages {
		out = append(out, msg.Wire())
	}
	return out
}
