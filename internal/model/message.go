// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/rigchat/internal/ollama"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = ollama.RoleUser
	RoleAssistant Role = ollama.RoleAssistant
	// RoleSystem is only produced locally, to report a failure inline.
	RoleSystem Role = ollama.RoleSystem
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single entry in the conversation history.
// Messages are values and are never modified after construction.
type Message struct {
	// Local identity, never sent to the server
	ID        string
	Timestamp time.Time

	Role    Role
	Content string

	// Generation statistics reported by the server, zero when absent
	Stats Stats
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Role:      role,
		Content:   content,
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewSystemMessage creates a new locally generated status message.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// FromWire wraps a message received from the server. Role and content are
// kept verbatim, whatever the server sent.
func FromWire(msg ollama.Message) Message {
	return NewMessage(Role(msg.Role), msg.Content)
}

// FromReply wraps a chat response, keeping its generation statistics.
func FromReply(resp *ollama.ChatResponse) Message {
	msg := FromWire(resp.Message)
	msg.Stats = Stats{
		TotalDuration:   resp.TotalTime(),
		TokenCount:      resp.EvalCount,
		TokensPerSecond: resp.TokensPerSecond(),
	}
	return msg
}

// Wire returns the role/content pair sent to /api/chat.
func (m Message) Wire() ollama.Message {
	return ollama.Message{Role: string(m.Role), Content: m.Content}
}

// IsSystem reports whether the message is a locally synthesized status line.
func (m Message) IsSystem() bool {
	return m.Role == RoleSystem
}

// Preview returns a truncated preview of the message content.
func (m Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if maxLen <= 0 || len(runes) <= maxLen {
		return m.Content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// =============================================================================
// STATISTICS TYPE
// =============================================================================

// Stats holds the timing and token counts the server reported for a reply.
type Stats struct {
	TotalDuration   time.Duration
	TokenCount      int
	TokensPerSecond float64
}

// IsZero reports whether the server sent no statistics.
func (s Stats) IsZero() bool {
	return s.TotalDuration == 0 && s.TokenCount == 0
}

// Format returns the statistics as a footer line.
// Format: "2.5s | 128 tokens | 51.2 tok/s"
func (s Stats) Format() string {
	if s.IsZero() {
		return ""
	}
	return fmt.Sprintf("%.1fs | %d tokens | %.1f tok/s",
		s.TotalDuration.Seconds(), s.TokenCount, s.TokensPerSecond)
}
