// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigchat/internal/ollama"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestRole_DisplayName(t *testing.T) {
	assert.Equal(t, "You", RoleUser.DisplayName())
	assert.Equal(t, "Assistant", RoleAssistant.DisplayName())
	assert.Equal(t, "System", RoleSystem.DisplayName())
	assert.Equal(t, "tool", Role("tool").DisplayName())
}

func TestNewMessage_AssignsIdentity(t *testing.T) {
	a := NewUserMessage("hi")
	b := NewUserMessage("hi")

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Timestamp.IsZero())
	assert.Equal(t, RoleUser, a.Role)
	assert.False(t, a.IsSystem())
	assert.True(t, NewSystemMessage("API Error: 500").IsSystem())
}

func TestMessage_WireRoundTrip(t *testing.T) {
	wire := ollama.Message{Role: "assistant", Content: "hello"}
	msg := FromWire(wire)

	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Equal(t, wire, msg.Wire())
}

func TestMessage_FromWireKeepsUnknownRole(t *testing.T) {
	msg := FromWire(ollama.Message{Role: "tool", Content: "x"})
	assert.Equal(t, Role("tool"), msg.Role)
}

func TestMessage_Preview(t *testing.T) {
	msg := NewUserMessage("hello world")

	assert.Equal(t, "hello world", msg.Preview(0))
	assert.Equal(t, "hello world", msg.Preview(20))
	assert.Equal(t, "hello...", msg.Preview(8))
	assert.Equal(t, "he", msg.Preview(2))
}

func TestMessage_FromReplyKeepsStats(t *testing.T) {
	resp := &ollama.ChatResponse{
		Message:       ollama.NewAssistantMessage("done"),
		TotalDuration: int64(2500 * time.Millisecond),
		EvalCount:     128,
		EvalDuration:  int64(2 * time.Second),
	}
	msg := FromReply(resp)

	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Equal(t, 128, msg.Stats.TokenCount)
	assert.Equal(t, "2.5s | 128 tokens | 64.0 tok/s", msg.Stats.Format())
}

func TestStats_FormatEmpty(t *testing.T) {
	assert.True(t, Stats{}.IsZero())
	assert.Equal(t, "", Stats{}.Format())
	assert.Equal(t, "", FromWire(ollama.NewAssistantMessage("x")).Stats.Format())
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestHistory_AppendOnly(t *testing.T) {
	h := NewHistory()
	assert.Equal(t, 0, h.Len())

	_, ok := h.Last()
	assert.False(t, ok)

	h.Append(NewUserMessage("hi"))
	h.Append(FromWire(ollama.NewAssistantMessage("hello")))

	require.Equal(t, 2, h.Len())
	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, "hello", last.Content)
}

func TestHistory_MessagesIsACopy(t *testing.T) {
	h := NewHistory()
	h.Append(NewUserMessage("hi"))

	msgs := h.Messages()
	msgs[0].Content = "changed"

	assert.Equal(t, "hi", h.Messages()[0].Content)
}

func TestHistory_WireIncludesSystemMessages(t *testing.T) {
	h := NewHistory()
	h.Append(NewUserMessage("hi"))
	h.Append(NewSystemMessage("Network Error: refused"))
	h.Append(NewUserMessage(""))

	assert.Equal(t, []ollama.Message{
		{Role: "user", Content: "hi"},
		{Role: "system", Content: "Network Error: refused"},
		{Role: "user", Content: ""},
	}, h.Wire())
}
