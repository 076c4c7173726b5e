// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/rigchat/internal/connection"
)

func TestNewTheme_ForcedMode(t *testing.T) {
	assert.True(t, NewTheme("dark").IsDark)
	assert.False(t, NewTheme("light").IsDark)
	assert.False(t, NewTheme("LIGHT").IsDark)
}

func TestTheme_StatusStyle(t *testing.T) {
	theme := NewTheme("dark")

	assert.Equal(t, theme.StatusConnected, theme.StatusStyle(connection.StatusConnected))
	assert.Equal(t, theme.StatusConnecting, theme.StatusStyle(connection.StatusConnecting))
	assert.Equal(t, theme.StatusError, theme.StatusStyle(connection.StatusError))
}

func TestStatusIndicator(t *testing.T) {
	assert.Equal(t, "[OK]", StatusIndicator(connection.StatusConnected))
	assert.Equal(t, "[ ]", StatusIndicator(connection.StatusConnecting))
	assert.Equal(t, "[X]", StatusIndicator(connection.StatusError))
}

func TestTheme_SetSize(t *testing.T) {
	theme := NewTheme("dark")
	theme.SetSize(120, 40)
	assert.Equal(t, 120, theme.Width)
	assert.Equal(t, 40, theme.Height)
}
