// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigchat/internal/connection"
	"github.com/jeranaias/rigchat/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES FOR ALL CLI COMMANDS
// =============================================================================

var (
	// TitleStyle is used for banners and section headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Purple)

	// LabelStyle is used for field labels in status output
	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Width(10)

	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	CommandStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan)

	// Role labels in the REPL transcript
	UserLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.UserBubbleBorder)

	AssistantLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(styles.AssistantBubbleBorder)

	SystemLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(styles.SystemBubbleBorder)
)

// RenderSeparator renders a horizontal rule.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 40
	}
	return DimStyle.Render(strings.Repeat("-", width))
}

// RenderConnStatus renders a connection status with its indicator.
func RenderConnStatus(conn connection.State) string {
	status := conn.Status()
	text := styles.StatusIndicator(status) + " " + conn.StatusText()
	switch status {
	case connection.StatusConnected:
		return SuccessStyle.Render(text)
	case connection.StatusConnecting:
		return WarningStyle.Render(text)
	default:
		return ErrorStyle.Render(text)
	}
}
