// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/rigchat/internal/connection"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// Header
	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderLabel lipgloss.Style
	HeaderValue lipgloss.Style

	// Connection status
	StatusConnected  lipgloss.Style
	StatusConnecting lipgloss.Style
	StatusError      lipgloss.Style

	// Transcript
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemLabel    lipgloss.Style
	UserText       lipgloss.Style
	AssistantText  lipgloss.Style
	SystemBubble   lipgloss.Style
	Timestamp      lipgloss.Style

	// Input area
	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	Spinner        lipgloss.Style

	// Footer and overlays
	Help        lipgloss.Style
	PickerTitle lipgloss.Style
	EditorTitle lipgloss.Style
	Notice      lipgloss.Style
}

// NewTheme creates a theme. mode is "dark", "light" or anything else for
// background detection via termenv.
func NewTheme(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(mode) {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.HeaderLabel = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.HeaderValue = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.StatusConnected = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.StatusConnecting = lipgloss.NewStyle().Foreground(Amber)
	t.StatusError = lipgloss.NewStyle().Foreground(Rose).Bold(true)

	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(UserBubbleBorder)

	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(AssistantBubbleBorder)

	t.SystemLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(SystemBubbleBorder)

	t.UserText = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		PaddingLeft(2)

	t.AssistantText = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		PaddingLeft(2)

	t.SystemBubble = lipgloss.NewStyle().
		Foreground(SystemBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(SystemBubbleBorder).
		BorderLeft(true).
		PaddingLeft(1)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.Help = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.PickerTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		Padding(0, 1)

	t.EditorTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.Notice = lipgloss.NewStyle().
		Foreground(Amber).
		Italic(true)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// StatusStyle returns the style for a connection status.
func (t *Theme) StatusStyle(status connection.Status) lipgloss.Style {
	switch status {
	case connection.StatusConnected:
		return t.StatusConnected
	case connection.StatusConnecting:
		return t.StatusConnecting
	default:
		return t.StatusError
	}
}

// StatusIndicator returns the ASCII indicator for a connection status.
func StatusIndicator(status connection.Status) string {
	switch status {
	case connection.StatusConnected:
		return StatusIndicators.Success
	case connection.StatusConnecting:
		return StatusIndicators.Pending
	default:
		return StatusIndicators.Error
	}
}
