// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/ui/styles"
	"github.com/jeranaias/rigchat/internal/util"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

func (m Model) render() string {
	if m.mode == ModePicker {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.picker.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderActivity(),
		m.renderInput(),
		m.renderHelp(),
	)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	conn := m.snap.Conn
	status := conn.Status()

	statusText := m.theme.StatusStyle(status).Render(
		styles.StatusIndicator(status) + " " + util.TruncateWidth(conn.StatusText(), 48))

	selected := conn.Selected
	if selected == "" {
		selected = "none"
	}

	parts := []string{
		m.theme.HeaderBrand.Render("rigchat"),
		statusText,
		m.theme.HeaderLabel.Render("endpoint ") +
			m.theme.HeaderValue.Render(util.TruncateWidth(conn.Endpoint, 40)),
		m.theme.HeaderLabel.Render("model ") +
			m.theme.HeaderValue.Render(util.TruncateWidth(selected, 32)),
	}
	line := strings.Join(parts, "  ")

	style := m.theme.Header
	if m.width > 2 {
		style = style.Width(m.width - 2)
	}
	return style.Render(line)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshViewport re-renders the history into the viewport.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderTranscript())
}

func (m *Model) renderTranscript() string {
	if len(m.snap.History) == 0 {
		return m.theme.Help.Render("No messages yet. Type below and press Enter.")
	}

	width := max(m.viewport.Width-2, 20)
	blocks := make([]string, 0, len(m.snap.History))
	for _, msg := range m.snap.History {
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderMessage(msg model.Message, width int) string {
	stamp := m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))

	switch msg.Role {
	case model.RoleUser:
		return m.theme.UserLabel.Render(msg.Role.DisplayName()) + " " + stamp + "\n" +
			m.theme.UserText.Width(width).Render(msg.Content)

	case model.RoleSystem:
		body := m.theme.SystemLabel.Render(msg.Role.DisplayName()) + " " + msg.Content
		return m.theme.SystemBubble.Width(width).Render(body)

	default:
		// Assistant, or whatever role the server chose to send.
		out := m.theme.AssistantLabel.Render(msg.Role.DisplayName()) + " " + stamp + "\n" +
			m.renderReply(msg, width)
		if stats := msg.Stats.Format(); stats != "" {
			out += "\n" + m.theme.Timestamp.Render(stats)
		}
		return out
	}
}

func (m *Model) renderReply(msg model.Message, width int) string {
	if !m.markdown {
		return m.theme.AssistantText.Width(width).Render(msg.Content)
	}
	if out, ok := m.rendered[msg.ID]; ok {
		return out
	}

	if m.renderer == nil {
		style := "light"
		if m.theme.IsDark {
			style = "dark"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return m.theme.AssistantText.Width(width).Render(msg.Content)
		}
		m.renderer = r
	}

	out, err := m.renderer.Render(msg.Content)
	if err != nil {
		return m.theme.AssistantText.Width(width).Render(msg.Content)
	}
	out = strings.Trim(out, "\n")
	m.rendered[msg.ID] = out
	return out
}

// =============================================================================
// INPUT AREA
// =============================================================================

// renderActivity shows the spinner while a reply is pending, otherwise the
// current notice.
func (m Model) renderActivity() string {
	if m.snap.Busy {
		return m.spinner.View() + " " + m.theme.Help.Render("Waiting for "+m.snap.Conn.Selected+"...")
	}
	if m.notice != "" {
		return m.theme.Notice.Render(m.notice)
	}
	return ""
}

func (m Model) renderInput() string {
	style := m.theme.InputContainer
	if m.width > 0 {
		style = style.Width(m.width)
	}
	if m.mode == ModeEndpoint {
		return style.Render(m.theme.EditorTitle.Render("Endpoint") + "  " + m.endpointInput.View())
	}
	return style.Render(m.input.View())
}

func (m Model) renderHelp() string {
	return m.help.View(m.keys)
}
