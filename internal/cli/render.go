// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// MESSAGE RENDERING
// =============================================================================

// messagePrinter writes transcript entries in line mode.
type messagePrinter struct {
	out      io.Writer
	markdown *glamour.TermRenderer
}

// newMessagePrinter returns a printer. Markdown rendering is used only when
// asked for and stdout is a terminal.
func newMessagePrinter(out io.Writer, markdown bool) *messagePrinter {
	p := &messagePrinter{out: out}
	if markdown && IsStdoutTTY() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(GetTerminalWidth()-4),
		)
		if err == nil {
			p.markdown = r
		}
	}
	return p
}

// label returns the styled role label of msg.
func label(msg model.Message) string {
	name := msg.Role.DisplayName()
	switch msg.Role {
	case model.RoleUser:
		return UserLabelStyle.Render(name)
	case model.RoleSystem:
		return SystemLabelStyle.Render("[" + name + "]")
	default:
		return AssistantLabelStyle.Render(name)
	}
}

// Print writes a full message with its role label.
func (p *messagePrinter) Print(msg model.Message) {
	if msg.IsSystem() {
		fmt.Fprintf(p.out, "%s %s\n", label(msg), WarningStyle.Render(msg.Content))
		return
	}
	fmt.Fprintf(p.out, "%s\n%s\n", label(msg), p.body(msg))
	if stats := msg.Stats.Format(); stats != "" {
		fmt.Fprintln(p.out, DimStyle.Render(stats))
	}
}

// PrintReply writes only the message body, for scripted output.
func (p *messagePrinter) PrintReply(msg model.Message) {
	fmt.Fprintln(p.out, p.body(msg))
}

// PrintPreview writes a one-line summary of msg.
func (p *messagePrinter) PrintPreview(index int, msg model.Message) {
	preview := strings.ReplaceAll(msg.Preview(72), "\n", " ")
	fmt.Fprintf(p.out, "%s %s %s\n", DimStyle.Render(fmt.Sprintf("%3d", index)), label(msg), preview)
}

func (p *messagePrinter) body(msg model.Message) string {
	if msg.Role == model.RoleUser || p.markdown == nil {
		return msg.Content
	}
	out, err := p.markdown.Render(msg.Content)
	if err != nil {
		return msg.Content
	}
	return strings.Trim(out, "\n")
}

// normalizeInput trims a typed line and puts it in NFC form, so composed
// and decomposed input reach the server as the same text.
func normalizeInput(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
