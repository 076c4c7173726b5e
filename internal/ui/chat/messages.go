// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigchat/internal/export"
	"github.com/jeranaias/rigchat/internal/session"
)

// =============================================================================
// BACKEND
// =============================================================================

// Backend is the part of a session the view talks to.
type Backend interface {
	Snapshot() session.Snapshot
	Subscribe() (<-chan session.Snapshot, func())
	SetEndpoint(ctx context.Context, url string) error
	SelectModel(ctx context.Context, name string) error
	Submit(ctx context.Context, text string) error
}

// =============================================================================
// MESSAGES
// =============================================================================

// SnapshotMsg carries a newly published session snapshot.
type SnapshotMsg struct {
	Snapshot session.Snapshot
}

// SessionClosedMsg is sent once the session stops publishing.
type SessionClosedMsg struct{}

// IntentResultMsg reports how the session answered an intent.
type IntentResultMsg struct {
	Intent string
	Err    error
}

// ExportedMsg reports a finished transcript export.
type ExportedMsg struct {
	Path string
	Err  error
}

// =============================================================================
// COMMANDS
// =============================================================================

// waitForSnapshot blocks until the next snapshot arrives.
func waitForSnapshot(updates <-chan session.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return SessionClosedMsg{}
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

func submitCmd(ctx context.Context, b Backend, text string) tea.Cmd {
	return func() tea.Msg {
		return IntentResultMsg{Intent: "submit", Err: b.Submit(ctx, text)}
	}
}

func setEndpointCmd(ctx context.Context, b Backend, url string) tea.Cmd {
	return func() tea.Msg {
		return IntentResultMsg{Intent: "endpoint", Err: b.SetEndpoint(ctx, url)}
	}
}

func selectModelCmd(ctx context.Context, b Backend, name string) tea.Cmd {
	return func() tea.Msg {
		return IntentResultMsg{Intent: "model", Err: b.SelectModel(ctx, name)}
	}
}

// exportCmd writes snap to a timestamped Markdown file in dir.
func exportCmd(snap session.Snapshot, dir string) tea.Cmd {
	return func() tea.Msg {
		opts := export.DefaultOptions()
		if dir != "" {
			opts.OutputDir = dir
		}
		path, err := export.ToFile(export.FromSnapshot(snap), "", opts)
		return ExportedMsg{Path: path, Err: err}
	}
}
