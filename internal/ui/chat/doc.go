// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen chat view for rigchat.

The view is a Bubble Tea model over a session. It holds no conversation
logic of its own: it renders the latest session snapshot and turns key
presses into session intents.

# Layout

	+-------------------------------------------------------+
	| rigchat  [OK] Connected  endpoint  model              |  header
	+-------------------------------------------------------+
	| transcript (viewport)                                  |
	|                                                        |
	| | busy spinner row                                     |
	+-------------------------------------------------------+
	| > input                                                |
	| help                                                   |

# Modes

  - chat: the input line is focused, Enter submits
  - endpoint: Ctrl+E opens an editor for the API base URL
  - picker: Ctrl+O opens a filterable list of the discovered models

Ctrl+S saves the conversation as Markdown in Options.ExportDir.

# Usage

	m := chat.New(ctx, sess, theme, chat.Options{Markdown: true})
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
*/
package chat
