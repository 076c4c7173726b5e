// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for rigchat.

All colors use Lip Gloss AdaptiveColor so they follow the terminal's light
or dark background. The background is detected with termenv unless the
ui.theme setting forces one.

# Colors (colors.go)

  - Purple - assistant messages, selections
  - Cyan - user messages, prompts
  - Emerald - connected status
  - Amber - connecting status, system messages
  - Rose - errors

Status lines pair color with an ASCII indicator ([OK], [X], [!], [i]).

# Theme (theme.go)

Theme groups the lipgloss styles used by the TUI header, the transcript,
the input line and the model picker. StatusStyle picks the style for a
connection status.
*/
package styles
