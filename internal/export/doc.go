// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the conversation of a session to a file.
//
// # Supported Formats
//
//   - Markdown: human-readable, with optional metadata and timestamps
//   - JSON: the complete transcript, machine-readable
//
// # Usage
//
//	tr := export.FromSnapshot(sess.Snapshot())
//	path, err := export.ToFile(tr, "chat.md", nil)
//
// An empty path writes rigchat_<timestamp>.md into Options.OutputDir.
package export
