// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small file and string helpers shared by rigchat.
//
//   - AtomicWriteFile: temp file, fsync, rename
//   - TruncateRunes, TruncateWidth, StringWidth: UTF-8 and display-width
//     aware string handling for the terminal UI
package util
