// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the rigchat command line.
//
// The command tree is built with cobra. Every command shares one app value
// holding the loaded configuration and the logger; the session itself is
// started per command.
//
// # Commands
//
//   - rigchat, rigchat chat: interactive session, TUI or line mode
//   - rigchat ask: one message, reply on stdout, exit 1 on failure
//   - rigchat models: one discovery, catalog on stdout
//   - rigchat config: show, path, init, get, set
//   - rigchat version
//
// # Usage
//
//	func main() {
//	    os.Exit(cli.Execute())
//	}
package cli
