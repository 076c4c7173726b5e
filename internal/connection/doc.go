// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package connection tracks the inference server endpoint and its models.
//
// The Manager holds the endpoint, the model catalog found by the last
// discovery (GET /api/tags), the selected model, and a status of
// connecting, connected or error. Changes come in as messages through
// Update, which returns the discovery command to run rather than running
// it; the session executes commands and feeds their results back.
//
// Whenever the catalog changes, a selection that is no longer offered is
// replaced by the first model, or cleared when there are none.
//
//	mgr := connection.NewManager("http://localhost:11434", client, connection.DefaultOptions())
//	cmd := mgr.Mount()
//	mgr.Update(cmd(ctx))
//	fmt.Println(mgr.State().StatusText())
package connection
