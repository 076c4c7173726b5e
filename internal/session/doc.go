// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session is the state store for one chat session.
//
// A Session owns a connection.Manager and a conversation.Controller and
// runs their single update loop. Intents (set endpoint, select model,
// submit) and command results are queued as events; only the loop
// goroutine touches state, and each processed event publishes an
// immutable Snapshot to subscribers.
//
// # Usage
//
//	s := session.New(session.Config{Endpoint: url, Prober: client, Completer: client})
//	go s.Run(ctx)
//
//	updates, cancel := s.Subscribe()
//	defer cancel()
//	for snap := range updates {
//	    render(snap)
//	}
//
// # Busy
//
// The conversation controller does not guard re-entry. Submit here is the
// boundary: while a chat request is in flight it returns ErrBusy.
package session
