// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package connection

import "slices"

// DefaultEndpoint is the endpoint used until the user sets another one.
const DefaultEndpoint = "http://localhost:11434"

// =============================================================================
// STATUS
// =============================================================================

// Status is the connection status derived from the last discovery attempt.
type Status int

const (
	StatusConnecting Status = iota
	StatusConnected
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// =============================================================================
// STATE
// =============================================================================

// State is a snapshot of everything the Manager owns. Values handed out by
// the Manager never share the Models slice with its internal state.
type State struct {
	// Endpoint is the API base URL, stored as given.
	Endpoint string

	// Models is the catalog from the last discovery, in server order.
	Models []string

	// Selected is empty or, whenever Models is non-empty, one of Models.
	Selected string

	// Connecting is set while a discovery attempt is outstanding.
	Connecting bool

	// Err is the human-readable failure of the last attempt.
	Err string

	// Generation numbers discovery attempts, starting at 1.
	Generation uint64
}

// Status derives the tri-state status. Error text wins over the
// in-progress flag, and the absence of both means connected.
func (s State) Status() Status {
	switch {
	case s.Err != "":
		return StatusError
	case s.Connecting:
		return StatusConnecting
	default:
		return StatusConnected
	}
}

// StatusText returns the line shown in a status indicator.
func (s State) StatusText() string {
	switch s.Status() {
	case StatusError:
		return s.Err
	case StatusConnecting:
		return "Connecting..."
	default:
		return "Connected"
	}
}

// HasModel reports whether name is in the current catalog.
func (s State) HasModel(name string) bool {
	return slices.Contains(s.Models, name)
}

// Ready reports whether a chat request can be issued: a model is selected.
func (s State) Ready() bool {
	return s.Selected != ""
}

// Clone returns a deep copy.
func (s State) Clone() State {
	s.Models = slices.Clone(s.Models)
	if s.Models == nil {
		s.Models = []string{}
	}
	return s
}

// reconcileSelection enforces the selection invariant after a catalog
// update: keep a selection that is still offered, otherwise fall back to
// the first entry, or clear when the catalog is empty.
func reconcileSelection(selected string, models []string) string {
	if len(models) == 0 {
		return ""
	}
	if selected == "" || !slices.Contains(models, selected) {
		return models[0]
	}
	return selected
}
