// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package connection

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jeranaias/rigchat/internal/ollama"
)

// ErrUnknownModel is returned by SelectModel in strict mode when the name is
// not in the current catalog.
var ErrUnknownModel = errors.New("model not in catalog")

// =============================================================================
// MESSAGES AND COMMANDS
// =============================================================================

// Msg is an input to Update.
type Msg = any

// Cmd is deferred work returned by Update. The session runs it off the
// update loop and feeds the returned Msg back into Update.
type Cmd = func(ctx context.Context) Msg

// SetEndpointMsg replaces the endpoint.
type SetEndpointMsg struct {
	URL string
}

// SelectModelMsg changes the selected model.
type SelectModelMsg struct {
	Name string
}

// MountMsg starts the initial discovery.
type MountMsg struct{}

// DiscoveredMsg carries the outcome of one discovery attempt.
type DiscoveredMsg struct {
	Generation uint64
	Endpoint   string
	Models     []string
	Err        error
}

// Prober lists model names at an endpoint. *ollama.Client implements it.
type Prober interface {
	ListModelNames(ctx context.Context, endpoint string) ([]string, error)
}

// =============================================================================
// MANAGER
// =============================================================================

// Options tune decisions the caller may want to revisit.
type Options struct {
	// StrictSelection rejects SelectModel names outside the catalog. When
	// false any name is accepted and the invariant is only restored on the
	// next catalog update.
	StrictSelection bool

	// DiscardStale drops results of attempts superseded by a newer
	// endpoint change. When false the last attempt to resolve wins.
	DiscardStale bool

	Logger *zap.Logger
}

// DefaultOptions returns strict selection with stale discard.
func DefaultOptions() Options {
	return Options{StrictSelection: true, DiscardStale: true}
}

// Manager owns the endpoint, the model catalog, the selection and the
// connection status. It is not safe for concurrent use: every call must
// come from the one goroutine that owns it.
type Manager struct {
	state   State
	mounted bool
	prober  Prober
	opts    Options
	log     *zap.Logger
}

// NewManager creates a manager for endpoint. No discovery runs until Mount.
func NewManager(endpoint string, prober Prober, opts Options) *Manager {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		state:  State{Endpoint: endpoint, Models: []string{}},
		prober: prober,
		opts:   opts,
		log:    log.Named("connection"),
	}
}

// State returns a copy of the current state.
func (m *Manager) State() State {
	return m.state.Clone()
}

// Mount starts discovery against the initial endpoint. Only the first
// call returns a command.
func (m *Manager) Mount() Cmd {
	cmd, _ := m.Update(MountMsg{})
	return cmd
}

// SetEndpoint replaces the endpoint and returns the discovery command, or
// nil when url equals the current endpoint.
func (m *Manager) SetEndpoint(url string) Cmd {
	cmd, _ := m.Update(SetEndpointMsg{URL: url})
	return cmd
}

// SelectModel changes the selection. See Options.StrictSelection.
func (m *Manager) SelectModel(name string) error {
	_, err := m.Update(SelectModelMsg{Name: name})
	return err
}

// Update is the single mutation point of the manager.
func (m *Manager) Update(msg Msg) (Cmd, error) {
	switch msg := msg.(type) {
	case MountMsg:
		if m.mounted {
			return nil, nil
		}
		m.mounted = true
		return m.beginDiscovery(), nil

	case SetEndpointMsg:
		if msg.URL == m.state.Endpoint {
			return nil, nil
		}
		m.log.Info("endpoint changed",
			zap.String("from", m.state.Endpoint),
			zap.String("to", msg.URL),
		)
		m.state.Endpoint = msg.URL
		m.mounted = true
		return m.beginDiscovery(), nil

	case SelectModelMsg:
		if m.opts.StrictSelection && !m.state.HasModel(msg.Name) {
			return nil, fmt.Errorf("select %q: %w", msg.Name, ErrUnknownModel)
		}
		m.state.Selected = msg.Name
		return nil, nil

	case DiscoveredMsg:
		m.applyDiscovery(msg)
		return nil, nil
	}
	return nil, nil
}

// beginDiscovery marks a new attempt in progress and returns its command.
func (m *Manager) beginDiscovery() Cmd {
	m.state.Generation++
	m.state.Connecting = true
	m.state.Err = ""

	gen := m.state.Generation
	endpoint := m.state.Endpoint
	prober := m.prober
	m.log.Debug("discovery started", zap.Uint64("generation", gen), zap.String("endpoint", endpoint))

	return func(ctx context.Context) Msg {
		names, err := prober.ListModelNames(ctx, endpoint)
		return DiscoveredMsg{Generation: gen, Endpoint: endpoint, Models: names, Err: err}
	}
}

func (m *Manager) applyDiscovery(msg DiscoveredMsg) {
	if m.opts.DiscardStale && msg.Generation != m.state.Generation {
		m.log.Debug("discarding superseded discovery",
			zap.Uint64("generation", msg.Generation),
			zap.Uint64("current", m.state.Generation),
			zap.String("endpoint", msg.Endpoint),
		)
		return
	}

	models := []string{}
	if msg.Err != nil {
		m.state.Err = DiscoveryErrorText(msg.Err)
		m.log.Warn("discovery failed",
			zap.String("endpoint", msg.Endpoint),
			zap.String("kind", ollama.KindOf(msg.Err).String()),
			zap.Error(msg.Err),
		)
	} else {
		models = append(models, msg.Models...)
		m.state.Err = ""
		m.log.Info("discovery complete",
			zap.String("endpoint", msg.Endpoint),
			zap.Int("models", len(models)),
		)
	}

	m.state.Models = models
	m.state.Selected = reconcileSelection(m.state.Selected, models)
	m.state.Connecting = false
}

// DiscoveryErrorText formats a discovery failure for the status line.
func DiscoveryErrorText(err error) string {
	detail := ollama.DetailOf(err)
	switch ollama.KindOf(err) {
	case ollama.KindStatus:
		return "API Error: " + detail
	case ollama.KindParse:
		return "Failed to parse models: " + detail
	default:
		return "Connection Failed: " + detail
	}
}
