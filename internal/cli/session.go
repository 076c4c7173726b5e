// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/connection"
	"github.com/jeranaias/rigchat/internal/ollama"
	"github.com/jeranaias/rigchat/internal/session"
)

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

// runningSession is a session whose loop runs on its own goroutine.
type runningSession struct {
	*session.Session

	cancel context.CancelFunc
	done   chan error
}

// startSession builds a session from the loaded config and starts its loop.
func (a *app) startSession(ctx context.Context) *runningSession {
	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		UserAgent: "rigchat/" + Version,
	})

	sess := session.New(session.Config{
		Endpoint:  a.cfg.Endpoint,
		Prober:    client,
		Completer: client,
		Connection: connection.Options{
			StrictSelection: a.cfg.StrictModelSelection,
			DiscardStale:    a.cfg.DiscardStaleDiscovery,
		},
		RequestTimeout: a.cfg.RequestTimeout.Std(),
		Logger:         a.log,
	})

	ctx, cancel := context.WithCancel(ctx)
	rs := &runningSession{Session: sess, cancel: cancel, done: make(chan error, 1)}
	go func() {
		rs.done <- sess.Run(ctx)
	}()
	return rs
}

// stop ends the loop and waits for it to exit.
func (rs *runningSession) stop() error {
	rs.cancel()
	err := <-rs.done
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// waitDiscovered blocks until the newest discovery attempt has resolved.
func waitDiscovered(ctx context.Context, sess *session.Session) (session.Snapshot, error) {
	return sess.WaitFor(ctx, func(s session.Snapshot) bool {
		return s.Conn.Generation > 0 && !s.Conn.Connecting
	})
}

// applyPreferredModel selects name once the first discovery is done. An
// empty name keeps the automatic selection.
func applyPreferredModel(ctx context.Context, sess *session.Session, name string) error {
	if name == "" {
		return nil
	}
	snap, err := waitDiscovered(ctx, sess)
	if err != nil {
		return err
	}
	if snap.Conn.Selected == name {
		return nil
	}
	return sess.SelectModel(ctx, name)
}

// =============================================================================
// CONFIG WATCHING
// =============================================================================

// watchConfig pushes endpoint edits in the config file into the session.
// It returns a stop func, which is a no-op when there is nothing to watch.
func (a *app) watchConfig(ctx context.Context, sess *session.Session) func() {
	path := a.configPath
	if path == "" {
		p, err := config.ActivePath()
		if err != nil {
			return func() {}
		}
		path = p
	}
	if _, err := os.Stat(path); err != nil {
		return func() {}
	}

	last := a.cfg.Endpoint
	w, err := config.NewWatcher(path, func(cfg *config.Config) {
		// Only an edited endpoint moves the session, so a manual change
		// made in the UI survives unrelated saves.
		if cfg.Endpoint == last {
			return
		}
		last = cfg.Endpoint
		a.log.Info("config endpoint changed", zap.String("endpoint", cfg.Endpoint))
		if err := sess.SetEndpoint(ctx, cfg.Endpoint); err != nil && !errors.Is(err, session.ErrClosed) {
			a.log.Warn("failed to apply config endpoint", zap.Error(err))
		}
	}, a.log)
	if err != nil {
		a.log.Warn("config watch disabled", zap.Error(err))
		return func() {}
	}
	if err := w.Watch(); err != nil {
		a.log.Warn("config watch disabled", zap.Error(err))
		_ = w.Close()
		return func() {}
	}
	return func() { _ = w.Close() }
}
