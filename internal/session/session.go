// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/rigchat/internal/connection"
	"github.com/jeranaias/rigchat/internal/conversation"
	"github.com/jeranaias/rigchat/internal/model"
)

var (
	// ErrBusy is returned by Submit while a chat request is in flight.
	ErrBusy = errors.New("a request is already in flight")

	// ErrClosed is returned once Run has exited.
	ErrClosed = errors.New("session closed")
)

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is the outbound state of a session at one point in time.
// Snapshots are never mutated after publication.
type Snapshot struct {
	ID        string
	StartTime time.Time
	Version   uint64

	Conn    connection.State
	History []model.Message
	Busy    bool
}

// Status is shorthand for Conn.Status().
func (s Snapshot) Status() connection.Status {
	return s.Conn.Status()
}

// Last returns the newest history entry.
func (s Snapshot) Last() (model.Message, bool) {
	if len(s.History) == 0 {
		return model.Message{}, false
	}
	return s.History[len(s.History)-1], true
}

// CanSubmit reports whether input would be accepted right now.
func (s Snapshot) CanSubmit() bool {
	return !s.Busy && s.Conn.Ready()
}

// =============================================================================
// SESSION
// =============================================================================

// Config holds the collaborators and options of a session.
type Config struct {
	// Endpoint is the initial API base URL.
	Endpoint string

	Prober    connection.Prober
	Completer conversation.Completer

	// Connection tunes model selection and stale discovery handling.
	Connection connection.Options

	// RequestTimeout bounds each network command. Zero means no timeout.
	RequestTimeout time.Duration

	Logger *zap.Logger
}

type event struct {
	msg   any
	reply chan error
}

// submitMsg is the intent behind Submit.
type submitMsg struct {
	text string
}

// Session runs the update loop for one conversation.
type Session struct {
	id        string
	startTime time.Time
	timeout   time.Duration
	log       *zap.Logger

	// Owned by the loop goroutine.
	conn    *connection.Manager
	conv    *conversation.Controller
	version uint64

	events  chan event
	done    chan struct{}
	running atomic.Bool
	snap    atomic.Pointer[Snapshot]
	cmds    sync.WaitGroup

	mu      sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
	closed  bool
}

// New creates a session. Nothing happens until Run is called.
func New(cfg Config) *Session {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	log = log.With(zap.String("session", id))

	connOpts := cfg.Connection
	connOpts.Logger = log

	s := &Session{
		id:        id,
		startTime: time.Now(),
		timeout:   cfg.RequestTimeout,
		log:       log,
		conn:      connection.NewManager(cfg.Endpoint, cfg.Prober, connOpts),
		conv:      conversation.NewController(cfg.Completer, log),
		events:    make(chan event, 16),
		done:      make(chan struct{}),
		subs:      make(map[int]chan Snapshot),
	}
	s.publish()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Duration returns how long the session has existed.
func (s *Session) Duration() time.Duration {
	return time.Since(s.startTime)
}

// Snapshot returns the most recently published state.
func (s *Session) Snapshot() Snapshot {
	return *s.snap.Load()
}

// Run mounts the connection manager and processes events until ctx is
// cancelled. Outstanding commands are waited for before Run returns.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("session already running")
	}
	s.log.Info("session started", zap.String("endpoint", s.conn.State().Endpoint))

	s.exec(ctx, s.conn.Mount())
	s.publish()

	defer func() {
		close(s.done)
		s.cmds.Wait()
		s.closeSubscribers()
		s.log.Info("session stopped", zap.Duration("duration", s.Duration()))
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-s.events:
			err := s.handle(ctx, ev.msg)
			s.publish()
			if ev.reply != nil {
				ev.reply <- err
			}
		}
	}
}

// handle routes one event to its owner. It runs on the loop goroutine.
func (s *Session) handle(ctx context.Context, msg any) error {
	switch msg := msg.(type) {
	case submitMsg:
		if s.conv.Busy() {
			return ErrBusy
		}
		s.exec(ctx, s.conv.Submit(msg.text, s.conn.State()))
		return nil

	case conversation.ReplyMsg:
		s.exec(ctx, s.conv.Update(msg))
		return nil

	default:
		cmd, err := s.conn.Update(msg)
		s.exec(ctx, cmd)
		return err
	}
}

// exec runs cmd on its own goroutine and queues its result.
func (s *Session) exec(ctx context.Context, cmd func(context.Context) any) {
	if cmd == nil {
		return
	}
	s.cmds.Add(1)
	go func() {
		defer s.cmds.Done()
		cctx := ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			cctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		msg := cmd(cctx)
		select {
		case s.events <- event{msg: msg}:
		case <-s.done:
		}
	}()
}

// send queues an intent and waits for the loop to process it.
func (s *Session) send(ctx context.Context, msg any) error {
	reply := make(chan error, 1)
	select {
	case s.events <- event{msg: msg, reply: reply}:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// =============================================================================
// INTENTS
// =============================================================================

// SetEndpoint replaces the endpoint. Setting the current value is a no-op.
func (s *Session) SetEndpoint(ctx context.Context, url string) error {
	return s.send(ctx, connection.SetEndpointMsg{URL: url})
}

// SelectModel changes the selected model. In strict mode an unknown name
// returns connection.ErrUnknownModel.
func (s *Session) SelectModel(ctx context.Context, name string) error {
	return s.send(ctx, connection.SelectModelMsg{Name: name})
}

// Submit sends text as the next user message. Empty text, or no selected
// model, is silently ignored. While a request is in flight it returns
// ErrBusy. When Submit returns nil the user message is already in history.
func (s *Session) Submit(ctx context.Context, text string) error {
	return s.send(ctx, submitMsg{text: text})
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe returns a channel that receives a snapshot after every change.
// A slow reader only misses intermediate snapshots, never the newest one.
// The channel is closed by the returned cancel func or when Run exits.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// WaitFor blocks until a snapshot satisfies cond.
func (s *Session) WaitFor(ctx context.Context, cond func(Snapshot) bool) (Snapshot, error) {
	updates, cancel := s.Subscribe()
	defer cancel()

	if snap := s.Snapshot(); cond(snap) {
		return snap, nil
	}
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return s.Snapshot(), ErrClosed
			}
			if cond(snap) {
				return snap, nil
			}
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		}
	}
}

// publish stores a new snapshot and notifies subscribers.
func (s *Session) publish() {
	s.version++
	snap := &Snapshot{
		ID:        s.id,
		StartTime: s.startTime,
		Version:   s.version,
		Conn:      s.conn.State(),
		History:   s.conv.History(),
		Busy:      s.conv.Busy(),
	}
	s.snap.Store(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- *snap:
		default:
			// Replace the unread snapshot with the newer one.
			select {
			case <-ch:
			default:
			}
			ch <- *snap
		}
	}
}

func (s *Session) closeSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// FormatDuration returns a human-readable duration string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return strconv.Itoa(int(d.Seconds())) + "s"
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return strconv.Itoa(mins) + "m"
	}
	return strconv.Itoa(mins) + "m " + strconv.Itoa(secs) + "s"
}
