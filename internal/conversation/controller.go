// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/rigchat/internal/connection"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/ollama"
)

// Msg is an input to Update.
type Msg = any

// Cmd is deferred work returned by Submit.
type Cmd = func(ctx context.Context) Msg

// Completer issues one non-streaming chat completion. *ollama.Client
// implements it.
type Completer interface {
	Chat(ctx context.Context, baseURL string, req ollama.ChatRequest) (*ollama.ChatResponse, error)
}

// ReplyMsg carries the outcome of one chat request back to the controller.
type ReplyMsg struct {
	Endpoint string
	Model    string
	Reply    *ollama.ChatResponse
	Err      error
	Elapsed  time.Duration
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the conversation history and the busy flag.
//
// It does not guard against re-entry. Submitting while a request is in
// flight is rejected by the caller (the session and the input widgets),
// never by the controller itself.
type Controller struct {
	history *model.History
	busy    bool
	client  Completer
	log     *zap.Logger
}

// NewController creates a controller with an empty history.
func NewController(client Completer, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		history: model.NewHistory(),
		client:  client,
		log:     logger.Named("conversation"),
	}
}

// Busy reports whether a chat request is in flight.
func (c *Controller) Busy() bool {
	return c.busy
}

// History returns a copy of the conversation so far.
func (c *Controller) History() []model.Message {
	return c.history.Messages()
}

// Len returns the number of messages in the history.
func (c *Controller) Len() int {
	return c.history.Len()
}

// Submit appends a user message and returns the command that sends the
// whole history to the selected model. It returns nil, changing nothing,
// when text is empty or conn has no selected model.
//
// The endpoint and model are taken from conn now; later selection changes
// only affect the next Submit.
func (c *Controller) Submit(text string, conn connection.State) Cmd {
	if text == "" || conn.Selected == "" {
		return nil
	}

	c.history.Append(model.NewUserMessage(text))
	req := ollama.ChatRequest{
		Model:    conn.Selected,
		Messages: c.history.Wire(),
		Stream:   false,
	}
	c.busy = true

	endpoint := conn.Endpoint
	client := c.client
	c.log.Debug("chat request",
		zap.String("endpoint", endpoint),
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)),
	)

	return func(ctx context.Context) Msg {
		start := time.Now()
		resp, err := client.Chat(ctx, endpoint, req)
		return ReplyMsg{
			Endpoint: endpoint,
			Model:    req.Model,
			Reply:    resp,
			Err:      err,
			Elapsed:  time.Since(start),
		}
	}
}

// Update applies a message. Only ReplyMsg changes state: it appends exactly
// one message (the reply or a system error) and clears the busy flag.
func (c *Controller) Update(msg Msg) Cmd {
	reply, ok := msg.(ReplyMsg)
	if !ok {
		return nil
	}

	switch {
	case reply.Err != nil:
		text := ReplyErrorText(reply.Err)
		c.history.Append(model.NewSystemMessage(text))
		c.log.Warn("chat failed",
			zap.String("endpoint", reply.Endpoint),
			zap.String("model", reply.Model),
			zap.String("kind", ollama.KindOf(reply.Err).String()),
			zap.Error(reply.Err),
		)
	case reply.Reply == nil:
		c.history.Append(model.NewSystemMessage("Error parsing response: empty response"))
	default:
		c.history.Append(model.FromReply(reply.Reply))
		c.log.Info("chat complete",
			zap.String("model", reply.Model),
			zap.Duration("elapsed", reply.Elapsed),
			zap.Int("eval_count", reply.Reply.EvalCount),
		)
	}

	c.busy = false
	return nil
}

// ReplyErrorText formats a chat failure as the content of a system message.
func ReplyErrorText(err error) string {
	detail := ollama.DetailOf(err)
	switch ollama.KindOf(err) {
	case ollama.KindStatus:
		return "API Error: " + detail
	case ollama.KindParse:
		return "Error parsing response: " + detail
	default:
		return "Network Error: " + detail
	}
}
