// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigchat/internal/connection"
	"github.com/jeranaias/rigchat/internal/session"
)

const askLongDesc string = `Send one message and print the reply.

The message is the arguments joined by spaces, or standard input when no
arguments are given and input is piped. The exit status is 1 when the
request failed; the failure is printed instead of a reply.

Examples:
  rigchat ask "Explain channels in one paragraph"
  git diff | rigchat ask --model qwen2.5-coder`

const askShortDesc string = "Send one message and print the reply"

type askCommander struct {
	app *app
}

func newAskCmd(a *app) *cobra.Command {
	cmder := &askCommander{app: a}

	return &cobra.Command{
		Use:   "ask [message...]",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args)
		},
	}
}

func (c *askCommander) message(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return normalizeInput(strings.Join(args, " ")), nil
	}
	if IsTTY() {
		return "", errors.New("no message given")
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read message from stdin: %w", err)
	}
	return normalizeInput(string(data)), nil
}

func (c *askCommander) run(cmd *cobra.Command, args []string) error {
	text, err := c.message(cmd, args)
	if err != nil {
		return err
	}
	if text == "" {
		return errors.New("message is empty")
	}

	if err := c.app.setupLogging(false, cmd.ErrOrStderr()); err != nil {
		return err
	}
	defer c.app.close()

	ctx := cmd.Context()
	sess := c.app.startSession(ctx)
	defer func() { _ = sess.stop() }()

	if err := applyPreferredModel(ctx, sess.Session, c.app.cfg.Model); err != nil {
		if errors.Is(err, connection.ErrUnknownModel) {
			return fmt.Errorf("model %q is not available on %s", c.app.cfg.Model, c.app.cfg.Endpoint)
		}
		return err
	}

	snap, err := waitDiscovered(ctx, sess.Session)
	if err != nil {
		return err
	}
	if !snap.Conn.Ready() {
		fmt.Fprintln(cmd.ErrOrStderr(), RenderConnStatus(snap.Conn))
		if snap.Conn.Err == "" {
			fmt.Fprintln(cmd.ErrOrStderr(), "No models available")
		}
		return &ExitError{Code: 1}
	}

	if err := sess.Submit(ctx, text); err != nil {
		return err
	}
	snap, err = sess.WaitFor(ctx, func(s session.Snapshot) bool { return !s.Busy })
	if err != nil {
		return err
	}

	last, ok := snap.Last()
	if !ok {
		return errors.New("no reply")
	}
	if last.IsSystem() {
		fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render(last.Content))
		return &ExitError{Code: 1}
	}
	newMessagePrinter(cmd.OutOrStdout(), c.app.cfg.UI.Markdown).PrintReply(last)
	return nil
}
