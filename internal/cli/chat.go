// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/rigchat/internal/connection"
	"github.com/jeranaias/rigchat/internal/ui/chat"
	"github.com/jeranaias/rigchat/internal/ui/styles"
)

const chatLongDesc string = `Open an interactive chat session.

In a terminal this is the full-screen interface:
  Enter   send          Ctrl+E  edit endpoint
  Ctrl+O  pick model    PgUp/PgDn scroll
  Esc/Ctrl+C quit

With --plain, ui.plain = true in the config, or when input or output is
not a terminal, a line-mode prompt with slash commands is used instead
(type /help at the prompt).`

const chatShortDesc string = "Open an interactive chat session"

type chatCommander struct {
	app   *app
	plain bool
}

func newChatCommander(a *app) *chatCommander {
	return &chatCommander{app: a}
}

func newChatCmd(a *app) *cobra.Command {
	cmder := newChatCommander(a)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Use the line-mode prompt instead of the full-screen interface")

	return cmd
}

func (c *chatCommander) useTUI() bool {
	return !c.plain && !c.app.cfg.UI.Plain && IsTTY() && IsStdoutTTY()
}

func (c *chatCommander) run(cmd *cobra.Command) error {
	tui := c.useTUI()
	if err := c.app.setupLogging(tui, cmd.ErrOrStderr()); err != nil {
		return err
	}
	defer c.app.close()

	ctx := cmd.Context()
	sess := c.app.startSession(ctx)
	stopWatch := c.app.watchConfig(ctx, sess.Session)
	defer stopWatch()

	var err error
	if tui {
		err = c.runTUI(ctx, sess)
	} else {
		err = c.runREPL(ctx, cmd, sess)
	}

	if stopErr := sess.stop(); err == nil {
		err = stopErr
	}
	return err
}

func (c *chatCommander) runTUI(ctx context.Context, sess *runningSession) error {
	cfg := c.app.cfg

	go func() {
		if err := applyPreferredModel(ctx, sess.Session, cfg.Model); err != nil && !errors.Is(err, context.Canceled) {
			c.app.log.Warn("preferred model not applied", zap.String("model", cfg.Model), zap.Error(err))
		}
	}()

	m := chat.New(ctx, sess.Session, styles.NewTheme(cfg.UI.Theme), chat.Options{
		Markdown: cfg.UI.Markdown,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("chat UI failed: %w", err)
	}
	return nil
}

func (c *chatCommander) runREPL(ctx context.Context, cmd *cobra.Command, sess *runningSession) error {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	r := &repl{
		sess:    sess.Session,
		in:      line,
		out:     cmd.OutOrStdout(),
		printer: newMessagePrinter(cmd.OutOrStdout(), c.app.cfg.UI.Markdown),
		log:     c.app.log,
	}

	if err := applyPreferredModel(ctx, sess.Session, c.app.cfg.Model); err != nil {
		if !errors.Is(err, connection.ErrUnknownModel) {
			return err
		}
		r.warnf("Model %q is not available on this endpoint", c.app.cfg.Model)
	}
	return r.run(ctx)
}
