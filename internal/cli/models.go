// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

const modelsLongDesc string = `List the models available on the endpoint.

Runs one discovery against the endpoint and prints one model name per
line. The model that a chat session would select is marked with * when
output is a terminal. Exits non-zero when discovery fails.

Examples:
  rigchat models
  rigchat models --endpoint http://gpu-box:11434`

const modelsShortDesc string = "List the models available on the endpoint"

type modelsCommander struct {
	app *app
}

func newModelsCmd(a *app) *cobra.Command {
	cmder := &modelsCommander{app: a}

	return &cobra.Command{
		Use:   "models",
		Short: modelsShortDesc,
		Long:  modelsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd)
		},
	}
}

func (c *modelsCommander) run(cmd *cobra.Command) error {
	if err := c.app.setupLogging(false, cmd.ErrOrStderr()); err != nil {
		return err
	}
	defer c.app.close()

	ctx := cmd.Context()
	sess := c.app.startSession(ctx)
	defer func() { _ = sess.stop() }()

	snap, err := waitDiscovered(ctx, sess.Session)
	if err != nil {
		return err
	}
	if snap.Conn.Err != "" {
		return errors.New(snap.Conn.Err)
	}
	if len(snap.Conn.Models) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render("No models available"))
		return nil
	}

	mark := IsStdoutTTY()
	for _, name := range snap.Conn.Models {
		switch {
		case !mark:
			fmt.Fprintln(cmd.OutOrStdout(), name)
		case name == snap.Conn.Selected:
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("* ")+name)
		default:
			fmt.Fprintln(cmd.OutOrStdout(), "  "+name)
		}
	}
	return nil
}
