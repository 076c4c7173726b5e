// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigchat/internal/config"
)

const configLongDesc string = `Inspect and edit the rigchat configuration.

Subcommands:
  show             Print the effective configuration
  path             Print the config file path
  init [--force]   Write a config file with the defaults
  get KEY          Print one value
  set KEY VALUE    Change one value in the config file

Keys use the file layout, for example endpoint, request_timeout,
log.level or ui.theme. Run "rigchat config get" without a key to list
them.`

type configCommander struct {
	app   *app
	force bool
}

func newConfigCmd(a *app) *cobra.Command {
	cmder := &configCommander{app: a}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the configuration",
		Long:  configLongDesc,
	}

	// The file commands must work even when the current file is invalid.
	skipLoad := func(*cobra.Command, []string) error { return nil }

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprint(cmd.OutOrStdout(), a.cfg.String())
			},
		},
		&cobra.Command{
			Use:               "path",
			Short:             "Print the config file path",
			Args:              cobra.NoArgs,
			PersistentPreRunE: skipLoad,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := cmder.path()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "get [key]",
			Short: "Print one configuration value",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if len(args) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), strings.Join(config.Keys(), "\n"))
					return nil
				}
				value, err := a.cfg.Get(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			},
		},
		&cobra.Command{
			Use:               "set <key> <value>",
			Short:             "Change one value in the config file",
			Args:              cobra.ExactArgs(2),
			PersistentPreRunE: skipLoad,
			RunE: func(cmd *cobra.Command, args []string) error {
				return cmder.set(cmd, args[0], args[1])
			},
		},
	)

	initCmd := &cobra.Command{
		Use:               "init",
		Short:             "Write a config file with the defaults",
		Args:              cobra.NoArgs,
		PersistentPreRunE: skipLoad,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.init(cmd)
		},
	}
	initCmd.Flags().BoolVarP(&cmder.force, "force", "f", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)

	return cmd
}

// path returns the file the config commands act on.
func (c *configCommander) path() (string, error) {
	if c.app.configPath != "" {
		return c.app.configPath, nil
	}
	return config.ActivePath()
}

func (c *configCommander) init(cmd *cobra.Command) error {
	path, err := c.path()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !c.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := save(config.Default(), path); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Wrote "+path))
	return nil
}

// set edits the file alone. Environment overrides are not written back.
func (c *configCommander) set(cmd *cobra.Command, key, value string) error {
	path, err := c.path()
	if err != nil {
		return err
	}

	cfg := config.Default()
	switch _, statErr := os.Stat(path); {
	case statErr == nil:
		if strings.HasSuffix(path, ".json") {
			err = config.LoadJSON(cfg, path)
		} else {
			err = config.LoadTOML(cfg, path)
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	case !errors.Is(statErr, os.ErrNotExist):
		return statErr
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := save(cfg, path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
	return nil
}

func save(cfg *config.Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}
