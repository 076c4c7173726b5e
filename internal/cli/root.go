// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const rootLongDesc string = `rigchat is a terminal chat client for a local Ollama server.

Without a subcommand it opens a chat session: the full-screen interface
when running in a terminal, a line-mode prompt otherwise.

Examples:
  rigchat
  rigchat --endpoint http://gpu-box:11434 --model llama3
  rigchat ask "What is a goroutine?"
  rigchat models`

const rootShortDesc string = "Chat with models on a local Ollama server"

// ExitError carries a process exit code without an error message.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// =============================================================================
// APP
// =============================================================================

// app holds what every subcommand shares: the loaded config and the logger.
type app struct {
	configPath string
	endpoint   string
	model      string
	logLevel   string

	cfg      *config.Config
	log      *zap.Logger
	closeLog func() error
}

// loadConfig reads the config file and applies flag overrides.
func (a *app) loadConfig() error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	// Flags win over file and environment. The endpoint is taken verbatim.
	if a.endpoint != "" {
		cfg.Endpoint = a.endpoint
	}
	if a.model != "" {
		cfg.Model = a.model
	}
	if a.logLevel != "" {
		if _, err := logging.ParseLevel(a.logLevel); err != nil {
			return err
		}
		cfg.Log.Level = a.logLevel
	}

	a.cfg = cfg
	return nil
}

// setupLogging sends logs to the log file when the terminal is taken by
// the TUI, and to stderr otherwise.
func (a *app) setupLogging(toFile bool, stderr io.Writer) error {
	if toFile {
		path, err := a.cfg.LogPath()
		if err != nil {
			return err
		}
		logger, closeFn, err := logging.NewFile(a.cfg.Log.Level, path)
		if err != nil {
			return err
		}
		a.log, a.closeLog = logger, closeFn
		return nil
	}

	// Stderr is shared with command output, so it stays at warn and above
	// unless a level is asked for on the command line.
	level := a.cfg.Log.Level
	if a.logLevel == "" {
		if lvl, _ := logging.ParseLevel(level); lvl < zap.WarnLevel {
			level = "warn"
		}
	}
	logger, err := logging.New(level, stderr, ColorsEnabled())
	if err != nil {
		return err
	}
	a.log = logger
	a.closeLog = func() error {
		_ = logger.Sync()
		return nil
	}
	return nil
}

func (a *app) close() {
	if a.closeLog != nil {
		_ = a.closeLog()
		a.closeLog = nil
	}
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCmd builds the rigchat command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "rigchat",
		Short:         rootShortDesc,
		Long:          rootLongDesc,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return newChatCommander(a).run(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to config file (default ~/.rigchat/config.toml)")
	flags.StringVarP(&a.endpoint, "endpoint", "e", "", "API base URL")
	flags.StringVarP(&a.model, "model", "m", "", "Preferred model")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newChatCmd(a),
		newAskCmd(a),
		newModelsCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:"), err)
	return 1
}

// =============================================================================
// VERSION COMMAND
// =============================================================================

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// The version never needs a valid config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rigchat %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		},
	}
}
