// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// repl.go - Line-mode chat for rigchat.
//
// Slash Commands:
//   /endpoint [url]     Show or change the API base URL
//   /model [name]       Show or switch model
//   /models             List the discovered models
//   /status, /s         Show connection and session state
//   /history            Show conversation history
//   /export [file]      Save the conversation (.md or .json)
//   /help, /h           Show available commands
//   /quit, /q           Exit chat
//   Ctrl+D              Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/jeranaias/rigchat/internal/connection"
	"github.com/jeranaias/rigchat/internal/export"
	"github.com/jeranaias/rigchat/internal/session"
)

// lineReader is the line editor behind the prompt.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// repl drives a session from a line editor. Input is read only while no
// reply is pending.
type repl struct {
	sess    *session.Session
	in      lineReader
	out     io.Writer
	printer *messagePrinter
	log     *zap.Logger
}

const replPrompt = "rigchat> "

// run reads lines until EOF, Ctrl+C or /quit.
func (r *repl) run(ctx context.Context) error {
	r.printWelcome(ctx)

	for {
		input, err := r.in.Prompt(replPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				r.printExitSummary()
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = normalizeInput(input)
		if input == "" {
			continue
		}
		r.in.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			quit, err := r.handleCommand(ctx, input)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, session.ErrClosed) {
					return nil
				}
				r.errorf("%v", err)
			}
			if quit {
				r.printExitSummary()
				return nil
			}
			continue
		}

		if err := r.send(ctx, input); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, session.ErrClosed) {
				return nil
			}
			r.errorf("%v", err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// send submits text and prints the reply, or the system message that
// replaced it.
func (r *repl) send(ctx context.Context, text string) error {
	before := len(r.sess.Snapshot().History)

	if err := r.sess.Submit(ctx, text); err != nil {
		return err
	}

	if len(r.sess.Snapshot().History) == before {
		r.warnf("No model selected. Check /status, or point /endpoint at a running server.")
		return nil
	}

	snap, err := r.sess.WaitFor(ctx, func(s session.Snapshot) bool { return !s.Busy })
	if err != nil {
		return err
	}
	if last, ok := snap.Last(); ok {
		r.printer.Print(last)
	}
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleCommand runs a slash command. It reports whether the REPL should
// exit.
func (r *repl) handleCommand(ctx context.Context, input string) (bool, error) {
	fields := strings.Fields(input)
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/quit", "/q", "/exit":
		return true, nil

	case "/help", "/h", "/?":
		r.printHelp()

	case "/status", "/s":
		r.printStatus()

	case "/models":
		r.printModels()

	case "/history":
		r.printHistory()

	case "/export":
		var path string
		if len(args) > 0 {
			path = args[0]
		}
		return false, r.export(path)

	case "/model":
		if len(args) == 0 {
			fmt.Fprintln(r.out, ValueStyle.Render(orNone(r.sess.Snapshot().Conn.Selected)))
			return false, nil
		}
		return false, r.selectModel(ctx, args[0])

	case "/endpoint":
		if len(args) == 0 {
			fmt.Fprintln(r.out, ValueStyle.Render(r.sess.Snapshot().Conn.Endpoint))
			return false, nil
		}
		return false, r.setEndpoint(ctx, args[0])

	default:
		return false, fmt.Errorf("unknown command %s (try /help)", name)
	}
	return false, nil
}

func (r *repl) selectModel(ctx context.Context, name string) error {
	err := r.sess.SelectModel(ctx, name)
	if errors.Is(err, connection.ErrUnknownModel) {
		return fmt.Errorf("model %q is not in the catalog (see /models)", name)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, SuccessStyle.Render("Model: "+name))
	return nil
}

func (r *repl) setEndpoint(ctx context.Context, url string) error {
	generation := r.sess.Snapshot().Conn.Generation
	if err := r.sess.SetEndpoint(ctx, url); err != nil {
		return err
	}
	if r.sess.Snapshot().Conn.Generation == generation {
		fmt.Fprintln(r.out, DimStyle.Render("Endpoint unchanged"))
		return nil
	}

	snap, err := waitDiscovered(ctx, r.sess)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, RenderConnStatus(snap.Conn))
	return nil
}

func (r *repl) export(path string) error {
	written, err := export.ToFile(export.FromSnapshot(r.sess.Snapshot()), path, nil)
	if errors.Is(err, export.ErrEmpty) {
		r.warnf("Nothing to export yet")
		return nil
	}
	if err != nil {
		return err
	}
	r.log.Info("conversation exported", zap.String("path", written))
	fmt.Fprintln(r.out, SuccessStyle.Render("Saved "+written))
	return nil
}

// =============================================================================
// OUTPUT
// =============================================================================

func (r *repl) printWelcome(ctx context.Context) {
	fmt.Fprintln(r.out, TitleStyle.Render("rigchat")+" "+DimStyle.Render(Version))

	snap, err := waitDiscovered(ctx, r.sess)
	if err != nil {
		return
	}
	fmt.Fprintln(r.out, RenderConnStatus(snap.Conn)+"  "+DimStyle.Render(snap.Conn.Endpoint))
	if snap.Conn.Selected != "" {
		fmt.Fprintln(r.out, DimStyle.Render("Model: ")+ValueStyle.Render(snap.Conn.Selected))
	}
	fmt.Fprintln(r.out, DimStyle.Render("Type /help for commands, Ctrl+D to exit."))
	fmt.Fprintln(r.out)
}

func (r *repl) printHelp() {
	commands := [][2]string{
		{"/endpoint [url]", "Show or change the API base URL"},
		{"/model [name]", "Show or switch model"},
		{"/models", "List the discovered models"},
		{"/status", "Show connection and session state"},
		{"/history", "Show conversation history"},
		{"/export [file]", "Save the conversation (.md or .json)"},
		{"/help", "Show this help"},
		{"/quit", "Exit chat"},
	}
	fmt.Fprintln(r.out, TitleStyle.Render("Commands"))
	for _, c := range commands {
		fmt.Fprintf(r.out, "  %s %s\n", CommandStyle.Render(fmt.Sprintf("%-16s", c[0])), c[1])
	}
}

func (r *repl) printStatus() {
	snap := r.sess.Snapshot()
	row := func(label, value string) {
		fmt.Fprintln(r.out, LabelStyle.Render(label)+value)
	}
	row("Status", RenderConnStatus(snap.Conn))
	row("Endpoint", ValueStyle.Render(snap.Conn.Endpoint))
	row("Model", ValueStyle.Render(orNone(snap.Conn.Selected)))
	row("Models", ValueStyle.Render(strconv.Itoa(len(snap.Conn.Models))))
	row("Messages", ValueStyle.Render(strconv.Itoa(len(snap.History))))
	row("Session", DimStyle.Render(snap.ID+" ("+session.FormatDuration(r.sess.Duration())+")"))
}

func (r *repl) printModels() {
	conn := r.sess.Snapshot().Conn
	if len(conn.Models) == 0 {
		r.warnf("No models available")
		return
	}
	for _, name := range conn.Models {
		marker := "  "
		if name == conn.Selected {
			marker = SuccessStyle.Render("* ")
		}
		fmt.Fprintln(r.out, marker+name)
	}
}

func (r *repl) printHistory() {
	history := r.sess.Snapshot().History
	if len(history) == 0 {
		fmt.Fprintln(r.out, DimStyle.Render("No messages yet"))
		return
	}
	for i, msg := range history {
		r.printer.PrintPreview(i+1, msg)
	}
}

func (r *repl) printExitSummary() {
	snap := r.sess.Snapshot()
	fmt.Fprintf(r.out, "%s %d messages in %s\n",
		DimStyle.Render("Session ended:"), len(snap.History), session.FormatDuration(r.sess.Duration()))
	r.log.Info("chat ended", zap.Int("messages", len(snap.History)))
}

func (r *repl) warnf(format string, args ...any) {
	fmt.Fprintln(r.out, WarningStyle.Render(fmt.Sprintf(format, args...)))
}

func (r *repl) errorf(format string, args ...any) {
	fmt.Fprintln(r.out, ErrorStyle.Render("[Error]")+" "+fmt.Sprintf(format, args...))
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
