// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/rigchat/internal/connection"
	"github.com/jeranaias/rigchat/internal/export"
	"github.com/jeranaias/rigchat/internal/session"
	"github.com/jeranaias/rigchat/internal/ui/styles"
)

// =============================================================================
// MODE
// =============================================================================

// Mode is the current interaction mode of the view.
type Mode int

const (
	ModeChat Mode = iota
	ModeEndpoint
	ModePicker
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeChat:
		return "chat"
	case ModeEndpoint:
		return "endpoint"
	case ModePicker:
		return "picker"
	default:
		return "unknown"
	}
}

// Layout rows outside the transcript: bordered header (3), activity row,
// bordered input line (2) and help.
const reservedRows = 7

// =============================================================================
// MODEL
// =============================================================================

// Options tune the chat view.
type Options struct {
	// Markdown renders assistant replies through glamour.
	Markdown bool

	// ExportDir receives transcripts saved with Ctrl+S.
	// Default: current working directory
	ExportDir string
}

// modelItem is a picker entry.
type modelItem struct {
	name     string
	selected bool
}

func (i modelItem) FilterValue() string { return i.name }
func (i modelItem) Title() string       { return i.name }
func (i modelItem) Description() string {
	if i.selected {
		return "selected"
	}
	return ""
}

// Model is the Bubble Tea model of the chat view.
type Model struct {
	ctx     context.Context
	backend Backend
	theme   *styles.Theme
	keys    KeyMap

	updates     <-chan session.Snapshot
	unsubscribe func()
	snap        session.Snapshot

	mode      Mode
	notice    string
	width     int
	height    int
	markdown  bool
	exportDir string

	viewport      viewport.Model
	input         textinput.Model
	endpointInput textinput.Model
	spinner       spinner.Model
	picker        list.Model
	help          help.Model

	// Rendered assistant replies by message ID, reset on resize.
	rendered map[string]string
	renderer *glamour.TermRenderer
}

// New creates the chat view and subscribes it to b.
func New(ctx context.Context, b Backend, theme *styles.Theme, opts Options) Model {
	if theme == nil {
		theme = styles.NewTheme("")
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 0
	ti.Focus()

	ei := textinput.New()
	ei.Prompt = "URL: "
	ei.PromptStyle = theme.InputPrompt
	ei.Placeholder = connection.DefaultEndpoint

	vp := viewport.New(80, 20)

	// ASCII frames so it renders on every terminal
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = theme.Spinner

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetSpacing(0)
	picker := list.New(nil, delegate, 80, 20)
	picker.Title = "Select model"
	picker.Styles.Title = theme.PickerTitle
	picker.SetShowStatusBar(false)
	picker.DisableQuitKeybindings()

	updates, unsubscribe := b.Subscribe()

	m := Model{
		ctx:           ctx,
		backend:       b,
		theme:         theme,
		keys:          DefaultKeyMap(),
		updates:       updates,
		unsubscribe:   unsubscribe,
		snap:          b.Snapshot(),
		markdown:      opts.Markdown,
		exportDir:     opts.ExportDir,
		viewport:      vp,
		input:         ti,
		endpointInput: ei,
		spinner:       sp,
		picker:        picker,
		help:          help.New(),
		rendered:      make(map[string]string),
	}
	m.refreshViewport()
	return m
}

// Snapshot returns the snapshot currently on screen.
func (m Model) Snapshot() session.Snapshot {
	return m.snap
}

// Mode returns the current interaction mode.
func (m Model) Mode() Mode {
	return m.mode
}

// Notice returns the transient notice shown in the activity row.
func (m Model) Notice() string {
	return m.notice
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts listening for session snapshots.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForSnapshot(m.updates), textinput.Blink}
	if m.snap.Busy {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case SnapshotMsg:
		return m.handleSnapshot(msg.Snapshot)

	case SessionClosedMsg:
		return m, tea.Quit

	case IntentResultMsg:
		return m.handleIntentResult(msg)

	case ExportedMsg:
		switch {
		case errors.Is(msg.Err, export.ErrEmpty):
			m.notice = "Nothing to export yet"
		case msg.Err != nil:
			m.notice = "Error: " + msg.Err.Error()
		default:
			m.notice = "Saved " + msg.Path
		}
		return m, nil

	case spinner.TickMsg:
		if !m.snap.Busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.forward(msg)
}

// View renders the chat view.
func (m Model) View() string {
	return m.render()
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	m.viewport.Width = max(msg.Width, 1)
	m.viewport.Height = max(msg.Height-reservedRows, 1)
	m.input.Width = max(msg.Width-4, 10)
	m.endpointInput.Width = max(msg.Width-8, 10)
	m.picker.SetSize(msg.Width, max(msg.Height-3, 3))
	m.help.Width = msg.Width

	// Wrap width changed, so cached markdown is stale.
	m.rendered = make(map[string]string)
	m.renderer = nil

	m.refreshViewport()
	return m, nil
}

func (m Model) handleSnapshot(snap session.Snapshot) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{waitForSnapshot(m.updates)}

	wasBusy := m.snap.Busy
	atBottom := m.viewport.AtBottom()
	grew := len(snap.History) != len(m.snap.History)

	m.snap = snap
	m.refreshViewport()
	if grew || atBottom {
		m.viewport.GotoBottom()
	}

	if snap.Busy && !wasBusy {
		cmds = append(cmds, m.spinner.Tick)
	}

	// The picker follows a catalog replaced while it is open.
	if m.mode == ModePicker {
		if len(snap.Conn.Models) == 0 {
			m.mode = ModeChat
			m.notice = "No models available"
		} else {
			cmds = append(cmds, m.picker.SetItems(pickerItems(snap.Conn)))
		}
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleIntentResult(msg IntentResultMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Err == nil:
		return m, nil
	case errors.Is(msg.Err, session.ErrClosed):
		return m, tea.Quit
	case errors.Is(msg.Err, context.Canceled):
		return m, nil
	case errors.Is(msg.Err, session.ErrBusy):
		m.notice = "Waiting for the current reply"
	case errors.Is(msg.Err, connection.ErrUnknownModel):
		m.notice = "Model is not in the catalog"
	default:
		m.notice = "Error: " + msg.Err.Error()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.unsubscribe()
		return m, tea.Quit
	}

	switch m.mode {
	case ModePicker:
		return m.handlePickerKey(msg)
	case ModeEndpoint:
		return m.handleEndpointKey(msg)
	}

	m.notice = ""

	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.unsubscribe()
		return m, tea.Quit

	case key.Matches(msg, m.keys.EditEndpoint):
		m.mode = ModeEndpoint
		m.input.Blur()
		m.endpointInput.SetValue(m.snap.Conn.Endpoint)
		m.endpointInput.CursorEnd()
		return m, m.endpointInput.Focus()

	case key.Matches(msg, m.keys.PickModel):
		if len(m.snap.Conn.Models) == 0 {
			m.notice = "No models available"
			return m, nil
		}
		m.mode = ModePicker
		m.input.Blur()
		m.picker.ResetFilter()
		cmd := m.picker.SetItems(pickerItems(m.snap.Conn))
		for i, name := range m.snap.Conn.Models {
			if name == m.snap.Conn.Selected {
				m.picker.Select(i)
				break
			}
		}
		return m, cmd

	case key.Matches(msg, m.keys.Export):
		return m, exportCmd(m.snap, m.exportDir)

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	}

	return m.forward(msg)
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.picker.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.Cancel):
			return m.leaveOverlay(), nil
		case key.Matches(msg, m.keys.Submit):
			item, ok := m.picker.SelectedItem().(modelItem)
			m = m.leaveOverlay()
			if !ok {
				return m, nil
			}
			return m, selectModelCmd(m.ctx, m.backend, item.name)
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m Model) handleEndpointKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		return m.leaveOverlay(), nil
	case key.Matches(msg, m.keys.Submit):
		url := strings.TrimSpace(m.endpointInput.Value())
		m = m.leaveOverlay()
		return m, setEndpointCmd(m.ctx, m.backend, url)
	}

	var cmd tea.Cmd
	m.endpointInput, cmd = m.endpointInput.Update(msg)
	return m, cmd
}

// submit sends the input line. Nothing is sent while a reply is pending
// or no model is selected; the typed text is kept.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return m, nil
	}
	if !m.snap.CanSubmit() {
		m.notice = "No model selected"
		if m.snap.Busy {
			m.notice = "Waiting for the current reply"
		}
		return m, nil
	}

	m.input.Reset()
	return m, submitCmd(m.ctx, m.backend, text)
}

func (m Model) leaveOverlay() Model {
	m.mode = ModeChat
	m.endpointInput.Blur()
	m.input.Focus()
	return m
}

// forward hands non-key messages (cursor blink and the like) to the
// focused widget.
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.mode {
	case ModeEndpoint:
		m.endpointInput, cmd = m.endpointInput.Update(msg)
	case ModePicker:
		m.picker, cmd = m.picker.Update(msg)
	default:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func pickerItems(conn connection.State) []list.Item {
	items := make([]list.Item, len(conn.Models))
	for i, name := range conn.Models {
		items[i] = modelItem{name: name, selected: name == conn.Selected}
	}
	return items
}
