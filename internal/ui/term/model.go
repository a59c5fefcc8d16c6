// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package term

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/deskshell/internal/session"
	"github.com/jeranaias/deskshell/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// sessionMsg carries the event an async session Cmd produced.
type sessionMsg struct {
	event session.Event
}

// StatusMsg shows a transient note in the status bar, such as a config
// reload. Send it with tea.Program.Send.
type StatusMsg string

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea host for one terminal session.
type Model struct {
	session *session.Session
	display *Display
	theme   *styles.Theme
	keys    KeyMap
	title   string

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	width  int
	height int

	status   string
	bell     bool
	quitting bool
}

// Option customizes a Model.
type Option func(*Model)

// WithTitle sets the header text.
func WithTitle(title string) Option {
	return func(m *Model) { m.title = title }
}

// WithKeyMap replaces the default key bindings.
func WithKeyMap(keys KeyMap) Option {
	return func(m *Model) { m.keys = keys }
}

// New creates a Model for s, which must have been created with display as
// its surface.
func New(s *session.Session, display *Display, opts ...Option) Model {
	ti := textinput.New()
	ti.Prompt = s.Prompt()
	ti.CharLimit = 1024
	ti.Focus()

	vp := viewport.New(80, 20)

	m := Model{
		session:  s,
		display:  display,
		keys:     DefaultKeyMap(),
		title:    "deskshell",
		input:    ti,
		viewport: vp,
		width:    80,
		height:   24,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.applyTheme(display.Theme())
	m.refresh()
	return m
}

// Session returns the hosted session.
func (m Model) Session() *session.Session { return m.session }

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sessionMsg:
		return m.afterSession(m.session.Handle(msg.event))

	case StatusMsg:
		m.status = string(msg)
		return m.afterSession(nil)

	case spinner.TickMsg:
		if m.session.State() != session.Executing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the terminal.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.render()
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.layout()
	m.refresh()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	m.bell = false

	switch {
	case key.Matches(msg, m.keys.Quit) && (m.session.Line() == "" || msg.String() == "ctrl+q"):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if events, ok := m.keys.AdaptKey(msg); ok {
		var cmds []tea.Cmd
		for _, ev := range events {
			var cmd tea.Cmd
			m, cmd = m.afterSession(m.session.Handle(ev))
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	// Any other key is an edit of the input line.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != m.session.Line() || m.input.Position() != m.session.Cursor() {
		next, sessCmd := m.afterSession(m.session.Handle(session.EditEvent{
			Line:   m.input.Value(),
			Cursor: m.input.Position(),
		}))
		return next, tea.Batch(cmd, sessCmd)
	}
	return m, cmd
}

// afterSession syncs the view with the session after it handled an event
// and schedules the Cmd it returned.
func (m Model) afterSession(cmd session.Cmd) (Model, tea.Cmd) {
	ch := m.display.take()
	if ch.theme != "" {
		m.applyTheme(ch.theme)
	}
	if ch.bell {
		m.bell = true
	}

	m.input.SetValue(m.session.Line())
	m.input.SetCursor(m.session.Cursor())
	if ch.dirty {
		m.refresh()
	}

	if cmd == nil {
		return m, nil
	}
	return m, tea.Batch(wrap(cmd), m.spinner.Tick)
}

// wrap runs a session Cmd as a Bubble Tea command.
func wrap(cmd session.Cmd) tea.Cmd {
	return func() tea.Msg {
		return sessionMsg{event: cmd()}
	}
}

// =============================================================================
// LAYOUT
// =============================================================================

const (
	headerHeight    = 2
	candidateHeight = 1
	inputHeight     = 1
	statusHeight    = 1
)

func (m *Model) layout() {
	h := m.height - headerHeight - candidateHeight - inputHeight - statusHeight
	m.viewport.Width = max(1, m.width)
	m.viewport.Height = max(1, h)
	m.input.Width = max(10, m.width-len([]rune(m.input.Prompt))-1)
}

func (m *Model) applyTheme(name string) {
	m.theme = styles.NewTheme(name)
	m.input.PromptStyle = m.theme.Prompt
	m.input.TextStyle = m.theme.Input

	sp := styles.SpinnerFor(m.theme.Name)
	m.spinner = spinner.New(spinner.WithSpinner(spinner.Spinner{
		Frames: sp.Frames,
		FPS:    sp.Duration(),
	}))
	m.layout()
}

// refresh re-renders the output log into the viewport and scrolls to the
// newest line.
func (m *Model) refresh() {
	m.viewport.SetContent(m.theme.RenderLines(m.session.Lines()))
	m.viewport.GotoBottom()
}
