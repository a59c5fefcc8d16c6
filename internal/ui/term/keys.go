// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package term

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/deskshell/internal/session"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the keys the terminal intercepts. Everything else edits
// the input line.
type KeyMap struct {
	Submit    key.Binding
	Complete  key.Binding
	Prev      key.Binding
	Next      key.Binding
	Interrupt key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "run"),
		),
		Complete: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "complete"),
		),
		Prev: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("Up", "previous command"),
		),
		Next: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("Down", "next command"),
		),
		Interrupt: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "interrupt"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "shift+up"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "shift+down"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q", "ctrl+d"),
			key.WithHelp("C-d", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Complete, k.Prev, k.Interrupt, k.Quit}
}

// =============================================================================
// KEY ADAPTATION
// =============================================================================

// AdaptKey translates a key press into session key events. It returns false
// for keys the session has no meaning for, which the input line handles as
// edits instead. Typed and pasted text becomes one KeyRune event per rune.
func (k KeyMap) AdaptKey(msg tea.KeyMsg) ([]session.KeyEvent, bool) {
	switch {
	case key.Matches(msg, k.Submit):
		return []session.KeyEvent{{Key: session.KeyEnter}}, true
	case key.Matches(msg, k.Complete):
		return []session.KeyEvent{{Key: session.KeyTab}}, true
	case key.Matches(msg, k.Prev):
		return []session.KeyEvent{{Key: session.KeyUp}}, true
	case key.Matches(msg, k.Next):
		return []session.KeyEvent{{Key: session.KeyDown}}, true
	case key.Matches(msg, k.Interrupt):
		return []session.KeyEvent{{Key: session.KeyInterrupt}}, true
	}

	if msg.Alt {
		return nil, false
	}
	switch msg.Type {
	case tea.KeySpace:
		return []session.KeyEvent{{Key: session.KeyRune, Rune: ' '}}, true
	case tea.KeyRunes:
		events := make([]session.KeyEvent, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			if r == '\n' || r == '\r' {
				continue
			}
			if r == '\t' {
				r = ' '
			}
			events = append(events, session.KeyEvent{Key: session.KeyRune, Rune: r})
		}
		return events, len(events) > 0
	}
	return nil, false
}
