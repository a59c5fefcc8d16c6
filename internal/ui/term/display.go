// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package term

import (
	"sync"

	"github.com/jeranaias/deskshell/internal/commands"
)

// Display is the session.Surface of the full-screen terminal. The session
// writes to it while handling an event; the Model picks the changes up
// after the event returns.
//
// SetTheme may be called from any goroutine, so a config reload or the
// desktop's theme effect can restyle the terminal.
type Display struct {
	mu      sync.Mutex
	dirty   bool
	bell    bool
	theme   string
	restyle bool
}

// NewDisplay creates a display using theme.
func NewDisplay(theme string) *Display {
	return &Display{theme: theme}
}

// Append implements session.Surface.
func (d *Display) Append([]commands.Line) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dirty = true
}

// Clear implements session.Surface.
func (d *Display) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dirty = true
}

// Bell implements session.Surface.
func (d *Display) Bell() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bell = true
}

// SetTheme switches the theme on the next redraw.
func (d *Display) SetTheme(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if name != d.theme {
		d.theme = name
		d.restyle = true
	}
}

// Theme returns the current theme name.
func (d *Display) Theme() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.theme
}

// changes is what happened since the last call to take.
type changes struct {
	dirty bool
	bell  bool
	theme string
}

func (d *Display) take() changes {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := changes{dirty: d.dirty || d.restyle, bell: d.bell}
	if d.restyle {
		c.theme = d.theme
	}
	d.dirty, d.bell, d.restyle = false, false, false
	return c
}
