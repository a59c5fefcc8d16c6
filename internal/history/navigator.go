// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

// Navigator walks a History for Up/Down recall. The line being composed
// when navigation starts is kept as a draft and restored when the walk
// moves past the newest entry.
type Navigator struct {
	h      *History
	pos    int
	draft  string
	active bool
}

// NewNavigator creates a navigator over h.
func NewNavigator(h *History) *Navigator {
	return &Navigator{h: h}
}

// Prev moves one entry back (older) and returns its text. current is the
// line being composed, saved as the draft on the first step. ok is false
// when the history is empty.
func (n *Navigator) Prev(current string) (line string, ok bool) {
	size := n.h.Len()
	if size == 0 {
		return current, false
	}

	if !n.active {
		n.active = true
		n.draft = current
		n.pos = size
	}
	if n.pos > 0 {
		n.pos--
	}

	e, _ := n.h.At(n.pos)
	return e.Text, true
}

// Next moves one entry forward (newer). Moving past the newest entry
// returns the saved draft and ends the walk. ok is false when no walk is
// in progress.
func (n *Navigator) Next() (line string, ok bool) {
	if !n.active {
		return "", false
	}

	n.pos++
	if n.pos >= n.h.Len() {
		draft := n.draft
		n.Reset()
		return draft, true
	}

	e, _ := n.h.At(n.pos)
	return e.Text, true
}

// Active reports whether a walk is in progress.
func (n *Navigator) Active() bool {
	return n.active
}

// Reset ends the walk without touching the history.
func (n *Navigator) Reset() {
	n.active = false
	n.draft = ""
	n.pos = 0
}
