// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/jeranaias/deskshell/internal/commands"
)

// =============================================================================
// STATES
// =============================================================================

// State is the session's position in its input cycle.
type State int

const (
	Idle State = iota
	Composing
	Executing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Composing:
		return "composing"
	case Executing:
		return "executing"
	default:
		return "unknown"
	}
}

// =============================================================================
// EVENTS
// =============================================================================

// Event is an input to Handle.
type Event interface {
	isEvent()
}

// Cmd is deferred work returned by Handle. The host runs it off the event
// loop and passes the Event it returns back to Handle.
type Cmd func() Event

// Key identifies a key with shell semantics.
type Key int

const (
	// KeyRune inserts KeyEvent.Rune at the cursor.
	KeyRune Key = iota
	KeyTab
	KeyEnter
	KeyUp
	KeyDown
	KeyInterrupt
)

// String returns the key name.
func (k Key) String() string {
	switch k {
	case KeyRune:
		return "rune"
	case KeyTab:
		return "tab"
	case KeyEnter:
		return "enter"
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyInterrupt:
		return "interrupt"
	default:
		return "unknown"
	}
}

// KeyEvent is a key press.
type KeyEvent struct {
	Key  Key
	Rune rune
}

// EditEvent replaces the line buffer after an edit the host performed
// itself (backspace, cursor movement, paste).
type EditEvent struct {
	Line string

	// Cursor is a rune offset into Line
	Cursor int
}

// dispatchDone carries the result of an async dispatch back to the loop.
type dispatchDone struct {
	seq    uint64
	result commands.Result
	err    error
}

func (KeyEvent) isEvent()     {}
func (EditEvent) isEvent()    {}
func (dispatchDone) isEvent() {}

// =============================================================================
// HOST INTERFACES
// =============================================================================

// Surface displays a session's output.
type Surface interface {
	// Append shows new lines after the existing ones
	Append(lines []commands.Line)

	// Clear removes all shown lines
	Clear()

	// Bell signals that a key had no effect (e.g., nothing to complete)
	Bell()
}

// EffectSink applies host side effects requested by commands. Clearing the
// output is handled by the session itself and never reaches the sink.
type EffectSink interface {
	Apply(effect commands.Effect)
}

// EffectFunc adapts a function to EffectSink.
type EffectFunc func(effect commands.Effect)

// Apply calls f(effect).
func (f EffectFunc) Apply(effect commands.Effect) {
	f(effect)
}

type nopSurface struct{}

func (nopSurface) Append([]commands.Line) {}
func (nopSurface) Clear()                 {}
func (nopSurface) Bell()                  {}
