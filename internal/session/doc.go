// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements one terminal: the line being composed, its
// history, its output log, and the state machine that turns key events into
// dispatched commands.
//
// A Session is driven by a single event loop. The host adapts its raw input
// into Events and passes them to Handle. Handle never blocks on a command
// marked Async; it returns a Cmd instead, which the host runs on another
// goroutine, feeding the resulting Event back into Handle. This is the same
// contract as a Bubble Tea tea.Cmd, so the TUI wraps it directly, while
// line-mode hosts can use Submit.
//
// # States
//
//   - Idle: waiting for input
//   - Composing: a line is being edited
//   - Executing: a command is running; keystrokes still edit the next line
//     and Enter queues it
//
// # Usage
//
//	s := session.New(cfg, registry, aliases, session.WithSurface(view))
//	cmd := s.Handle(session.KeyEvent{Key: session.KeyEnter})
//	for cmd != nil {
//	    cmd = s.Handle(cmd())
//	}
package session
