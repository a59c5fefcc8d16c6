// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package term is the full-screen Bubble Tea host for a terminal session.
//
// Key presses are adapted into session key events; other editing keys go
// through a textinput bubble and reach the session as edit events. The
// session stays the source of truth for the line, so the input is re-synced
// after every event. Session Cmds run as Bubble Tea commands and their
// results are fed back into the session.
//
// # Usage
//
//	display := term.NewDisplay(cfg.UI.Theme)
//	s := session.New(scfg, reg, aliases, session.WithSurface(display))
//	p := tea.NewProgram(term.New(s, display), tea.WithAltScreen())
//	_, err := p.Run()
package term
