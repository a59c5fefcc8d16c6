// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/jeranaias/deskshell/internal/commands"
)

// outputLog keeps the most recent lines written to a session.
type outputLog struct {
	lines []commands.Line
	cap   int
}

func newOutputLog(capacity int) *outputLog {
	return &outputLog{cap: capacity}
}

func (o *outputLog) append(lines ...commands.Line) {
	o.lines = append(o.lines, lines...)
	if over := len(o.lines) - o.cap; o.cap > 0 && over > 0 {
		n := copy(o.lines, o.lines[over:])
		clear(o.lines[n:])
		o.lines = o.lines[:n]
	}
}

func (o *outputLog) clear() {
	o.lines = nil
}

func (o *outputLog) snapshot() []commands.Line {
	return append([]commands.Line(nil), o.lines...)
}
