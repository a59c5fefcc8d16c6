// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"github.com/peterh/liner"

	"github.com/jeranaias/deskshell/internal/commands"
	"github.com/jeranaias/deskshell/internal/session"
	"github.com/jeranaias/deskshell/internal/ui/styles"
)

// =============================================================================
// LINE SURFACE
// =============================================================================

// LineSurface is the session.Surface of line mode. Output lines are
// printed to w as they arrive.
type LineSurface struct {
	mu     sync.Mutex
	w      io.Writer
	out    *termenv.Output
	theme  *styles.Theme
	colors bool
}

// NewLineSurface creates a surface printing to w in theme. Colors follow
// ColorsEnabled.
func NewLineSurface(w io.Writer, theme string) *LineSurface {
	s := &LineSurface{
		w:      w,
		out:    termenv.NewOutput(w),
		colors: ColorsEnabled(w),
	}
	s.theme = s.newTheme(theme)
	return s
}

func (s *LineSurface) newTheme(name string) *styles.Theme {
	if !s.colors {
		return styles.NewPlainTheme(name)
	}
	return styles.NewThemeFor(name, s.w)
}

// Append implements session.Surface.
func (s *LineSurface) Append(lines []commands.Line) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range lines {
		fmt.Fprintln(s.w, s.theme.Render(l))
	}
}

// Clear implements session.Surface. Only a terminal is cleared.
func (s *LineSurface) Clear() {
	if !isTerminalWriter(s.w) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out.ClearScreen()
}

// Bell implements session.Surface.
func (s *LineSurface) Bell() {
	if !isTerminalWriter(s.w) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprint(s.w, "\a")
}

// SetTheme restyles later output.
func (s *LineSurface) SetTheme(name string) {
	theme := s.newTheme(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
}

// Notice prints a line that did not come from a command.
func (s *LineSurface) Notice(style commands.Style, text string) {
	s.Append([]commands.Line{{Text: text, Style: style}})
}

// =============================================================================
// LINE READER
// =============================================================================

// lineReader is the part of liner.State the REPL uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// newLiner creates a liner state completing with a fresh Completer.
// Ctrl+C at the prompt aborts the line instead of killing the process.
func newLiner(app *App) *liner.State {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetTabCompletionStyle(liner.TabCircular)
	line.SetWordCompleter(wordCompleter(commands.NewCompleter(app.Registry(), app.Aliases())))
	return line
}

// wordCompleter adapts the Completer to liner, which does its own cycling
// over the returned list.
func wordCompleter(c *commands.Completer) liner.WordCompleter {
	return func(line string, pos int) (head string, completions []string, tail string) {
		c.Reset()
		out := c.Complete(line, pos)
		if out.Bell {
			return line, nil, ""
		}

		runes := []rune(out.Line)
		first := []rune(commands.Quote(out.Candidates[0]))
		start := out.Cursor - len(first)

		completions = make([]string, len(out.Candidates))
		for i, cand := range out.Candidates {
			completions[i] = commands.Quote(cand)
		}
		return string(runes[:start]), completions, string(runes[out.Cursor:])
	}
}

// =============================================================================
// REPL
// =============================================================================

// REPL is the line-mode front end: read a line, submit it, repeat.
type REPL struct {
	app     *App
	session *session.Session
	reader  lineReader
	out     *LineSurface
}

// NewREPL creates a REPL for s reading from reader.
func NewREPL(app *App, s *session.Session, reader lineReader, out *LineSurface) *REPL {
	r := &REPL{app: app, session: s, reader: reader, out: out}
	for _, text := range s.History().Texts() {
		reader.AppendHistory(text)
	}
	return r
}

// Run reads lines until EOF or an exit word. Ctrl+C at the prompt drops
// the line; while a command runs it interrupts the command.
func (r *REPL) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		input, err := r.reader.Prompt(r.session.Prompt())
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("read input: %w", err)
		}

		if r.isExit(input) {
			return nil
		}
		if strings.TrimSpace(input) != "" {
			r.reader.AppendHistory(input)
		}
		r.submit(ctx, input)
	}
}

// isExit reports whether input is a bare exit word that no command claims.
func (r *REPL) isExit(input string) bool {
	word := strings.TrimSpace(input)
	if !strings.EqualFold(word, "exit") && !strings.EqualFold(word, "quit") {
		return false
	}
	_, err := r.app.Registry().Lookup(word)
	return err != nil
}

func (r *REPL) submit(ctx context.Context, input string) {
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	r.session.Submit(runCtx, input)
}
