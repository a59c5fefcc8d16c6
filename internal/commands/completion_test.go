// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompletionRegistry(t *testing.T) (*Registry, *AliasTable) {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, reg.RegisterAll(
		CommandSpec{Name: "help", Handler: okHandler(), MaxArgs: 1},
		CommandSpec{Name: "history", Handler: okHandler(), MaxArgs: Unbounded},
		CommandSpec{Name: "clear", Handler: okHandler()},
		CommandSpec{Name: "secret", Handler: okHandler(), Hidden: true},
		CommandSpec{
			Name:       "open",
			Handler:    okHandler(),
			MaxArgs:    Unbounded,
			Completion: StaticCompletion{"projects", "profile", "resume", "my project"},
		},
		CommandSpec{
			Name:       "theme",
			Handler:    okHandler(),
			MaxArgs:    1,
			Completion: PositionalCompletion{{"dark", "light", "retro"}},
		},
	))

	aliases := NewAliasTable()
	require.NoError(t, aliases.Define("o", "open"))
	require.NoError(t, aliases.Define("t", "theme dark"))
	return reg, aliases
}

// =============================================================================
// COMMAND NAME COMPLETION
// =============================================================================

func TestComplete_CommandName(t *testing.T) {
	reg, aliases := newCompletionRegistry(t)
	c := NewCompleter(reg, aliases)

	out := c.Complete("he", 2)
	assert.False(t, out.Bell)
	assert.Equal(t, "help", out.Line)
	assert.Equal(t, 4, out.Cursor)
	assert.Equal(t, []string{"help", "theme"}, out.Candidates)
	assert.Equal(t, 0, out.Index)
	assert.True(t, c.State().Active())
}

func TestComplete_ExcludesHidden(t *testing.T) {
	reg, aliases := newCompletionRegistry(t)
	c := NewCompleter(reg, aliases)

	out := c.Complete("sec", 3)
	assert.True(t, out.Bell)
	assert.Equal(t, "sec", out.Line)
}

func TestComplete_NoCandidatesRingsBell(t *testing.T) {
	reg, aliases := newCompletionRegistry(t)
	c := NewCompleter(reg, aliases)

	out := c.Complete("zzz", 3)
	assert.True(t, out.Bell)
	assert.Equal(t, "zzz", out.Line)
	assert.Equal(t, 3, out.Cursor)
	assert.Nil(t, out.Candidates)
	assert.False(t, c.State().Active(), "zero candidates never leaves an active state")
}

// Pressing Tab against a fixed prefix with M candidates: the first press
// inserts candidates[0] and each of N further presses lands on
// candidates[N mod M].
func TestComplete_CyclesModuloCandidates(t *testing.T) {
	reg, aliases := newCompletionRegistry(t)
	c := NewCompleter(reg, aliases)

	first := c.Complete("", 0)
	require.False(t, first.Bell)
	candidates := first.Candidates
	m := len(candidates)
	require.Equal(t, reg.VisibleNames(), candidates, "empty prefix offers every visible name in order")
	assert.Equal(t, candidates[0], first.Line)

	line, cursor := first.Line, first.Cursor
	for n := 1; n <= 2*m+1; n++ {
		out := c.Complete(line, cursor)
		assert.Equal(t, candidates[n%m], out.Line, "press %d", n)
		assert.Equal(t, n%m, out.Index)
		assert.Equal(t, len([]rune(out.Line)), out.Cursor)
		line, cursor = out.Line, out.Cursor
	}
}

func TestComplete_EditInvalidatesState(t *testing.T) {
	reg, aliases := newCompletionRegistry(t)
	c := NewCompleter(reg, aliases)

	out := c.Complete("h", 1)
	require.Equal(t, []string{"help", "history", "theme"}, out.Candidates)
	require.Equal(t, "help", out.Line)

	// A different line (the user typed) recomputes from the new token.
	out = c.Complete("hi", 2)
	assert.Equal(t, "history", out.Line)
	assert.Equal(t, []string{"history"}, out.Candidates)
}

func TestComplete_ResetRecomputes(t *testing.T) {
	reg, aliases := newCompletionRegistry(t)
	c := NewCompleter(reg, aliases)

	out := c.Complete("h", 1)
	require.Equal(t, "help", out.Line)

	c.Reset()
	assert.False(t, c.State().Active())

	// Without the cached prefix, "help" is now the query itself.
	out = c.Complete(out.Line, out.Cursor)
	assert.Equal(t, "help", out.Line)
	assert.Equal(t, []string{"help"}, out.Candidates)
}

// =============================================================================
// ARGUMENT COMPLETION
// =============================================================================

func TestComplete_Argument(t *testing.T) {
	reg, aliases := newCompletionRegistry(t)
	c := NewCompleter(reg, aliases)

	out := c.Complete("open pr", 7)
	require.False(t, out.Bell)
	assert.Equal(t, []string{"profile", "projects", "my project"}, out.Candidates,
		"shorter candidate ranks first, mid-string word boundary last")
	assert.Equal(t, "open profile", out.Line)
	assert.Equal(t, 12, out.Cursor)

	out = c.Complete(out.Line, out.Cursor)
	assert.Equal(t, "open projects", out.Line)
}

func TestComplete_TokenMidLine(t *testing.T) {
	reg, aliases := newCompletionRegistry(t)
	c := NewCompleter(reg, aliases)

	out := c.Complete("open pr extra", 7)
	assert.Equal(t, "open profile extra", out.Line)
	assert.Equal(t, 12, out.Cursor)

	c.Reset()

	// Only the text left of the cursor is the query; the whole token is
	// replaced.
	out = c.Complete("open prxyz", 7)
	assert.Equal(t, "open profile", out.Line)
}

func TestComplete_EmptyArgumentAfterSpace(t *testing.T) {
	reg, aliases := newCompletionRegistry(t)
	c := NewCompleter(reg, aliases)

	out := c.Complete("theme ", 6)
	assert.Equal(t, "theme dark", out.Line)
	assert.Equal(t, []string{"dark", "light", "retro"}, out.Candidates)
}

func TestComplete_PositionalBeyondLast(t *testing.T) {
	reg, aliases := newCompletionRegistry(t)
	c := NewCompleter(reg, aliases)

	out := c.Complete("theme dark ", 11)
	assert.True(t, out.Bell)
	assert.Equal(t, "theme dark ", out.Line)
}

func TestComplete_NoSourceOrUnknownCommand(t *testing.T) {
	reg, aliases := newCompletionRegistry(t)
	c := NewCompleter(reg, aliases)

	assert.True(t, c.Complete("clear x", 7).Bell)
	assert.True(t, c.Complete("nope x", 6).Bell)
}

func TestComplete_AliasResolvedFirstToken(t *testing.T) {
	reg, aliases := newCompletionRegistry(t)
	c := NewCompleter(reg, aliases)

	out := c.Complete("o res", 5)
	assert.Equal(t, "o resume", out.Line)

	// "t" expands to "theme dark", so the next token is the second
	// argument of theme, which has no candidates.
	assert.True(t, c.Complete("t ", 2).Bell)
}

func TestComplete_QuotesCandidatesWithSpaces(t *testing.T) {
	reg, aliases := newCompletionRegistry(t)
	c := NewCompleter(reg, aliases)

	out := c.Complete("open my", 7)
	assert.Equal(t, `open "my project"`, out.Line)
	assert.Equal(t, len([]rune(out.Line)), out.Cursor)

	c.Reset()

	out = c.Complete(`open "my p`, 10)
	assert.Equal(t, `open "my project"`, out.Line)
}

func TestTokenSpans(t *testing.T) {
	spans := tokenSpans([]rune(`open "my project" x`))
	assert.Equal(t, []span{{0, 4}, {5, 17}, {18, 19}}, spans)

	spans = tokenSpans([]rune(`echo "unclosed quote`))
	assert.Equal(t, []span{{0, 4}, {5, 20}}, spans)
}
