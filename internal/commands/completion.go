// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"strings"
	"unicode"

	"github.com/jeranaias/deskshell/internal/fuzzy"
)

// =============================================================================
// COMPLETION SOURCES
// =============================================================================

// CompletionContext describes the argument being completed.
type CompletionContext struct {
	// Command is the resolved command name
	Command string

	// Args are the arguments before the one being completed, including any
	// supplied by an alias expansion
	Args []string

	// ArgIndex is the 0-based index of the argument being completed
	ArgIndex int

	// Prefix is the argument text left of the cursor
	Prefix string
}

// CompletionSource supplies argument candidates for a command. The
// completer fuzzy-filters and ranks whatever it returns.
type CompletionSource interface {
	Candidates(cc CompletionContext) []string
}

// StaticCompletion offers the same values for every argument.
type StaticCompletion []string

// Candidates implements CompletionSource.
func (s StaticCompletion) Candidates(CompletionContext) []string {
	return s
}

// PositionalCompletion offers values per argument index. Arguments past the
// last list get nothing.
type PositionalCompletion [][]string

// Candidates implements CompletionSource.
func (p PositionalCompletion) Candidates(cc CompletionContext) []string {
	if cc.ArgIndex < 0 || cc.ArgIndex >= len(p) {
		return nil
	}
	return p[cc.ArgIndex]
}

// CompletionFunc computes candidates on demand.
type CompletionFunc func(cc CompletionContext) []string

// Candidates implements CompletionSource.
func (f CompletionFunc) Candidates(cc CompletionContext) []string {
	return f(cc)
}

// =============================================================================
// COMPLETER
// =============================================================================

// Outcome is the result of one Tab press.
type Outcome struct {
	// Line and Cursor are the edited line and the rune offset after the
	// inserted candidate. Unchanged when Bell is set.
	Line   string
	Cursor int

	// Candidates is the ranked list being cycled; nil when Bell is set
	Candidates []string

	// Index is the position of the inserted candidate in Candidates
	Index int

	// Bell reports that nothing could be completed
	Bell bool
}

// Completer performs tab completion over a registry. Each session owns its
// own Completer since it carries cycling state.
type Completer struct {
	registry *Registry
	aliases  *AliasTable
	state    *CompletionState
}

// NewCompleter creates a completer. aliases may be nil.
func NewCompleter(registry *Registry, aliases *AliasTable) *Completer {
	return &Completer{
		registry: registry,
		aliases:  aliases,
		state:    NewCompletionState(),
	}
}

// State returns the current cycling state.
func (c *Completer) State() *CompletionState {
	return c.state
}

// Reset drops the cycling state. Call it on any edit that is not a Tab.
func (c *Completer) Reset() {
	c.state.Clear()
}

// Complete completes the token under cursor (a rune offset into line).
//
// The first Tab ranks candidates for the token text left of the cursor and
// replaces the whole token with the best one. A further Tab against the
// unmodified result replaces it with the next candidate, wrapping around.
// The first Tab counts as press zero: after it, N more presses land on
// candidates[N mod M].
// No candidates rings the bell and leaves the line alone.
func (c *Completer) Complete(line string, cursor int) Outcome {
	if c.state.Matches(line, cursor) {
		return c.state.advance()
	}
	c.state.Clear()

	runes := []rune(line)
	cursor = max(0, min(cursor, len(runes)))

	spans := tokenSpans(runes)
	tokIdx, start, end := tokenAt(spans, cursor)
	prefix := unquote(string(runes[start:cursor]))

	var candidates []string
	if tokIdx == 0 {
		candidates = fuzzy.Filter(prefix, c.registry.VisibleNames())
	} else {
		words := make([]string, tokIdx)
		for i := 0; i < tokIdx; i++ {
			words[i] = unquote(string(runes[spans[i].start:spans[i].end]))
		}
		candidates = c.argumentCandidates(words, prefix)
	}

	if len(candidates) == 0 {
		return Outcome{Line: line, Cursor: cursor, Bell: true}
	}

	c.state.begin(runes[:start], runes[end:], candidates)
	return c.state.insert()
}

// argumentCandidates asks the command's completion source for the argument
// following words. The first word is alias-resolved first.
func (c *Completer) argumentCandidates(words []string, prefix string) []string {
	first := words[0]
	if c.aliases != nil {
		if exp, ok := c.aliases.Lookup(first); ok {
			parsed, err := Parse(exp)
			if err != nil || parsed.Empty() {
				return nil
			}
			words = append(parsed.Tokens(), words[1:]...)
		}
	}

	spec, err := c.registry.Lookup(words[0])
	if err != nil || spec.Completion == nil {
		return nil
	}

	cc := CompletionContext{
		Command:  spec.Name,
		Args:     words[1:],
		ArgIndex: len(words) - 1,
		Prefix:   prefix,
	}
	return fuzzy.Filter(prefix, spec.Completion.Candidates(cc))
}

// =============================================================================
// TOKEN SPANS
// =============================================================================

type span struct {
	start, end int
}

// tokenSpans returns the rune ranges of the tokens in line. Quoted runs
// belong to their token; an unclosed quote runs to the end.
func tokenSpans(runes []rune) []span {
	var (
		spans []span
		quote rune
		start = -1
	)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < len(runes) && isQuote(runes[i+1]):
			if start < 0 {
				start = i
			}
			i++
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case unicode.IsSpace(r):
			if start >= 0 {
				spans = append(spans, span{start, i})
				start = -1
			}
		default:
			if start < 0 {
				start = i
			}
			if isQuote(r) {
				quote = r
			}
		}
	}
	if start >= 0 {
		spans = append(spans, span{start, len(runes)})
	}
	return spans
}

// tokenAt finds the token touching cursor. A cursor in whitespace addresses
// an empty token at the cursor.
func tokenAt(spans []span, cursor int) (index, start, end int) {
	for i, s := range spans {
		if cursor < s.start {
			return i, cursor, cursor
		}
		if cursor <= s.end {
			return i, s.start, s.end
		}
	}
	return len(spans), cursor, cursor
}

// unquote strips quoting from a possibly incomplete token.
func unquote(tok string) string {
	tokens, err := Tokenize(tok)
	var pe *ParseError
	if errors.As(err, &pe) {
		tokens, err = Tokenize(tok + string(pe.Quote))
	}
	if err != nil {
		return tok
	}
	return strings.Join(tokens, "")
}

// =============================================================================
// COMPLETION NAVIGATION
// =============================================================================

// CompletionState holds the candidates being cycled by repeated Tab presses.
// It is active only while Candidates is non-empty.
type CompletionState struct {
	// Candidates is the ranked list for the cached prefix
	Candidates []string

	// Index is the candidate currently inserted
	Index int

	before []rune
	after  []rune

	// line and cursor as left by the last insertion
	line   string
	cursor int
}

// NewCompletionState creates an inactive completion state.
func NewCompletionState() *CompletionState {
	return &CompletionState{}
}

// Active reports whether a cycle is in progress.
func (cs *CompletionState) Active() bool {
	return len(cs.Candidates) > 0
}

// Matches reports whether line and cursor are exactly what the last
// insertion produced.
func (cs *CompletionState) Matches(line string, cursor int) bool {
	return cs.Active() && line == cs.line && cursor == cs.cursor
}

// Selected returns the inserted candidate, or "" when inactive.
func (cs *CompletionState) Selected() string {
	if !cs.Active() {
		return ""
	}
	return cs.Candidates[cs.Index]
}

// Clear tears the state down.
func (cs *CompletionState) Clear() {
	cs.Candidates = nil
	cs.Index = 0
	cs.before = nil
	cs.after = nil
	cs.line = ""
	cs.cursor = 0
}

func (cs *CompletionState) begin(before, after []rune, candidates []string) {
	cs.before = append([]rune(nil), before...)
	cs.after = append([]rune(nil), after...)
	cs.Candidates = candidates
	cs.Index = 0
}

func (cs *CompletionState) advance() Outcome {
	cs.Index = (cs.Index + 1) % len(cs.Candidates)
	return cs.insert()
}

func (cs *CompletionState) insert() Outcome {
	inserted := []rune(Quote(cs.Candidates[cs.Index]))

	out := make([]rune, 0, len(cs.before)+len(inserted)+len(cs.after))
	out = append(out, cs.before...)
	out = append(out, inserted...)
	out = append(out, cs.after...)

	cs.line = string(out)
	cs.cursor = len(cs.before) + len(inserted)

	return Outcome{
		Line:       cs.line,
		Cursor:     cs.cursor,
		Candidates: cs.Candidates,
		Index:      cs.Index,
	}
}
