// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	fuzzysearch "github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/jeranaias/deskshell/internal/history"
)

// Unbounded is the MaxArgs value for commands that accept any number of
// arguments.
const Unbounded = -1

// maxSuggestions caps the "did you mean" list.
const maxSuggestions = 3

// suggestDistance is the largest edit distance still offered as a suggestion.
const suggestDistance = 2

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// CommandSpec describes a command the interpreter understands.
type CommandSpec struct {
	// Name is the primary command name (e.g., "help")
	Name string

	// Aliases are alternative names resolved by Lookup (e.g., "?")
	Aliases []string

	// Summary is the one-line description shown by help
	Summary string

	// Usage shows argument syntax (e.g., "open <app>")
	Usage string

	// Category for grouping in help display
	Category string

	// Handler executes the command
	Handler Handler

	// MinArgs and MaxArgs bound the argument count. MaxArgs of Unbounded
	// accepts any number.
	MinArgs int
	MaxArgs int

	// Async commands run off the event loop and can be cancelled
	Async bool

	// Hidden commands don't appear in help or completion
	Hidden bool

	// Completion supplies argument candidates for tab completion
	Completion CompletionSource
}

// UsageLine returns Usage, or Name when no usage string was registered.
func (s *CommandSpec) UsageLine() string {
	if s.Usage != "" {
		return s.Usage
	}
	return s.Name
}

func (s *CommandSpec) acceptsArgs(n int) bool {
	if n < s.MinArgs {
		return false
	}
	return s.MaxArgs == Unbounded || n <= s.MaxArgs
}

// =============================================================================
// HANDLERS
// =============================================================================

// Handler executes a command. Long-running handlers must return when ctx is
// cancelled; any lines in the returned Result are still shown.
type Handler interface {
	Execute(ctx context.Context, inv Invocation) (Result, error)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, inv Invocation) (Result, error)

// Execute calls f(ctx, inv).
func (f HandlerFunc) Execute(ctx context.Context, inv Invocation) (Result, error) {
	return f(ctx, inv)
}

// HistorySource gives handlers read access to the session's history.
type HistorySource interface {
	Entries() []history.Entry
	Search(query string) []history.Entry
}

// Invocation is everything a handler receives for one dispatch.
type Invocation struct {
	ParsedCommand

	// Raw is the line as typed, before alias resolution
	Raw string

	// Spec is the resolved command
	Spec *CommandSpec

	// SessionID identifies the terminal the command came from
	SessionID string

	// History is the session history; may be nil
	History HistorySource
}

// =============================================================================
// RESULTS
// =============================================================================

// Style is a rendering hint for an output line. Hosts map it to colours.
type Style int

const (
	StyleNormal Style = iota
	StyleEcho
	StyleInfo
	StyleSuccess
	StyleWarning
	StyleError
	StyleMuted
)

// String returns the style name.
func (s Style) String() string {
	switch s {
	case StyleNormal:
		return "normal"
	case StyleEcho:
		return "echo"
	case StyleInfo:
		return "info"
	case StyleSuccess:
		return "success"
	case StyleWarning:
		return "warning"
	case StyleError:
		return "error"
	case StyleMuted:
		return "muted"
	default:
		return fmt.Sprintf("style(%d)", int(s))
	}
}

// Line is one line of terminal output.
type Line struct {
	Text  string
	Style Style
}

// Linef builds a Line from a format string.
func Linef(style Style, format string, args ...any) Line {
	return Line{Text: fmt.Sprintf(format, args...), Style: style}
}

// EffectKind identifies a side effect the host should apply.
type EffectKind int

const (
	// EffectClearOutput empties the session's output log.
	EffectClearOutput EffectKind = iota + 1

	// EffectOpenApp asks the host to open the app named by Value.
	EffectOpenApp

	// EffectSetTheme asks the host to switch to the theme named by Value.
	EffectSetTheme

	// EffectAchievement reports the achievement named by Value.
	EffectAchievement
)

// String returns the effect name.
func (k EffectKind) String() string {
	switch k {
	case EffectClearOutput:
		return "clear-output"
	case EffectOpenApp:
		return "open-app"
	case EffectSetTheme:
		return "set-theme"
	case EffectAchievement:
		return "achievement"
	default:
		return fmt.Sprintf("effect(%d)", int(k))
	}
}

// Effect is a host side effect requested by a command.
type Effect struct {
	Kind  EffectKind
	Value string
}

// Result is what a handler produces.
type Result struct {
	Lines   []Line
	Effects []Effect
}

// Print appends a line with the given style.
func (r *Result) Print(style Style, text string) {
	r.Lines = append(r.Lines, Line{Text: text, Style: style})
}

// Printf appends a formatted line with the given style.
func (r *Result) Printf(style Style, format string, args ...any) {
	r.Lines = append(r.Lines, Linef(style, format, args...))
}

// Emit appends a side effect.
func (r *Result) Emit(kind EffectKind, value string) {
	r.Effects = append(r.Effects, Effect{Kind: kind, Value: value})
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is wrapped by NotFoundError.
	ErrNotFound = errors.New("command not found")

	// ErrInvalidSpec is returned by Register for malformed specs.
	ErrInvalidSpec = errors.New("invalid command spec")
)

// DuplicateCommandError is returned by Register when a name or alias is
// already taken.
type DuplicateCommandError struct {
	Name string
}

func (e *DuplicateCommandError) Error() string {
	return fmt.Sprintf("duplicate command: %q is already registered", e.Name)
}

// NotFoundError is returned when no command matches Name.
type NotFoundError struct {
	Name        string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotFound, e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ArityError is returned when a command receives the wrong number of
// arguments.
type ArityError struct {
	Name  string
	Usage string
	Got   int
	Min   int
	Max   int
}

// Expected describes the accepted argument count ("1", "0-2", "at least 1").
func (e *ArityError) Expected() string {
	switch {
	case e.Max == Unbounded:
		return fmt.Sprintf("at least %d", e.Min)
	case e.Min == e.Max:
		return fmt.Sprintf("%d", e.Min)
	default:
		return fmt.Sprintf("%d-%d", e.Min, e.Max)
	}
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s: expected %s arguments, got %d (usage: %s)", e.Name, e.Expected(), e.Got, e.Usage)
}

// HandlerError wraps a failure inside a handler, including recovered panics.
type HandlerError struct {
	Name     string
	Err      error
	Panicked bool
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*CommandSpec
	aliases  map[string]*CommandSpec
	order    []string
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*CommandSpec),
		aliases:  make(map[string]*CommandSpec),
	}
}

// Register adds a command. It fails with *DuplicateCommandError if the name
// or any of its aliases is already registered, and with ErrInvalidSpec for
// a spec that could never be dispatched.
func (r *Registry) Register(spec CommandSpec) error {
	if err := validateSpec(&spec); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	names := append([]string{spec.Name}, spec.Aliases...)
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] || r.takenLocked(name) {
			return &DuplicateCommandError{Name: name}
		}
		seen[name] = true
	}

	stored := spec
	stored.Aliases = append([]string(nil), spec.Aliases...)
	r.commands[stored.Name] = &stored
	for _, alias := range stored.Aliases {
		r.aliases[alias] = &stored
	}
	r.order = append(r.order, stored.Name)
	return nil
}

// RegisterAll registers specs in order and stops at the first failure.
func (r *Registry) RegisterAll(specs ...CommandSpec) error {
	for _, spec := range specs {
		if err := r.Register(spec); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) takenLocked(name string) bool {
	_, cmd := r.commands[name]
	_, alias := r.aliases[name]
	return cmd || alias
}

func validateSpec(spec *CommandSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSpec)
	}
	for _, name := range append([]string{spec.Name}, spec.Aliases...) {
		if name == "" || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
			return fmt.Errorf("%w: bad name %q", ErrInvalidSpec, name)
		}
	}
	if spec.Handler == nil {
		return fmt.Errorf("%w: %s has no handler", ErrInvalidSpec, spec.Name)
	}
	if spec.MinArgs < 0 {
		return fmt.Errorf("%w: %s has negative MinArgs", ErrInvalidSpec, spec.Name)
	}
	if spec.MaxArgs != Unbounded && spec.MaxArgs < spec.MinArgs {
		return fmt.Errorf("%w: %s has MaxArgs < MinArgs", ErrInvalidSpec, spec.Name)
	}
	return nil
}

// Lookup finds a command by name or spec alias. Unknown names fail with a
// *NotFoundError carrying close matches.
func (r *Registry) Lookup(name string) (*CommandSpec, error) {
	r.mu.RLock()
	spec, ok := r.commands[name]
	if !ok {
		spec, ok = r.aliases[name]
	}
	r.mu.RUnlock()

	if !ok {
		return nil, &NotFoundError{Name: name, Suggestions: r.Suggest(name)}
	}
	return spec, nil
}

// Names returns every command name in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// VisibleNames returns the names of non-hidden commands in registration
// order.
func (r *Registry) VisibleNames() []string {
	specs := r.Specs()
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Name
	}
	return out
}

// Specs returns the non-hidden commands in registration order.
func (r *Registry) Specs() []*CommandSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*CommandSpec, 0, len(r.order))
	for _, name := range r.order {
		if spec := r.commands[name]; !spec.Hidden {
			out = append(out, spec)
		}
	}
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Suggest returns visible command names close to name: those within a
// small edit distance and those containing name as a subsequence. Closest
// first, then registration order.
func (r *Registry) Suggest(name string) []string {
	if name == "" {
		return nil
	}
	candidates := r.VisibleNames()
	lower := strings.ToLower(name)

	dist := make(map[string]int)
	for _, c := range candidates {
		if d := fuzzysearch.LevenshteinDistance(lower, strings.ToLower(c)); d <= suggestDistance {
			dist[c] = d
		}
	}
	for _, rank := range fuzzysearch.RankFindFold(name, candidates) {
		if d, ok := dist[rank.Target]; !ok || rank.Distance < d {
			dist[rank.Target] = rank.Distance
		}
	}

	index := make(map[string]int, len(candidates))
	var out []string
	for i, c := range candidates {
		index[c] = i
		if _, ok := dist[c]; ok {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if dist[out[i]] != dist[out[j]] {
			return dist[out[i]] < dist[out[j]]
		}
		return index[out[i]] < index[out[j]]
	})

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// =============================================================================
// DISPATCH
// =============================================================================

// Prepare resolves the command for parsed and checks its argument count.
func (r *Registry) Prepare(parsed ParsedCommand) (*CommandSpec, error) {
	spec, err := r.Lookup(parsed.Name)
	if err != nil {
		return nil, err
	}
	if !spec.acceptsArgs(len(parsed.Args)) {
		return nil, &ArityError{
			Name:  spec.Name,
			Usage: spec.UsageLine(),
			Got:   len(parsed.Args),
			Min:   spec.MinArgs,
			Max:   spec.MaxArgs,
		}
	}
	return spec, nil
}

// Invoke runs spec's handler. Returned errors and panics come back as
// *HandlerError; the Result holds whatever lines the handler produced.
func (r *Registry) Invoke(ctx context.Context, spec *CommandSpec, inv Invocation) (res Result, err error) {
	inv.Spec = spec

	defer func() {
		if p := recover(); p != nil {
			err = &HandlerError{Name: spec.Name, Err: fmt.Errorf("panic: %v", p), Panicked: true}
		}
	}()

	res, err = spec.Handler.Execute(ctx, inv)
	if err != nil {
		return res, &HandlerError{Name: spec.Name, Err: err}
	}
	return res, nil
}

// Dispatch looks up inv's command, validates its arity and runs the handler.
func (r *Registry) Dispatch(ctx context.Context, inv Invocation) (Result, error) {
	spec, err := r.Prepare(inv.ParsedCommand)
	if err != nil {
		return Result{}, err
	}
	return r.Invoke(ctx, spec, inv)
}
