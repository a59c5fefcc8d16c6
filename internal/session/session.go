// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/deskshell/internal/commands"
	"github.com/jeranaias/deskshell/internal/history"
	"github.com/jeranaias/deskshell/internal/i18n"
	"github.com/jeranaias/deskshell/internal/logging"
	"github.com/jeranaias/deskshell/internal/storage"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds per-session settings.
type Config struct {
	// Prompt is shown before the input line and in echoed input
	Prompt string

	// HistoryCap is the number of history entries retained
	HistoryCap int

	// Scrollback is the number of output lines retained (0 = unlimited)
	Scrollback int

	// Echo writes each submitted line to the output, prefixed by Prompt
	Echo bool

	// UserKey identifies the user's persisted history and aliases
	UserKey string

	// CancelGrace is how long an interrupted command may take to return
	// its partial output before the session gives up on it
	CancelGrace time.Duration
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Prompt:      "guest@deskshell:~$ ",
		HistoryCap:  history.DefaultCap,
		Scrollback:  1000,
		Echo:        true,
		UserKey:     storage.DefaultKey,
		CancelGrace: 250 * time.Millisecond,
	}
}

// Option customizes a Session.
type Option func(*Session)

// WithSurface sets where output is displayed.
func WithSurface(surface Surface) Option {
	return func(s *Session) { s.surface = surface }
}

// WithEffects sets the receiver of host side effects.
func WithEffects(sink EffectSink) Option {
	return func(s *Session) { s.effects = sink }
}

// WithStore enables Restore and Close persistence.
func WithStore(store storage.Store) Option {
	return func(s *Session) { s.store = store }
}

// WithTranslator localizes system messages.
func WithTranslator(tr i18n.Translator) Option {
	return func(s *Session) { s.tr = tr }
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithAliasFilter limits which aliases Close persists. keep reports
// whether token, currently expanding to expansion, belongs to the user.
func WithAliasFilter(keep func(token, expansion string) bool) Option {
	return func(s *Session) { s.keepAlias = keep }
}

// WithContext sets the parent context of every dispatch.
func WithContext(ctx context.Context) Option {
	return func(s *Session) { s.baseCtx = ctx }
}

// =============================================================================
// SESSION
// =============================================================================

// dispatch tracks the command currently executing.
type dispatch struct {
	seq       uint64
	name      string
	cancelled bool
}

// Session is one terminal instance. Handle and the other mutating methods
// must be called from a single goroutine; IdleTime and Duration may be
// called from anywhere.
type Session struct {
	id  string
	cfg Config

	registry  *commands.Registry
	aliases   *commands.AliasTable
	completer *commands.Completer
	history   *history.History
	nav       *history.Navigator

	tr      i18n.Translator
	surface Surface
	effects EffectSink
	store   storage.Store
	log     *logging.Logger
	baseCtx context.Context

	keepAlias func(token, expansion string) bool

	state  State
	line   []rune
	cursor int
	output *outputLog

	queue    []string
	seq      uint64
	inflight *dispatch
	cancel   *cancelManager

	mu           sync.Mutex
	startTime    time.Time
	lastActivity time.Time
}

// New creates a session over a shared registry and alias table.
func New(cfg Config, registry *commands.Registry, aliases *commands.AliasTable, opts ...Option) *Session {
	if aliases == nil {
		aliases = commands.NewAliasTable()
	}

	now := time.Now()
	hist := history.New(cfg.HistoryCap)
	s := &Session{
		id:           uuid.NewString(),
		cfg:          cfg,
		registry:     registry,
		aliases:      aliases,
		completer:    commands.NewCompleter(registry, aliases),
		history:      hist,
		nav:          history.NewNavigator(hist),
		surface:      nopSurface{},
		baseCtx:      context.Background(),
		output:       newOutputLog(cfg.Scrollback),
		cancel:       newCancelManager(),
		startTime:    now,
		lastActivity: now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.tr == nil {
		s.tr = i18n.New("")
	}
	if s.surface == nil {
		s.surface = nopSurface{}
	}
	s.log = logging.OrNop(s.log).WithSession(s.id).Component("session")
	return s
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Prompt returns the configured prompt.
func (s *Session) Prompt() string { return s.cfg.Prompt }

// Line returns the line being composed.
func (s *Session) Line() string { return string(s.line) }

// Cursor returns the rune offset of the cursor in Line.
func (s *Session) Cursor() int { return s.cursor }

// Lines returns a copy of the output log.
func (s *Session) Lines() []commands.Line { return s.output.snapshot() }

// History returns the session history.
func (s *Session) History() *history.History { return s.history }

// Completion returns the tab-completion cycle in progress, if any.
func (s *Session) Completion() *commands.CompletionState { return s.completer.State() }

// Queued returns the number of lines waiting for the running command.
func (s *Session) Queued() int { return len(s.queue) }

// =============================================================================
// ACTIVITY TRACKING
// =============================================================================

func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// IdleTime returns how long since the last event.
func (s *Session) IdleTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActivity)
}

// Duration returns how long the session has existed.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.startTime)
}

// =============================================================================
// EVENT LOOP
// =============================================================================

// Handle applies one event and returns deferred work, or nil.
func (s *Session) Handle(ev Event) Cmd {
	switch e := ev.(type) {
	case KeyEvent:
		s.touch()
		return s.handleKey(e)
	case EditEvent:
		s.touch()
		s.handleEdit(e)
		return nil
	case dispatchDone:
		return s.finish(e)
	default:
		return nil
	}
}

func (s *Session) handleKey(e KeyEvent) Cmd {
	switch e.Key {
	case KeyRune:
		if e.Rune == 0 {
			return nil
		}
		s.line = append(s.line[:s.cursor], append([]rune{e.Rune}, s.line[s.cursor:]...)...)
		s.cursor++
		s.edited()

	case KeyTab:
		out := s.completer.Complete(string(s.line), s.cursor)
		if out.Bell {
			s.surface.Bell()
			return nil
		}
		s.nav.Reset()
		s.line = []rune(out.Line)
		s.cursor = out.Cursor
		s.settle()

	case KeyEnter:
		line := string(s.line)
		s.line, s.cursor = nil, 0
		s.completer.Reset()
		s.nav.Reset()

		if s.state == Executing {
			if strings.TrimSpace(line) != "" {
				s.queue = append(s.queue, line)
				s.emit(commands.Line{Text: s.tr.T(i18n.MsgQueued, line), Style: commands.StyleMuted})
			}
			return nil
		}
		return s.submit(line)

	case KeyUp, KeyDown:
		s.completer.Reset()
		if s.state == Executing {
			return nil
		}
		var (
			line string
			ok   bool
		)
		if e.Key == KeyUp {
			line, ok = s.nav.Prev(string(s.line))
		} else {
			line, ok = s.nav.Next()
		}
		if ok {
			s.line = []rune(line)
			s.cursor = len(s.line)
			s.state = Composing
		}

	case KeyInterrupt:
		if s.state == Executing && s.inflight != nil {
			s.inflight.cancelled = true
			s.queue = nil
			s.cancel.cancel()
			return nil
		}
		s.line, s.cursor = nil, 0
		s.completer.Reset()
		s.nav.Reset()
		s.settle()
	}
	return nil
}

func (s *Session) handleEdit(e EditEvent) {
	s.line = []rune(e.Line)
	s.cursor = max(0, min(e.Cursor, len(s.line)))
	s.edited()
}

// edited invalidates completion and history walks after a non-Tab edit.
func (s *Session) edited() {
	s.completer.Reset()
	s.nav.Reset()
	s.settle()
}

// settle picks Idle or Composing from the buffer, unless a command runs.
func (s *Session) settle() {
	if s.state == Executing {
		return
	}
	if len(s.line) == 0 {
		s.state = Idle
	} else {
		s.state = Composing
	}
}

// =============================================================================
// SUBMISSION
// =============================================================================

// submit runs the Enter pipeline: resolve aliases, parse, record history,
// dispatch.
func (s *Session) submit(raw string) Cmd {
	if s.cfg.Echo {
		s.emit(commands.Line{Text: s.cfg.Prompt + raw, Style: commands.StyleEcho})
	}

	parsed, err := commands.Parse(s.aliases.Resolve(raw))
	if err != nil {
		s.renderError(err)
		s.settle()
		return s.next()
	}
	if parsed.Empty() {
		s.settle()
		return s.next()
	}

	s.history.Append(raw)

	spec, err := s.registry.Prepare(parsed)
	if err != nil {
		s.renderError(err)
		s.settle()
		return s.next()
	}

	s.seq++
	s.inflight = &dispatch{seq: s.seq, name: spec.Name}
	s.state = Executing

	inv := commands.Invocation{
		ParsedCommand: parsed,
		Raw:           raw,
		SessionID:     s.id,
		History:       s.history,
	}
	s.log.Debug("dispatch",
		zap.String("command", spec.Name),
		zap.Int("args", len(parsed.Args)),
		zap.Bool("async", spec.Async),
		zap.Uint64("seq", s.seq))

	if !spec.Async {
		res, err := s.registry.Invoke(s.baseCtx, spec, inv)
		return s.finish(dispatchDone{seq: s.seq, result: res, err: err})
	}

	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancel.set(cancel)
	return s.run(ctx, s.seq, spec, inv)
}

// run returns a Cmd executing spec off the loop. It yields as soon as the
// handler returns, or within CancelGrace of ctx being cancelled even if the
// handler ignores cancellation.
func (s *Session) run(ctx context.Context, seq uint64, spec *commands.CommandSpec, inv commands.Invocation) Cmd {
	registry := s.registry
	grace := s.cfg.CancelGrace

	return func() Event {
		done := make(chan dispatchDone, 1)
		go func() {
			res, err := registry.Invoke(ctx, spec, inv)
			done <- dispatchDone{seq: seq, result: res, err: err}
		}()

		select {
		case d := <-done:
			return d
		case <-ctx.Done():
		}

		timer := time.NewTimer(grace)
		defer timer.Stop()
		select {
		case d := <-done:
			return d
		case <-timer.C:
			return dispatchDone{seq: seq, err: ctx.Err()}
		}
	}
}

// finish renders a dispatch result and starts the next queued line.
func (s *Session) finish(d dispatchDone) Cmd {
	if s.inflight == nil || d.seq != s.inflight.seq {
		s.log.Debug("dropping stale result", zap.Uint64("seq", d.seq))
		return nil
	}
	current := s.inflight
	s.inflight = nil
	s.cancel.cancel()
	s.state = Idle

	s.emit(d.result.Lines...)
	switch {
	case current.cancelled || errors.Is(d.err, context.Canceled):
		s.emit(commands.Line{Text: s.tr.T(i18n.MsgCancelled, current.name), Style: commands.StyleWarning})
	case d.err != nil:
		s.renderError(d.err)
	default:
		s.apply(d.result.Effects)
	}

	s.settle()
	return s.next()
}

// next submits the oldest queued line.
func (s *Session) next() Cmd {
	if len(s.queue) == 0 {
		return nil
	}
	line := s.queue[0]
	s.queue = s.queue[1:]
	return s.submit(line)
}

// =============================================================================
// OUTPUT
// =============================================================================

func (s *Session) emit(lines ...commands.Line) {
	if len(lines) == 0 {
		return
	}
	s.output.append(lines...)
	s.surface.Append(lines)
}

// Welcome writes the localized greeting.
func (s *Session) Welcome() {
	s.emit(commands.Line{Text: s.tr.T(i18n.MsgWelcome), Style: commands.StyleInfo})
}

func (s *Session) apply(effects []commands.Effect) {
	for _, eff := range effects {
		if eff.Kind == commands.EffectClearOutput {
			s.output.clear()
			s.surface.Clear()
			continue
		}
		if s.effects != nil {
			s.effects.Apply(eff)
		}
	}
}

func (s *Session) renderError(err error) {
	var (
		pe *commands.ParseError
		nf *commands.NotFoundError
		ae *commands.ArityError
		he *commands.HandlerError
	)

	switch {
	case errors.As(err, &pe):
		s.emit(commands.Line{
			Text:  s.tr.T(i18n.MsgUnterminatedQuote, string(pe.Quote), pe.Offset+1),
			Style: commands.StyleError,
		})

	case errors.As(err, &nf):
		text := s.tr.T(i18n.MsgNotFound, nf.Name)
		if len(nf.Suggestions) > 0 {
			text += " (" + s.tr.T(i18n.MsgDidYouMean, strings.Join(nf.Suggestions, ", ")) + ")"
		}
		s.emit(commands.Line{Text: text, Style: commands.StyleError})

	case errors.As(err, &ae):
		s.emit(
			commands.Line{Text: s.tr.T(i18n.MsgArity, ae.Name, ae.Expected(), ae.Got), Style: commands.StyleError},
			commands.Line{Text: s.tr.T(i18n.MsgUsage, ae.Usage), Style: commands.StyleMuted},
		)

	case errors.As(err, &he):
		s.log.Warn("command failed",
			zap.String("command", he.Name),
			zap.Bool("panic", he.Panicked),
			zap.Error(he.Err))
		s.emit(commands.Line{Text: s.tr.T(i18n.MsgHandlerFailed, he.Name, he.Err.Error()), Style: commands.StyleError})

	default:
		s.emit(commands.Line{Text: err.Error(), Style: commands.StyleError})
	}
}

// =============================================================================
// LINE MODE
// =============================================================================

// Submit runs line through the Enter pipeline and waits for it, and for
// anything it starts, to finish. Cancelling ctx interrupts the running
// command. Any partially composed line is replaced.
func (s *Session) Submit(ctx context.Context, line string) {
	s.line = []rune(line)
	s.cursor = len(s.line)

	cmd := s.Handle(KeyEvent{Key: KeyEnter})
	for cmd != nil {
		cmd = s.Handle(s.await(ctx, cmd))
	}
}

func (s *Session) await(ctx context.Context, cmd Cmd) Event {
	done := make(chan Event, 1)
	go func() { done <- cmd() }()

	select {
	case ev := <-done:
		return ev
	case <-ctx.Done():
		s.Handle(KeyEvent{Key: KeyInterrupt})
		return <-done
	}
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// Restore loads the user's history and aliases from the store. Invalid
// alias tokens are skipped and logged.
func (s *Session) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	var errs []error
	lines, err := s.store.LoadHistory(ctx, s.cfg.UserKey)
	if err != nil {
		errs = append(errs, err)
	} else {
		s.history.Load(lines)
	}

	aliases, err := s.store.LoadAliases(ctx, s.cfg.UserKey)
	if err != nil {
		errs = append(errs, err)
	} else if skipped := s.aliases.Load(aliases); len(skipped) > 0 {
		s.log.Warn("skipped invalid aliases", zap.Strings("tokens", skipped))
	}

	if err := errors.Join(errs...); err != nil {
		s.log.Warn("failed to restore session", zap.Error(err))
		return err
	}
	return nil
}

// Close cancels any running command and saves history and the aliases
// the alias filter keeps.
func (s *Session) Close(ctx context.Context) error {
	s.cancel.cancel()
	if s.store == nil {
		return nil
	}

	var errs []error
	if err := s.store.SaveHistory(ctx, s.cfg.UserKey, s.history.Texts()); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.SaveAliases(ctx, s.cfg.UserKey, s.persistedAliases()); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		s.log.Warn("failed to persist session", zap.Error(err))
		return err
	}
	return nil
}

// persistedAliases returns the aliases Close saves.
func (s *Session) persistedAliases() map[string]string {
	aliases := s.aliases.Snapshot()
	if s.keepAlias == nil {
		return aliases
	}
	for token, expansion := range aliases {
		if !s.keepAlias(token, expansion) {
			delete(aliases, token)
		}
	}
	return aliases
}
