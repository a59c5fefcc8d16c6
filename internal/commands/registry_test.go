// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(lines ...string) Handler {
	return HandlerFunc(func(_ context.Context, inv Invocation) (Result, error) {
		var res Result
		for _, l := range lines {
			res.Print(StyleNormal, l)
		}
		return res, nil
	})
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, reg.RegisterAll(
		CommandSpec{Name: "help", Aliases: []string{"?"}, Summary: "Show help", Handler: okHandler("help text"), MaxArgs: 1},
		CommandSpec{Name: "history", Summary: "Show history", Handler: okHandler(), MaxArgs: Unbounded},
		CommandSpec{Name: "clear", Summary: "Clear output", Handler: okHandler()},
		CommandSpec{Name: "debug", Summary: "Hidden", Handler: okHandler(), Hidden: true},
	))
	return reg
}

// =============================================================================
// REGISTRATION
// =============================================================================

func TestRegistry_RegisterDuplicate(t *testing.T) {
	tests := []struct {
		name string
		spec CommandSpec
		dup  string
	}{
		{"same name", CommandSpec{Name: "help", Handler: okHandler()}, "help"},
		{"alias equals name", CommandSpec{Name: "man", Aliases: []string{"help"}, Handler: okHandler()}, "help"},
		{"name equals alias", CommandSpec{Name: "?", Handler: okHandler()}, "?"},
		{"alias repeated", CommandSpec{Name: "info", Aliases: []string{"i", "i"}, Handler: okHandler()}, "i"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reg := newTestRegistry(t)
			before := reg.Names()

			err := reg.Register(tc.spec)
			var dup *DuplicateCommandError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, tc.dup, dup.Name)
			assert.Equal(t, before, reg.Names(), "failed registration must not change the registry")
		})
	}
}

func TestRegistry_RegisterInvalid(t *testing.T) {
	tests := []struct {
		name string
		spec CommandSpec
	}{
		{"empty name", CommandSpec{Handler: okHandler()}},
		{"space in name", CommandSpec{Name: "two words", Handler: okHandler()}},
		{"empty alias", CommandSpec{Name: "x", Aliases: []string{""}, Handler: okHandler()}},
		{"nil handler", CommandSpec{Name: "x"}},
		{"negative min", CommandSpec{Name: "x", Handler: okHandler(), MinArgs: -1}},
		{"max below min", CommandSpec{Name: "x", Handler: okHandler(), MinArgs: 2, MaxArgs: 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := NewRegistry().Register(tc.spec)
			assert.ErrorIs(t, err, ErrInvalidSpec)
		})
	}
}

func TestRegistry_RegisterAllHalts(t *testing.T) {
	reg := NewRegistry()
	err := reg.RegisterAll(
		CommandSpec{Name: "a", Handler: okHandler()},
		CommandSpec{Name: "a", Handler: okHandler()},
		CommandSpec{Name: "c", Handler: okHandler()},
	)

	var dup *DuplicateCommandError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, []string{"a"}, reg.Names())
}

func TestRegistry_SpecIsCopied(t *testing.T) {
	reg := NewRegistry()
	aliases := []string{"x"}
	require.NoError(t, reg.Register(CommandSpec{Name: "cmd", Aliases: aliases, Handler: okHandler()}))

	aliases[0] = "y"
	_, err := reg.Lookup("x")
	assert.NoError(t, err)
}

// =============================================================================
// LOOKUP
// =============================================================================

func TestRegistry_NamesAndSpecs(t *testing.T) {
	reg := newTestRegistry(t)

	assert.Equal(t, []string{"help", "history", "clear", "debug"}, reg.Names())
	assert.Equal(t, []string{"help", "history", "clear"}, reg.VisibleNames())
	assert.Equal(t, 4, reg.Len())

	specs := reg.Specs()
	require.Len(t, specs, 3)
	assert.Equal(t, "Show help", specs[0].Summary)
}

func TestRegistry_Lookup(t *testing.T) {
	reg := newTestRegistry(t)

	spec, err := reg.Lookup("help")
	require.NoError(t, err)
	assert.Equal(t, "help", spec.Name)

	spec, err = reg.Lookup("?")
	require.NoError(t, err)
	assert.Equal(t, "help", spec.Name, "spec aliases resolve to the command")

	spec, err = reg.Lookup("debug")
	require.NoError(t, err, "hidden commands can still be looked up")
	assert.True(t, spec.Hidden)
}

func TestRegistry_LookupNotFound(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.Lookup("hlep")
	assert.ErrorIs(t, err, ErrNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "hlep", nf.Name)
	assert.Equal(t, []string{"help"}, nf.Suggestions)
	assert.Contains(t, err.Error(), "hlep")
}

func TestRegistry_Suggest(t *testing.T) {
	reg := newTestRegistry(t)

	assert.Equal(t, []string{"history"}, reg.Suggest("histroy"))
	assert.Equal(t, []string{"clear"}, reg.Suggest("clera"))
	assert.Empty(t, reg.Suggest("zzzzzz"))
	assert.Empty(t, reg.Suggest(""))
	assert.NotContains(t, reg.Suggest("debg"), "debug", "hidden commands are never suggested")
}

// =============================================================================
// DISPATCH
// =============================================================================

func TestRegistry_Dispatch(t *testing.T) {
	reg := NewRegistry()
	var got Invocation
	require.NoError(t, reg.Register(CommandSpec{
		Name:    "open",
		Usage:   "open <app>",
		MinArgs: 1,
		MaxArgs: 1,
		Handler: HandlerFunc(func(_ context.Context, inv Invocation) (Result, error) {
			got = inv
			var res Result
			res.Printf(StyleSuccess, "opening %s", inv.Args[0])
			res.Emit(EffectOpenApp, inv.Args[0])
			return res, nil
		}),
	}))

	res, err := reg.Dispatch(context.Background(), Invocation{
		ParsedCommand: ParsedCommand{Name: "open", Args: []string{"projects"}},
		Raw:           "open projects",
	})
	require.NoError(t, err)
	assert.Equal(t, []Line{{Text: "opening projects", Style: StyleSuccess}}, res.Lines)
	assert.Equal(t, []Effect{{Kind: EffectOpenApp, Value: "projects"}}, res.Effects)
	assert.Equal(t, "open projects", got.Raw)
	require.NotNil(t, got.Spec)
	assert.Equal(t, "open", got.Spec.Name)
}

func TestRegistry_DispatchArity(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterAll(
		CommandSpec{Name: "one", Usage: "one <x>", MinArgs: 1, MaxArgs: 1, Handler: okHandler()},
		CommandSpec{Name: "range", MinArgs: 0, MaxArgs: 2, Handler: okHandler()},
		CommandSpec{Name: "many", MinArgs: 1, MaxArgs: Unbounded, Handler: okHandler()},
	))

	tests := []struct {
		name     string
		args     []string
		wantErr  bool
		expected string
	}{
		{"one", nil, true, "1"},
		{"one", []string{"a"}, false, ""},
		{"one", []string{"a", "b"}, true, "1"},
		{"range", []string{"a", "b", "c"}, true, "0-2"},
		{"many", nil, true, "at least 1"},
		{"many", []string{"a", "b", "c", "d"}, false, ""},
	}

	for _, tc := range tests {
		_, err := reg.Dispatch(context.Background(), Invocation{ParsedCommand: ParsedCommand{Name: tc.name, Args: tc.args}})
		if !tc.wantErr {
			assert.NoError(t, err, "%s %v", tc.name, tc.args)
			continue
		}

		var arity *ArityError
		if assert.ErrorAs(t, err, &arity, "%s %v", tc.name, tc.args) {
			assert.Equal(t, len(tc.args), arity.Got)
			assert.Equal(t, tc.expected, arity.Expected())
		}
	}

	_, err := reg.Dispatch(context.Background(), Invocation{ParsedCommand: ParsedCommand{Name: "one"}})
	var arity *ArityError
	require.ErrorAs(t, err, &arity)
	assert.Equal(t, "one <x>", arity.Usage)
}

func TestRegistry_DispatchHandlerError(t *testing.T) {
	boom := errors.New("boom")
	reg := NewRegistry()
	require.NoError(t, reg.Register(CommandSpec{
		Name: "fail",
		Handler: HandlerFunc(func(context.Context, Invocation) (Result, error) {
			var res Result
			res.Print(StyleNormal, "partial")
			return res, boom
		}),
	}))

	res, err := reg.Dispatch(context.Background(), Invocation{ParsedCommand: ParsedCommand{Name: "fail"}})
	assert.ErrorIs(t, err, boom)

	var he *HandlerError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "fail", he.Name)
	assert.False(t, he.Panicked)
	assert.Equal(t, "partial", res.Lines[0].Text, "partial output survives a failure")
}

func TestRegistry_DispatchRecoversPanic(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(CommandSpec{
		Name: "panic",
		Handler: HandlerFunc(func(context.Context, Invocation) (Result, error) {
			panic("kaboom")
		}),
	}))

	_, err := reg.Dispatch(context.Background(), Invocation{ParsedCommand: ParsedCommand{Name: "panic"}})

	var he *HandlerError
	require.ErrorAs(t, err, &he)
	assert.True(t, he.Panicked)
	assert.Contains(t, he.Error(), "kaboom")
}

func TestRegistry_DispatchNotFound(t *testing.T) {
	_, err := NewRegistry().Dispatch(context.Background(), Invocation{ParsedCommand: ParsedCommand{Name: "nope"}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStyleAndEffectNames(t *testing.T) {
	assert.Equal(t, "error", StyleError.String())
	assert.Equal(t, "style(99)", Style(99).String())
	assert.Equal(t, "open-app", EffectOpenApp.String())
	assert.Equal(t, "effect(0)", EffectKind(0).String())
}
