// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"strings"

	"github.com/jeranaias/deskshell/internal/i18n"
	"github.com/jeranaias/deskshell/internal/util"
)

// CategoryShell groups the built-in commands in help.
const CategoryShell = "Shell"

// helpSummaryWidth bounds the summary column of the help table.
const helpSummaryWidth = 60

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

type builtins struct {
	registry *Registry
	aliases  *AliasTable
	tr       i18n.Translator
}

// RegisterBuiltins registers help, clear, history, alias, unalias and echo.
// A nil translator uses the bundled English messages.
func RegisterBuiltins(reg *Registry, aliases *AliasTable, tr i18n.Translator) error {
	if tr == nil {
		tr = i18n.New("")
	}
	b := &builtins{registry: reg, aliases: aliases, tr: tr}

	return reg.RegisterAll(
		CommandSpec{
			Name:       "help",
			Aliases:    []string{"?"},
			Summary:    "Show available commands",
			Usage:      "help [command]",
			Category:   CategoryShell,
			Handler:    HandlerFunc(b.help),
			MaxArgs:    1,
			Completion: CompletionFunc(b.completeCommands),
		},
		CommandSpec{
			Name:     "clear",
			Aliases:  []string{"cls"},
			Summary:  "Clear the terminal output",
			Usage:    "clear",
			Category: CategoryShell,
			Handler:  HandlerFunc(b.clear),
		},
		CommandSpec{
			Name:     "history",
			Summary:  "List or search previous commands",
			Usage:    "history [query]",
			Category: CategoryShell,
			Handler:  HandlerFunc(b.history),
			MaxArgs:  Unbounded,
		},
		CommandSpec{
			Name:       "alias",
			Summary:    "List, show or define aliases",
			Usage:      "alias [name[=command]]",
			Category:   CategoryShell,
			Handler:    HandlerFunc(b.alias),
			MaxArgs:    Unbounded,
			Completion: CompletionFunc(b.completeAliases),
		},
		CommandSpec{
			Name:       "unalias",
			Summary:    "Remove aliases",
			Usage:      "unalias <name>...",
			Category:   CategoryShell,
			Handler:    HandlerFunc(b.unalias),
			MinArgs:    1,
			MaxArgs:    Unbounded,
			Completion: CompletionFunc(b.completeAliases),
		},
		CommandSpec{
			Name:     "echo",
			Summary:  "Print the arguments",
			Usage:    "echo [text]...",
			Category: CategoryShell,
			Handler:  HandlerFunc(b.echo),
			MaxArgs:  Unbounded,
		},
	)
}

func (b *builtins) help(_ context.Context, inv Invocation) (Result, error) {
	var res Result

	if len(inv.Args) == 1 {
		spec, err := b.registry.Lookup(inv.Args[0])
		if err != nil {
			res.Print(StyleError, b.tr.T(i18n.MsgNotFound, inv.Args[0]))
			return res, nil
		}
		res.Printf(StyleInfo, "%s - %s", spec.Name, spec.Summary)
		res.Print(StyleNormal, b.tr.T(i18n.MsgUsage, spec.UsageLine()))
		if len(spec.Aliases) > 0 {
			res.Print(StyleMuted, b.tr.T(i18n.MsgHelpAliases, strings.Join(spec.Aliases, ", ")))
		}
		return res, nil
	}

	specs := b.registry.Specs()
	width := 0
	for _, s := range specs {
		width = max(width, util.StringWidth(s.Name))
	}

	res.Print(StyleInfo, b.tr.T(i18n.MsgHelpHeader))
	for _, s := range specs {
		res.Printf(StyleNormal, "  %s  %s", util.PadWidth(s.Name, width), util.TruncateWidth(s.Summary, helpSummaryWidth))
	}
	res.Print(StyleMuted, b.tr.T(i18n.MsgHelpFooter))
	return res, nil
}

func (b *builtins) clear(context.Context, Invocation) (Result, error) {
	var res Result
	res.Emit(EffectClearOutput, "")
	return res, nil
}

func (b *builtins) history(_ context.Context, inv Invocation) (Result, error) {
	var res Result
	if inv.History == nil {
		res.Print(StyleMuted, b.tr.T(i18n.MsgHistoryEmpty))
		return res, nil
	}

	if len(inv.Args) > 0 {
		query := strings.Join(inv.Args, " ")
		matches := inv.History.Search(query)
		if len(matches) == 0 {
			res.Print(StyleMuted, b.tr.T(i18n.MsgNoMatches, query))
			return res, nil
		}
		for _, e := range matches {
			res.Printf(StyleNormal, "  %s  %s", e.Timestamp.Format("15:04:05"), e.Text)
		}
		return res, nil
	}

	entries := inv.History.Entries()
	if len(entries) == 0 {
		res.Print(StyleMuted, b.tr.T(i18n.MsgHistoryEmpty))
		return res, nil
	}
	for i, e := range entries {
		res.Printf(StyleNormal, "%4d  %s", i+1, e.Text)
	}
	return res, nil
}

func (b *builtins) alias(_ context.Context, inv Invocation) (Result, error) {
	var res Result

	if len(inv.Args) == 0 {
		all := b.aliases.All()
		if len(all) == 0 {
			res.Print(StyleMuted, b.tr.T(i18n.MsgAliasNone))
			return res, nil
		}
		for _, a := range all {
			res.Printf(StyleNormal, "alias %s='%s'", a.Token, a.Expansion)
		}
		return res, nil
	}

	token, expansion, hasEquals := strings.Cut(inv.Args[0], "=")
	rest := inv.Args[1:]

	if !hasEquals && len(rest) == 0 {
		exp, ok := b.aliases.Lookup(token)
		if !ok {
			res.Print(StyleError, b.tr.T(i18n.MsgAliasUnknown, token))
			return res, nil
		}
		res.Printf(StyleNormal, "alias %s='%s'", token, exp)
		return res, nil
	}

	if len(rest) > 0 {
		expansion = strings.TrimSpace(expansion + " " + Join(rest))
	}

	if err := b.aliases.Define(token, expansion); err != nil {
		if errors.Is(err, ErrInvalidAlias) {
			res.Print(StyleError, b.tr.T(i18n.MsgAliasInvalid, token))
			return res, nil
		}
		return res, err
	}
	res.Printf(StyleSuccess, "alias %s='%s'", token, expansion)
	return res, nil
}

func (b *builtins) unalias(_ context.Context, inv Invocation) (Result, error) {
	for _, token := range inv.Args {
		b.aliases.Remove(token)
	}
	return Result{}, nil
}

func (b *builtins) echo(_ context.Context, inv Invocation) (Result, error) {
	var res Result
	res.Print(StyleNormal, strings.Join(inv.Args, " "))
	return res, nil
}

func (b *builtins) completeCommands(cc CompletionContext) []string {
	if cc.ArgIndex != 0 {
		return nil
	}
	return b.registry.VisibleNames()
}

func (b *builtins) completeAliases(CompletionContext) []string {
	return b.aliases.Tokens()
}
