// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the command system for the terminal.
//
// It turns input lines into dispatched commands: aliases are resolved,
// the line is tokenized, and the command is looked up, checked and run.
// It also provides tab completion over command names and arguments.
//
// # Key Types
//
//   - Registry: registered commands, lookup and dispatch
//   - CommandSpec: a command's name, arity, handler and completion source
//   - Handler: the interface a command implements
//   - AliasTable: first-token shorthand expansion
//   - ParsedCommand: tokenized command name and arguments
//   - Completer: tab completion with candidate cycling
//
// # Built-in Commands
//
//   - help: Show available commands
//   - clear: Clear the output log
//   - history: List or search history
//   - alias, unalias: Manage aliases
//   - echo: Print arguments
//
// # Usage
//
// Resolve, parse and dispatch a line:
//
//	parsed, err := commands.Parse(aliases.Resolve(line))
//	if err == nil && !parsed.Empty() {
//	    res, err := registry.Dispatch(ctx, commands.Invocation{ParsedCommand: parsed})
//	}
//
// Complete the token under the cursor:
//
//	out := completer.Complete("he", 2)
//	// out.Line == "help"
package commands
