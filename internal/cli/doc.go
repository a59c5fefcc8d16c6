// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the deskshell command line.
//
// The root command opens the full-screen terminal (internal/ui/term), or a
// liner line REPL with --plain or when stdin is not a terminal. Both share
// one App: the registry with the built-in and portfolio commands, the
// alias table, the message catalog and the configured store.
//
// # Commands
//
//	deskshell                  Start the terminal
//	deskshell run <line>       Run one line and exit
//	deskshell history [query]  List or search saved history
//	deskshell aliases          List aliases
//	deskshell config           Print the effective configuration
//	deskshell version          Show version information
//
// # Exit Codes
//
// Execute returns errors that ExitCode maps to process exit codes: usage
// errors exit 2, configuration errors 3, a failed `run` line 5.
package cli
