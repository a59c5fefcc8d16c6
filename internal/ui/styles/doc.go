// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles maps terminal output to Lip Gloss styling.

Each output line carries a commands.Style hint. A Theme turns hints into
colors from one of three palettes (dark, light, retro) for a specific output
stream, so the TUI and the line-mode REPL can detect color support
independently. NO_COLOR and non-terminal output fall back to plain text with
ASCII status indicators:

	[OK] saved
	[!]  weather service slow
	[X]  command not found: fo

# Usage

	theme := styles.NewThemeFor("dark", os.Stdout)
	fmt.Println(theme.Render(commands.Line{Text: "hi", Style: commands.StyleInfo}))

	// Emphasize the runes the completion query matched
	theme.Highlight("projects", "pj")
*/
package styles
