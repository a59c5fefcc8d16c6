// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// PALETTES
// =============================================================================

// Palette is the set of colors one theme draws with.
type Palette struct {
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Accent  lipgloss.Color
	Info    lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Border  lipgloss.Color
	Surface lipgloss.Color
}

// Dark - Catppuccin Mocha tones
var Dark = Palette{
	Text:    "#CDD6F4",
	Muted:   "#6C7086",
	Accent:  "#A78BFA",
	Info:    "#22D3EE",
	Success: "#34D399",
	Warning: "#FBBF24",
	Error:   "#FB7185",
	Border:  "#45475A",
	Surface: "#1E1E2E",
}

// Light - Catppuccin Latte tones
var Light = Palette{
	Text:    "#1F2937",
	Muted:   "#9CA3AF",
	Accent:  "#7C3AED",
	Info:    "#0891B2",
	Success: "#059669",
	Warning: "#D97706",
	Error:   "#E11D48",
	Border:  "#D4D4D4",
	Surface: "#FFFFFF",
}

// Retro - green phosphor
var Retro = Palette{
	Text:    "#33FF33",
	Muted:   "#1A8C1A",
	Accent:  "#66FF66",
	Info:    "#33FF33",
	Success: "#99FF99",
	Warning: "#FFB000",
	Error:   "#FF5555",
	Border:  "#1A8C1A",
	Surface: "#0A0F0A",
}

// ThemeNames lists the themes in the order they are offered.
var ThemeNames = []string{"dark", "light", "retro"}

var palettes = map[string]Palette{
	"dark":  Dark,
	"light": Light,
	"retro": Retro,
}

// PaletteFor returns the named palette, falling back to Dark.
func PaletteFor(name string) (Palette, bool) {
	p, ok := palettes[name]
	if !ok {
		return Dark, false
	}
	return p, true
}

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// StatusIndicators are shape cues printed before Success, Warning and Error
// lines when colors are unavailable.
var StatusIndicators = struct {
	Success string
	Warning string
	Error   string
}{
	Success: "[OK]",
	Warning: "[!]",
	Error:   "[X]",
}
