// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/deskshell/internal/commands"
	"github.com/jeranaias/deskshell/internal/fuzzy"
)

// Theme maps output styles to terminal styling for one output stream.
type Theme struct {
	Name    string
	Palette Palette

	// Terminal capabilities
	ColorProfile termenv.Profile
	HasTrueColor bool

	renderer *lipgloss.Renderer
	lines    map[commands.Style]lipgloss.Style

	// ==========================================================================
	// CHROME
	// ==========================================================================

	Prompt    lipgloss.Style
	Input     lipgloss.Style
	Header    lipgloss.Style
	StatusBar lipgloss.Style
	Candidate lipgloss.Style
	Selected  lipgloss.Style
	Match     lipgloss.Style
}

// NewTheme creates the named theme for stdout.
func NewTheme(name string) *Theme {
	return NewThemeFor(name, nil)
}

// NewThemeFor creates the named theme for w, detecting w's color support.
// NO_COLOR and non-terminal writers get plain text. A nil w means stdout.
func NewThemeFor(name string, w io.Writer) *Theme {
	r := lipgloss.DefaultRenderer()
	if w != nil {
		r = lipgloss.NewRenderer(w, termenv.WithColorCache(true))
	}
	return newTheme(name, r)
}

// NewPlainTheme creates a theme that never emits escape sequences.
func NewPlainTheme(name string) *Theme {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return newTheme(name, r)
}

func newTheme(name string, r *lipgloss.Renderer) *Theme {
	palette, ok := PaletteFor(name)
	if !ok {
		name = "dark"
	}

	profile := r.ColorProfile()
	t := &Theme{
		Name:         name,
		Palette:      palette,
		ColorProfile: profile,
		HasTrueColor: profile == termenv.TrueColor,
		renderer:     r,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	p := t.Palette
	s := t.renderer.NewStyle

	t.lines = map[commands.Style]lipgloss.Style{
		commands.StyleNormal:  s().Foreground(p.Text),
		commands.StyleEcho:    s().Foreground(p.Accent).Bold(true),
		commands.StyleInfo:    s().Foreground(p.Info),
		commands.StyleSuccess: s().Foreground(p.Success),
		commands.StyleWarning: s().Foreground(p.Warning),
		commands.StyleError:   s().Foreground(p.Error).Bold(true),
		commands.StyleMuted:   s().Foreground(p.Muted).Italic(true),
	}

	t.Prompt = s().Foreground(p.Accent).Bold(true)
	t.Input = s().Foreground(p.Text)

	t.Header = s().
		Bold(true).
		Foreground(p.Info).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(p.Border).
		Padding(0, 1)

	t.StatusBar = s().
		Foreground(p.Muted).
		Padding(0, 1)

	t.Candidate = s().Foreground(p.Muted).Padding(0, 1)
	t.Selected = s().Foreground(p.Surface).Background(p.Accent).Padding(0, 1)
	t.Match = s().Bold(true).Underline(true)
}

// Colorless reports whether the theme renders without color.
func (t *Theme) Colorless() bool {
	return t.ColorProfile == termenv.Ascii
}

// Style returns the lip gloss style for an output style.
func (t *Theme) Style(style commands.Style) lipgloss.Style {
	if st, ok := t.lines[style]; ok {
		return st
	}
	return t.lines[commands.StyleNormal]
}

// Render styles one output line. Without color, Success, Warning and Error
// lines get a status indicator prefix instead.
func (t *Theme) Render(line commands.Line) string {
	if t.Colorless() {
		switch line.Style {
		case commands.StyleSuccess:
			return StatusIndicators.Success + " " + line.Text
		case commands.StyleWarning:
			return StatusIndicators.Warning + " " + line.Text
		case commands.StyleError:
			return StatusIndicators.Error + " " + line.Text
		}
		return line.Text
	}
	return t.Style(line.Style).Render(line.Text)
}

// RenderLines renders lines joined by newlines.
func (t *Theme) RenderLines(lines []commands.Line) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = t.Render(l)
	}
	return strings.Join(out, "\n")
}

// Highlight renders candidate with the runes a query matched emphasized.
func (t *Theme) Highlight(candidate, query string) string {
	res, ok := fuzzy.Score(query, candidate)
	if !ok || query == "" {
		return candidate
	}

	var b strings.Builder
	for i, seg := range fuzzy.Highlight(candidate, res.Positions) {
		if i%2 == 1 {
			b.WriteString(t.Match.Render(seg))
		} else {
			b.WriteString(seg)
		}
	}
	return b.String()
}
