// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package term

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/deskshell/internal/session"
	"github.com/jeranaias/deskshell/internal/util"
)

// =============================================================================
// RENDERING
// =============================================================================

func (m Model) render() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderCandidates(),
		m.input.View(),
		m.renderStatusBar(),
	)
}

func (m Model) renderHeader() string {
	return m.theme.Header.Width(max(1, m.width-2)).Render(m.title)
}

// renderCandidates shows the tab-completion cycle, the selected candidate
// highlighted. Candidates that do not fit are summarized as "+N".
func (m Model) renderCandidates() string {
	state := m.session.Completion()
	if !state.Active() {
		return ""
	}

	var (
		parts []string
		used  int
	)
	for i, c := range state.Candidates {
		style := m.theme.Candidate
		if i == state.Index {
			style = m.theme.Selected
		}
		cell := style.Render(c)
		w := lipgloss.Width(cell)
		if used+w > m.width-6 && len(parts) > 0 {
			parts = append(parts, m.theme.Candidate.Render(fmt.Sprintf("+%d", len(state.Candidates)-i)))
			break
		}
		parts = append(parts, cell)
		used += w
	}
	return strings.Join(parts, "")
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.bell:
		left = "no completions"
	case m.status != "":
		left = m.status
	case m.session.State() == session.Executing:
		left = m.spinner.View() + " running"
		if n := m.session.Queued(); n > 0 {
			left += fmt.Sprintf(" (%d queued)", n)
		}
	default:
		left = m.session.State().String()
	}

	var hints []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	right := strings.Join(hints, "  ")

	gap := m.width - 2 - util.StringWidth(left) - util.StringWidth(right)
	if gap < 1 {
		return m.theme.StatusBar.Render(util.TruncateWidth(left, max(1, m.width-2)))
	}
	return m.theme.StatusBar.Render(left + strings.Repeat(" ", gap) + right)
}
