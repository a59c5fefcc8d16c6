// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package fuzzy

import (
	"sort"
	"unicode"
)

// =============================================================================
// SCORING CONSTANTS
// =============================================================================

const (
	scoreMatch       = 16
	bonusConsecutive = 12
	bonusBoundary    = 8
	bonusStart       = 6
	bonusExactCase   = 1

	// lengthBonusScale / len(candidate) is added to every match.
	lengthBonusScale = 64
)

// =============================================================================
// RESULT TYPE
// =============================================================================

// MatchResult is one ranked candidate.
type MatchResult struct {
	// Candidate is the original candidate string.
	Candidate string

	// Index is the candidate's position in the input slice.
	Index int

	// Score ranks the match, higher is better.
	Score int

	// Positions are the rune offsets of the matched query runes, ascending.
	Positions []int
}

// =============================================================================
// MATCHING
// =============================================================================

// Match scores every candidate against query and returns the matching ones,
// highest score first. Ties keep the candidates' original order. Candidates
// that are not a subsequence match are left out entirely.
//
// An empty query matches everything with a score of 0, in original order.
func Match(query string, candidates []string) []MatchResult {
	results := make([]MatchResult, 0, len(candidates))
	for i, c := range candidates {
		res, ok := Score(query, c)
		if !ok {
			continue
		}
		res.Index = i
		results = append(results, res)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// Filter is Match reduced to the ranked candidate strings.
func Filter(query string, candidates []string) []string {
	results := Match(query, candidates)
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Candidate
	}
	return out
}

// Score matches a single candidate. The returned result has Index 0.
func Score(query, candidate string) (MatchResult, bool) {
	if query == "" {
		return MatchResult{Candidate: candidate}, true
	}

	q := []rune(query)
	c := []rune(candidate)
	m, n := len(q), len(c)
	if m > n {
		return MatchResult{}, false
	}

	qLower := lowerRunes(q)
	cLower := lowerRunes(c)

	// Cheap rejection before the quadratic pass.
	if !isSubsequence(qLower, cLower) {
		return MatchResult{}, false
	}

	// best[i][j] is the best score for q[:i+1] with q[i] matched at c[j],
	// or noMatch. from[i][j] is the column q[i-1] was matched at.
	const noMatch = -1 << 30
	best := make([][]int, m)
	from := make([][]int, m)
	for i := range best {
		best[i] = make([]int, n)
		from[i] = make([]int, n)
		for j := range best[i] {
			best[i][j] = noMatch
			from[i][j] = -1
		}
	}

	for j := 0; j < n; j++ {
		if cLower[j] == qLower[0] {
			best[0][j] = runeScore(q, c, 0, j)
		}
	}

	for i := 1; i < m; i++ {
		// Running max of best[i-1][k] for k < j-1, with its column.
		prefixBest, prefixCol := noMatch, -1
		for j := i; j < n; j++ {
			if k := j - 2; k >= 0 && best[i-1][k] > prefixBest {
				prefixBest, prefixCol = best[i-1][k], k
			}
			if cLower[j] != qLower[i] {
				continue
			}

			score, col := noMatch, -1
			if prev := best[i-1][j-1]; prev != noMatch {
				score, col = prev+bonusConsecutive, j-1
			}
			if prefixBest != noMatch && prefixBest > score {
				score, col = prefixBest, prefixCol
			}
			if col < 0 {
				continue
			}
			best[i][j] = score + runeScore(q, c, i, j)
			from[i][j] = col
		}
	}

	endScore, endCol := noMatch, -1
	for j := m - 1; j < n; j++ {
		if best[m-1][j] > endScore {
			endScore, endCol = best[m-1][j], j
		}
	}
	if endCol < 0 {
		return MatchResult{}, false
	}

	positions := make([]int, m)
	for i, j := m-1, endCol; i >= 0; i-- {
		positions[i] = j
		j = from[i][j]
	}

	return MatchResult{
		Candidate: candidate,
		Score:     endScore + lengthBonusScale/n,
		Positions: positions,
	}, true
}

// runeScore is the score for matching q[i] at c[j], excluding the
// consecutive bonus.
func runeScore(q, c []rune, i, j int) int {
	score := scoreMatch
	if j == 0 {
		score += bonusStart
	}
	if isWordBoundary(c, j) {
		score += bonusBoundary
	}
	if q[i] == c[j] {
		score += bonusExactCase
	}
	return score
}

// isWordBoundary reports whether position pos starts a word: the start of
// the string, after a separator, or a lower-to-upper camelCase hump.
func isWordBoundary(runes []rune, pos int) bool {
	if pos == 0 {
		return true
	}
	if pos >= len(runes) {
		return false
	}

	prev := runes[pos-1]
	switch prev {
	case ' ', '-', '_', '/', '.', ':', '\t':
		return true
	}
	return unicode.IsLower(prev) && unicode.IsUpper(runes[pos])
}

func isSubsequence(q, c []rune) bool {
	qi := 0
	for _, r := range c {
		if qi < len(q) && r == q[qi] {
			qi++
		}
	}
	return qi == len(q)
}

func lowerRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

// =============================================================================
// HIGHLIGHTING
// =============================================================================

// Highlight splits candidate into alternating unmatched and matched
// segments using the positions from a MatchResult. The first segment is
// always unmatched (possibly empty).
func Highlight(candidate string, positions []int) []string {
	runes := []rune(candidate)
	matched := make(map[int]bool, len(positions))
	for _, p := range positions {
		matched[p] = true
	}

	var segments []string
	var current []rune
	inMatch := false
	for i, r := range runes {
		if matched[i] != inMatch {
			segments = append(segments, string(current))
			current = current[:0]
			inMatch = !inMatch
		}
		current = append(current, r)
	}
	segments = append(segments, string(current))
	return segments
}
