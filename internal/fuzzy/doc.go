// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package fuzzy ranks candidate strings against a query using
// subsequence matching with locality bonuses.
//
// A candidate matches when every rune of the query appears in it, in order,
// ignoring case. Among the possible alignments the best-scoring one is kept:
//
//   - every matched rune earns a base score
//   - runes continuing a contiguous run earn a consecutive bonus
//   - runes at a word boundary (start, after space, dash, underscore, slash
//     or dot, or a camelCase hump) earn a boundary bonus
//   - runes whose case matches exactly earn a small bonus
//   - the whole match earns a bonus inversely proportional to the
//     candidate's length
//
// # Usage
//
//	results := fuzzy.Match("hs", []string{"help", "history", "clear"})
//	// results[0].Candidate == "history"
package fuzzy
