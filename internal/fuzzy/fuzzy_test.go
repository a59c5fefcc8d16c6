// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package fuzzy

import (
	"reflect"
	"testing"
)

func TestMatch_EmptyQueryKeepsEverything(t *testing.T) {
	candidates := []string{"help", "history", "clear"}
	results := Match("", candidates)

	if len(results) != len(candidates) {
		t.Fatalf("Match(\"\") returned %d results, want %d", len(results), len(candidates))
	}
	for i, r := range results {
		if r.Candidate != candidates[i] || r.Index != i {
			t.Errorf("result %d = %q (index %d), want %q (index %d)", i, r.Candidate, r.Index, candidates[i], i)
		}
		if r.Score != 0 {
			t.Errorf("result %d score = %d, want uniform 0", i, r.Score)
		}
	}
}

func TestMatch_ExcludesNonSubsequences(t *testing.T) {
	results := Match("he", []string{"help", "history", "clear"})
	if len(results) != 1 || results[0].Candidate != "help" {
		t.Fatalf("Match(\"he\") = %+v, want only help", results)
	}

	if got := Match("xyz", []string{"help", "history"}); len(got) != 0 {
		t.Errorf("Match(\"xyz\") = %+v, want none", got)
	}
	if got := Match("helpme", []string{"help"}); len(got) != 0 {
		t.Errorf("query longer than candidate should not match, got %+v", got)
	}
}

func TestMatch_CaseInsensitive(t *testing.T) {
	res, ok := Score("HE", "help")
	if !ok {
		t.Fatal("Score(\"HE\", \"help\") should match")
	}
	if !reflect.DeepEqual(res.Positions, []int{0, 1}) {
		t.Errorf("Positions = %v, want [0 1]", res.Positions)
	}
}

func TestMatch_Ranking(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		better string
		worse  string
	}{
		{"contiguous beats scattered", "abc", "abcxyz", "axbxcx"},
		{"word boundary beats mid-word", "gs", "git-status", "gasket"},
		{"shorter beats longer", "help", "help", "helpme"},
		{"camel hump counts as boundary", "oa", "openApp", "oxxaxxx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := Match(tt.query, []string{tt.worse, tt.better})
			if len(results) != 2 {
				t.Fatalf("expected both candidates to match, got %+v", results)
			}
			if results[0].Candidate != tt.better {
				t.Errorf("top result = %q (score %d), want %q; worse scored %d",
					results[0].Candidate, results[0].Score, tt.better, results[1].Score)
			}
		})
	}
}

func TestMatch_StableTies(t *testing.T) {
	results := Match("ab", []string{"ab", "ab", "ab"})
	for i, r := range results {
		if r.Index != i {
			t.Errorf("tie at position %d has index %d, want original order", i, r.Index)
		}
	}
}

func TestScore_PrefersBoundaryAlignment(t *testing.T) {
	res, ok := Score("he", "the help")
	if !ok {
		t.Fatal("expected a match")
	}
	if !reflect.DeepEqual(res.Positions, []int{4, 5}) {
		t.Errorf("Positions = %v, want [4 5] (start of the word)", res.Positions)
	}
}

// A query equal to the candidate must score at least as well as any proper
// subsequence of that candidate.
func TestScore_ExactAtLeastSubsequence(t *testing.T) {
	candidates := []string{"help", "history", "git-status", "openApp", "aab_ba"}

	for _, c := range candidates {
		exact, ok := Score(c, c)
		if !ok {
			t.Fatalf("Score(%q, %q) did not match", c, c)
		}

		runes := []rune(c)
		for mask := 1; mask < 1<<len(runes)-1; mask++ {
			var sub []rune
			for i, r := range runes {
				if mask&(1<<i) != 0 {
					sub = append(sub, r)
				}
			}
			res, ok := Score(string(sub), c)
			if !ok {
				t.Fatalf("subsequence %q of %q did not match", string(sub), c)
			}
			if res.Score > exact.Score {
				t.Errorf("subsequence %q scored %d > exact %q scored %d", string(sub), res.Score, c, exact.Score)
			}
		}
	}
}

func TestFilter(t *testing.T) {
	got := Filter("c", []string{"help", "clear", "echo"})
	want := []string{"clear", "echo"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Filter = %v, want %v", got, want)
	}
}

func TestHighlight(t *testing.T) {
	tests := []struct {
		candidate string
		positions []int
		want      []string
	}{
		{"help", []int{0, 2, 3}, []string{"", "h", "e", "lp"}},
		{"help", nil, []string{"help"}},
		{"clear", []int{1, 2}, []string{"c", "le", "ar"}},
	}

	for _, tt := range tests {
		got := Highlight(tt.candidate, tt.positions)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Highlight(%q, %v) = %q, want %q", tt.candidate, tt.positions, got, tt.want)
		}
	}
}
