// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAliasTable_Resolve(t *testing.T) {
	table := NewAliasTable()
	require.NoError(t, table.Define("g", "git status"))
	require.NoError(t, table.Define("ll", "ll -a"))

	tests := []struct {
		line string
		want string
	}{
		{"g", "git status"},
		{"g -v", "git status -v"},
		{"  g  x", "git status  x"},
		{"ll", "ll -a"},
		{"echo g", "echo g"},
		{"gg", "gg"},
		{"", ""},
		{"   ", "   "},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, table.Resolve(tc.line), "Resolve(%q)", tc.line)
	}
}

func TestAliasTable_ResolveIsSinglePass(t *testing.T) {
	table := NewAliasTable()
	require.NoError(t, table.Define("a", "b"))
	require.NoError(t, table.Define("b", "a"))

	assert.Equal(t, "b", table.Resolve("a"))
	assert.Equal(t, "a extra", table.Resolve("b extra"))
}

func TestAliasTable_ScenarioParse(t *testing.T) {
	table := NewAliasTable()
	require.NoError(t, table.Define("g", "git status"))

	parsed, err := Parse(table.Resolve("g"))
	require.NoError(t, err)
	assert.Equal(t, "git", parsed.Name)
	assert.Equal(t, []string{"status"}, parsed.Args)
}

func TestAliasTable_DefineOverwrites(t *testing.T) {
	table := NewAliasTable()
	require.NoError(t, table.Define("p", "projects"))
	require.NoError(t, table.Define("p", "open projects"))

	exp, ok := table.Lookup("p")
	require.True(t, ok)
	assert.Equal(t, "open projects", exp)
	assert.Equal(t, 1, table.Len())
}

func TestAliasTable_RemoveIsIdempotent(t *testing.T) {
	table := NewAliasTable()
	require.NoError(t, table.Define("p", "projects"))

	table.Remove("p")
	table.Remove("p")
	table.Remove("never-defined")

	_, ok := table.Lookup("p")
	assert.False(t, ok)
	assert.Equal(t, 0, table.Len())
}

func TestAliasTable_DefineInvalid(t *testing.T) {
	table := NewAliasTable()
	for _, token := range []string{"", "two words", `"q"`, "it's", "a=b", `back\`} {
		err := table.Define(token, "help")
		assert.ErrorIs(t, err, ErrInvalidAlias, "token %q", token)
	}
	assert.Equal(t, 0, table.Len())
}

func TestAliasTable_AllSorted(t *testing.T) {
	table := NewAliasTable()
	require.NoError(t, table.Define("z", "zed"))
	require.NoError(t, table.Define("a", "ay"))
	require.NoError(t, table.Define("m", "em"))

	assert.Equal(t, []Alias{{"a", "ay"}, {"m", "em"}, {"z", "zed"}}, table.All())
	assert.Equal(t, []string{"a", "m", "z"}, table.Tokens())
}

func TestAliasTable_SnapshotAndLoad(t *testing.T) {
	table := NewAliasTable()
	skipped := table.Load(map[string]string{
		"g":         "git status",
		"bad token": "help",
		"":          "help",
		"h":         "help",
	})
	assert.Equal(t, []string{"", "bad token"}, skipped)
	assert.Equal(t, 2, table.Len())

	snap := table.Snapshot()
	assert.Equal(t, map[string]string{"g": "git status", "h": "help"}, snap)

	snap["g"] = "mutated"
	exp, _ := table.Lookup("g")
	assert.Equal(t, "git status", exp, "snapshot must be a copy")
}
