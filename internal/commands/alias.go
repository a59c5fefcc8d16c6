// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// ErrInvalidAlias is returned when an alias token cannot appear as the first
// token of a line.
var ErrInvalidAlias = errors.New("invalid alias token")

// Alias maps a shorthand token to the command line it expands to.
type Alias struct {
	Token     string
	Expansion string
}

// =============================================================================
// ALIAS TABLE
// =============================================================================

// AliasTable holds user and host defined aliases. It is safe for concurrent
// use so one table can back several sessions.
type AliasTable struct {
	mu      sync.RWMutex
	aliases map[string]string
}

// NewAliasTable creates an empty alias table.
func NewAliasTable() *AliasTable {
	return &AliasTable{aliases: make(map[string]string)}
}

// Define maps token to expansion, replacing any previous definition.
func (t *AliasTable) Define(token, expansion string) error {
	if err := validateAliasToken(token); err != nil {
		return err
	}

	t.mu.Lock()
	t.aliases[token] = expansion
	t.mu.Unlock()
	return nil
}

// Remove deletes the alias for token. Removing an unknown token is a no-op.
func (t *AliasTable) Remove(token string) {
	t.mu.Lock()
	delete(t.aliases, token)
	t.mu.Unlock()
}

// Lookup returns the expansion for token.
func (t *AliasTable) Lookup(token string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	exp, ok := t.aliases[token]
	return exp, ok
}

// Resolve expands the first whitespace-delimited token of line if it is an
// alias. The rest of the line is appended verbatim and is not expanded
// again, so self-referencing or mutually recursive aliases always terminate.
func (t *AliasTable) Resolve(line string) string {
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
	end := strings.IndexFunc(trimmed, unicode.IsSpace)
	if end < 0 {
		end = len(trimmed)
	}
	if end == 0 {
		return line
	}

	exp, ok := t.Lookup(trimmed[:end])
	if !ok {
		return line
	}
	return exp + trimmed[end:]
}

// All returns every alias sorted by token.
func (t *AliasTable) All() []Alias {
	t.mu.RLock()
	out := make([]Alias, 0, len(t.aliases))
	for tok, exp := range t.aliases {
		out = append(out, Alias{Token: tok, Expansion: exp})
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out
}

// Tokens returns the alias tokens in sorted order.
func (t *AliasTable) Tokens() []string {
	all := t.All()
	out := make([]string, len(all))
	for i, a := range all {
		out[i] = a.Token
	}
	return out
}

// Snapshot returns a copy of the table as a flat map.
func (t *AliasTable) Snapshot() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]string, len(t.aliases))
	for tok, exp := range t.aliases {
		out[tok] = exp
	}
	return out
}

// Load defines every entry of m. Entries with invalid tokens are skipped and
// their tokens returned in sorted order.
func (t *AliasTable) Load(m map[string]string) (skipped []string) {
	t.mu.Lock()
	for tok, exp := range m {
		if validateAliasToken(tok) != nil {
			skipped = append(skipped, tok)
			continue
		}
		t.aliases[tok] = exp
	}
	t.mu.Unlock()

	sort.Strings(skipped)
	return skipped
}

// Len returns the number of aliases.
func (t *AliasTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.aliases)
}

func validateAliasToken(token string) error {
	if token == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAlias)
	}
	for _, r := range token {
		if unicode.IsSpace(r) || isQuote(r) || r == '\\' || r == '=' {
			return fmt.Errorf("%w: %q", ErrInvalidAlias, token)
		}
	}
	return nil
}
