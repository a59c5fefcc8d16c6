// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history keeps the per-session command history: an append-only,
// FIFO-bounded sequence of submitted lines, plus a cursor for Up/Down
// navigation that never mutates the history itself.
package history

import (
	"sync"
	"time"

	"github.com/jeranaias/deskshell/internal/fuzzy"
)

// DefaultCap is used when a History is created with a non-positive cap.
const DefaultCap = 500

// Entry is one submitted line.
type Entry struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// =============================================================================
// HISTORY
// =============================================================================

// History is an ordered, bounded list of entries, oldest first. When full,
// appending evicts the oldest entry.
type History struct {
	mu      sync.RWMutex
	cap     int
	entries []Entry

	// now is swapped in tests.
	now func() time.Time
}

// New creates a history retaining at most capacity entries.
func New(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &History{
		cap:     capacity,
		entries: make([]Entry, 0, min(capacity, 64)),
		now:     time.Now,
	}
}

// Append records text and returns the stored entry.
func (h *History) Append(text string) Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	e := Entry{Text: text, Timestamp: h.now()}
	h.entries = append(h.entries, e)
	h.trimLocked()
	return e
}

// Load appends previously persisted lines in order, as if each had been
// submitted now. The cap still applies.
func (h *History) Load(texts []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ts := h.now()
	for _, text := range texts {
		h.entries = append(h.entries, Entry{Text: text, Timestamp: ts})
	}
	h.trimLocked()
}

func (h *History) trimLocked() {
	if over := len(h.entries) - h.cap; over > 0 {
		// Copy down so the backing array does not grow without bound.
		n := copy(h.entries, h.entries[over:])
		clear(h.entries[n:])
		h.entries = h.entries[:n]
	}
}

// Entries returns a copy of all entries, oldest first.
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Texts returns the entry texts, oldest first.
func (h *History) Texts() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Text
	}
	return out
}

// At returns the entry at index i (0 is the oldest).
func (h *History) At(i int) (Entry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if i < 0 || i >= len(h.entries) {
		return Entry{}, false
	}
	return h.entries[i], true
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Cap returns the maximum number of retained entries.
func (h *History) Cap() int {
	return h.cap
}

// Search fuzzy-matches query against the history, newest entries first on
// equal scores. Repeated lines are reported once, at their newest position.
func (h *History) Search(query string) []Entry {
	h.mu.RLock()
	seen := make(map[string]bool, len(h.entries))
	var newestFirst []Entry
	for i := len(h.entries) - 1; i >= 0; i-- {
		e := h.entries[i]
		if seen[e.Text] {
			continue
		}
		seen[e.Text] = true
		newestFirst = append(newestFirst, e)
	}
	h.mu.RUnlock()

	texts := make([]string, len(newestFirst))
	for i, e := range newestFirst {
		texts[i] = e.Text
	}

	results := fuzzy.Match(query, texts)
	out := make([]Entry, len(results))
	for i, r := range results {
		out[i] = newestFirst[r.Index]
	}
	return out
}
