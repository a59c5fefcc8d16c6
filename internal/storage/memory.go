// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps state in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	history map[string][]string
	aliases map[string]map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		history: make(map[string][]string),
		aliases: make(map[string]map[string]string),
	}
}

func (m *MemoryStore) LoadHistory(ctx context.Context, key string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.history[normalizeKey(key)]...), nil
}

func (m *MemoryStore) SaveHistory(ctx context.Context, key string, lines []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[normalizeKey(key)] = append([]string(nil), lines...)
	return nil
}

func (m *MemoryStore) LoadAliases(ctx context.Context, key string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.aliases[normalizeKey(key)]))
	for tok, exp := range m.aliases[normalizeKey(key)] {
		out[tok] = exp
	}
	return out, nil
}

func (m *MemoryStore) SaveAliases(ctx context.Context, key string, aliases map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	copied := make(map[string]string, len(aliases))
	for tok, exp := range aliases {
		copied[tok] = exp
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aliases[normalizeKey(key)] = copied
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
