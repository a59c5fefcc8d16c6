// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists terminal state between runs.
//
// Two things are stored per user key: the command history, an ordered list
// of lines, and the alias table, a flat token to expansion map. Loading is
// lenient. A malformed entry is skipped and logged, and the rest of the
// data still loads.
//
// # Backends
//
//   - file: one JSON document per key, written atomically
//   - bolt: a bbolt database with a bucket per key
//   - sqlite: a SQLite database (modernc.org/sqlite, no cgo)
//   - memory: process-local, for tests and --no-persist runs
//
// # Usage
//
//	store, err := storage.Open(storage.Config{Backend: "bolt", Path: path}, log)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	lines, err := store.LoadHistory(ctx, "guest")
package storage
