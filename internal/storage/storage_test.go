// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jeranaias/deskshell/internal/logging"
)

func observedLogger() (*logging.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.WarnLevel)
	return &logging.Logger{Logger: zap.New(core)}, logs
}

func openBackends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	stores := map[string]Store{}
	for _, cfg := range []Config{
		{Backend: BackendFile, Path: filepath.Join(dir, "state")},
		{Backend: BackendBolt, Path: filepath.Join(dir, "state.db")},
		{Backend: BackendSQLite, Path: filepath.Join(dir, "state.sqlite")},
		{Backend: BackendMemory},
	} {
		s, err := Open(cfg, nil)
		require.NoError(t, err, cfg.Backend)
		t.Cleanup(func() { s.Close() })
		stores[cfg.Backend] = s
	}
	return stores
}

// =============================================================================
// CONFORMANCE
// =============================================================================

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			lines, err := s.LoadHistory(ctx, "guest")
			require.NoError(t, err)
			assert.Empty(t, lines, "unknown key has no history")

			aliases, err := s.LoadAliases(ctx, "guest")
			require.NoError(t, err)
			assert.Empty(t, aliases)

			want := []string{"help", `echo "hi there"`, "open projects", "ünïcödé"}
			require.NoError(t, s.SaveHistory(ctx, "guest", want))
			require.NoError(t, s.SaveAliases(ctx, "guest", map[string]string{"g": "git status", "p": "open projects"}))

			lines, err = s.LoadHistory(ctx, "guest")
			require.NoError(t, err)
			assert.Equal(t, want, lines, "order is preserved")

			aliases, err = s.LoadAliases(ctx, "guest")
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"g": "git status", "p": "open projects"}, aliases)

			// Saving replaces rather than appends.
			require.NoError(t, s.SaveHistory(ctx, "guest", []string{"clear"}))
			require.NoError(t, s.SaveAliases(ctx, "guest", map[string]string{"h": "help"}))

			lines, _ = s.LoadHistory(ctx, "guest")
			assert.Equal(t, []string{"clear"}, lines)
			aliases, _ = s.LoadAliases(ctx, "guest")
			assert.Equal(t, map[string]string{"h": "help"}, aliases)

			// Saving history keeps aliases and vice versa.
			require.NoError(t, s.SaveHistory(ctx, "guest", []string{"a", "b"}))
			aliases, _ = s.LoadAliases(ctx, "guest")
			assert.Equal(t, map[string]string{"h": "help"}, aliases)
		})
	}
}

func TestStore_KeysAreIsolated(t *testing.T) {
	ctx := context.Background()

	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.SaveHistory(ctx, "alice", []string{"whoami"}))
			require.NoError(t, s.SaveHistory(ctx, "bob", []string{"contact"}))
			require.NoError(t, s.SaveHistory(ctx, "", []string{"anonymous"}))

			lines, _ := s.LoadHistory(ctx, "alice")
			assert.Equal(t, []string{"whoami"}, lines)
			lines, _ = s.LoadHistory(ctx, "bob")
			assert.Equal(t, []string{"contact"}, lines)
			lines, _ = s.LoadHistory(ctx, DefaultKey)
			assert.Equal(t, []string{"anonymous"}, lines, "empty key maps to the default key")
		})
	}
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, s.SaveHistory(ctx, "guest", []string{"x"}))
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(Config{Backend: "redis"}, nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestNormalizeKey(t *testing.T) {
	tests := map[string]string{
		"":            DefaultKey,
		"guest":       "guest",
		"a/b":         "a_b",
		"../etc":      ".._etc",
		"..":          "_..",
		"jesse@host":  "jesse_host",
		"sess-1.2_x":  "sess-1.2_x",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeKey(in), "normalizeKey(%q)", in)
	}
}

// =============================================================================
// MALFORMED ENTRIES
// =============================================================================

func TestFileStore_SkipsMalformedEntries(t *testing.T) {
	log, logs := observedLogger()
	s, err := NewFileStore(t.TempDir(), log)
	require.NoError(t, err)

	doc := `{
		"version": 1,
		"history": ["help", 5, null, "open projects", {"x": 1}],
		"aliases": {"g": "git status", "bad": 7, "nil": null}
	}`
	require.NoError(t, os.WriteFile(s.path("guest"), []byte(doc), 0600))

	ctx := context.Background()
	lines, err := s.LoadHistory(ctx, "guest")
	require.NoError(t, err)
	assert.Equal(t, []string{"help", "open projects"}, lines)

	aliases, err := s.LoadAliases(ctx, "guest")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"g": "git status"}, aliases)

	assert.Equal(t, 5, logs.FilterMessage("skipping malformed entry").Len())
}

func TestFileStore_BadFieldKeepsOthers(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)

	doc := `{"history": "not a list", "aliases": {"g": "git status"}}`
	require.NoError(t, os.WriteFile(s.path("guest"), []byte(doc), 0600))

	ctx := context.Background()
	lines, err := s.LoadHistory(ctx, "guest")
	require.NoError(t, err)
	assert.Empty(t, lines)

	aliases, err := s.LoadAliases(ctx, "guest")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"g": "git status"}, aliases)
}

func TestFileStore_UnreadableFile(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.path("guest"), []byte("{{{ not json"), 0600))

	ctx := context.Background()
	lines, err := s.LoadHistory(ctx, "guest")
	require.NoError(t, err)
	assert.Empty(t, lines)

	// The next save replaces the broken file.
	require.NoError(t, s.SaveHistory(ctx, "guest", []string{"help"}))
	lines, _ = s.LoadHistory(ctx, "guest")
	assert.Equal(t, []string{"help"}, lines)

	info, err := os.Stat(s.path("guest"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestBoltStore_SkipsMalformedEntries(t *testing.T) {
	log, logs := observedLogger()
	s, err := OpenBolt(filepath.Join(t.TempDir(), "state.db"), log)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.SaveHistory(ctx, "guest", []string{"help", "clear"}))
	require.NoError(t, s.SaveAliases(ctx, "guest", map[string]string{"g": "git status"}))

	err = s.db.Update(func(tx *bolt.Tx) error {
		h := tx.Bucket([]byte(bucketHistory)).Bucket([]byte("guest"))
		if err := h.Put(marshalSeq(3), []byte{0xff, 0xfe}); err != nil {
			return err
		}
		if err := h.Put([]byte("short"), []byte("bad key")); err != nil {
			return err
		}
		a := tx.Bucket([]byte(bucketAliases)).Bucket([]byte("guest"))
		return a.Put([]byte("x"), []byte{0xc3, 0x28})
	})
	require.NoError(t, err)

	lines, err := s.LoadHistory(ctx, "guest")
	require.NoError(t, err)
	assert.Equal(t, []string{"help", "clear"}, lines)

	aliases, err := s.LoadAliases(ctx, "guest")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"g": "git status"}, aliases)

	assert.Equal(t, 3, logs.FilterMessage("skipping malformed entry").Len())
}

func TestSQLiteStore_SkipsMalformedEntries(t *testing.T) {
	log, logs := observedLogger()
	s, err := OpenSQLite(":memory:", log)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.SaveHistory(ctx, "guest", []string{"help", "clear"}))
	require.NoError(t, s.SaveAliases(ctx, "guest", map[string]string{"g": "git status"}))

	_, err = s.db.Exec("INSERT INTO history (user_key, seq, line) VALUES ('guest', 1, NULL)")
	require.Error(t, err, "seq 1 is taken by 'clear'")
	_, err = s.db.Exec("INSERT INTO history (user_key, seq, line) VALUES ('guest', 7, NULL)")
	require.NoError(t, err)
	_, err = s.db.Exec("INSERT INTO aliases (user_key, token, expansion) VALUES ('guest', 'n', NULL)")
	require.NoError(t, err)

	lines, err := s.LoadHistory(ctx, "guest")
	require.NoError(t, err)
	assert.Equal(t, []string{"help", "clear"}, lines)

	aliases, err := s.LoadAliases(ctx, "guest")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"g": "git status"}, aliases)

	assert.Equal(t, 2, logs.FilterMessage("skipping malformed entry").Len())
}
