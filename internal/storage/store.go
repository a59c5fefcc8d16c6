// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jeranaias/deskshell/internal/logging"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// DefaultKey is used for an empty user key.
const DefaultKey = "default"

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Store persists history and aliases keyed by a user or session identifier.
type Store interface {
	// LoadHistory returns the stored lines, oldest first. An unknown key
	// yields no lines and no error.
	LoadHistory(ctx context.Context, key string) ([]string, error)

	// SaveHistory replaces the stored lines for key.
	SaveHistory(ctx context.Context, key string, lines []string) error

	// LoadAliases returns the stored aliases. An unknown key yields an
	// empty map and no error.
	LoadAliases(ctx context.Context, key string) (map[string]string, error)

	// SaveAliases replaces the stored aliases for key.
	SaveAliases(ctx context.Context, key string, aliases map[string]string) error

	// Close releases the backend.
	Close() error
}

// Config selects and locates a backend.
type Config struct {
	Backend string

	// Path is a directory for the file backend and a database file for
	// bolt and sqlite. Unused by memory.
	Path string
}

// Open creates the configured backend.
func Open(cfg Config, log *logging.Logger) (Store, error) {
	log = logging.OrNop(log).Component("storage")

	switch cfg.Backend {
	case BackendFile, "":
		return NewFileStore(cfg.Path, log)
	case BackendBolt:
		return OpenBolt(cfg.Path, log)
	case BackendSQLite:
		return OpenSQLite(cfg.Path, log)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// normalizeKey maps an arbitrary key to a non-empty, path-safe name.
func normalizeKey(key string) string {
	if key == "" {
		return DefaultKey
	}
	safe := unsafeKeyChars.ReplaceAllString(key, "_")
	if safe == "." || safe == ".." {
		safe = "_" + safe
	}
	return safe
}

// skipLog counts and reports malformed entries for one load.
type skipLog struct {
	log     *logging.Logger
	backend string
	key     string
	what    string
	skipped int
}

func (s *skipLog) skip(reason string, fields ...zap.Field) {
	s.skipped++
	s.log.Warn("skipping malformed entry",
		append([]zap.Field{
			zap.String("backend", s.backend),
			zap.String("key", s.key),
			zap.String("kind", s.what),
			zap.String("reason", reason),
		}, fields...)...)
}

func validText(b []byte) bool {
	return utf8.Valid(b)
}
