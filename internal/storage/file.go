// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/deskshell/internal/logging"
	"github.com/jeranaias/deskshell/internal/util"
)

const documentVersion = 1

// document is the on-disk layout of one key's state.
type document struct {
	Version   int               `json:"version"`
	UpdatedAt time.Time         `json:"updated_at"`
	History   []string          `json:"history"`
	Aliases   map[string]string `json:"aliases"`
}

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore keeps one JSON document per key in a directory.
type FileStore struct {
	// BaseDir is the directory holding <key>.json files
	BaseDir string

	mu  sync.Mutex
	log *logging.Logger
}

// NewFileStore creates a store rooted at dir, creating it if needed.
func NewFileStore(dir string, log *logging.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store: empty directory")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{BaseDir: dir, log: logging.OrNop(log)}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.BaseDir, normalizeKey(key)+".json")
}

func (s *FileStore) LoadHistory(ctx context.Context, key string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(key)
	if err != nil {
		return nil, err
	}
	return doc.History, nil
}

func (s *FileStore) SaveHistory(ctx context.Context, key string, lines []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(key)
	if err != nil {
		return err
	}
	doc.History = append([]string(nil), lines...)
	return s.write(key, doc)
}

func (s *FileStore) LoadAliases(ctx context.Context, key string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(key)
	if err != nil {
		return nil, err
	}
	return doc.Aliases, nil
}

func (s *FileStore) SaveAliases(ctx context.Context, key string, aliases map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(key)
	if err != nil {
		return err
	}
	doc.Aliases = make(map[string]string, len(aliases))
	for tok, exp := range aliases {
		doc.Aliases[tok] = exp
	}
	return s.write(key, doc)
}

func (s *FileStore) Close() error {
	return nil
}

// read loads the document for key, field by field and entry by entry, so
// one bad value never hides the rest. A missing file is an empty document.
func (s *FileStore) read(key string) (*document, error) {
	doc := &document{Version: documentVersion, Aliases: make(map[string]string)}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path(key), err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		s.log.Warn("ignoring unreadable state file", zap.String("path", s.path(key)), zap.Error(err))
		return doc, nil
	}

	hist := &skipLog{log: s.log, backend: BackendFile, key: key, what: "history"}
	if raw, ok := fields["history"]; ok {
		var entries []json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			hist.skip("history is not a list")
		}
		for i, e := range entries {
			var line string
			if isNull(e) || json.Unmarshal(e, &line) != nil {
				hist.skip("not a string", zap.Int("index", i))
				continue
			}
			doc.History = append(doc.History, line)
		}
	}

	al := &skipLog{log: s.log, backend: BackendFile, key: key, what: "alias"}
	if raw, ok := fields["aliases"]; ok {
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			al.skip("aliases is not an object")
		}
		for tok, e := range entries {
			var exp string
			if isNull(e) || json.Unmarshal(e, &exp) != nil {
				al.skip("not a string", zap.String("token", tok))
				continue
			}
			doc.Aliases[tok] = exp
		}
	}

	return doc, nil
}

// isNull reports a JSON null, which decodes into a string without error.
func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func (s *FileStore) write(key string, doc *document) error {
	doc.Version = documentVersion
	doc.UpdatedAt = time.Now()
	if doc.History == nil {
		doc.History = []string{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := util.AtomicWriteFile(s.path(key), data, 0600); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}
