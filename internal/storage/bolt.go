// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/jeranaias/deskshell/internal/logging"
)

const (
	bucketHistory = "history"
	bucketAliases = "aliases"
)

// BoltStore keeps state in a bbolt database. Each top-level bucket holds a
// nested bucket per key; history entries are keyed by big-endian sequence
// numbers so cursor order is insertion order.
type BoltStore struct {
	db  *bolt.DB
	log *logging.Logger
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path string, log *logging.Logger) (*BoltStore, error) {
	if path == "" {
		return nil, errors.New("bolt store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketHistory, bucketAliases} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return &BoltStore{db: db, log: logging.OrNop(log)}, nil
}

func (s *BoltStore) LoadHistory(ctx context.Context, key string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var lines []string
	skips := &skipLog{log: s.log, backend: BackendBolt, key: key, what: "history"}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketHistory)).Bucket([]byte(normalizeKey(key)))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			switch {
			case len(k) != 8:
				skips.skip("bad sequence key", zap.Binary("seq", k))
			case v == nil:
				skips.skip("unexpected bucket", zap.Binary("seq", k))
			case !validText(v):
				skips.skip("invalid utf-8", zap.Uint64("seq", unmarshalSeq(k)))
			default:
				lines = append(lines, string(v))
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return lines, nil
}

func (s *BoltStore) SaveHistory(ctx context.Context, key string, lines []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := resetBucket(tx.Bucket([]byte(bucketHistory)), normalizeKey(key))
		if err != nil {
			return err
		}
		for _, line := range lines {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			if err := b.Put(marshalSeq(seq), []byte(line)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

func (s *BoltStore) LoadAliases(ctx context.Context, key string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	aliases := make(map[string]string)
	skips := &skipLog{log: s.log, backend: BackendBolt, key: key, what: "alias"}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketAliases)).Bucket([]byte(normalizeKey(key)))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			if v == nil || !validText(k) || !validText(v) {
				skips.skip("invalid entry", zap.Binary("token", k))
				return nil
			}
			aliases[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load aliases: %w", err)
	}
	return aliases, nil
}

func (s *BoltStore) SaveAliases(ctx context.Context, key string, aliases map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := resetBucket(tx.Bucket([]byte(bucketAliases)), normalizeKey(key))
		if err != nil {
			return err
		}
		for tok, exp := range aliases {
			if tok == "" {
				continue
			}
			if err := b.Put([]byte(tok), []byte(exp)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save aliases: %w", err)
	}
	return nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// resetBucket replaces the nested bucket name under parent with an empty one.
func resetBucket(parent *bolt.Bucket, name string) (*bolt.Bucket, error) {
	if err := parent.DeleteBucket([]byte(name)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
		return nil, err
	}
	return parent.CreateBucket([]byte(name))
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func unmarshalSeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
