// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/jeranaias/deskshell/internal/logging"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS history (
	user_key TEXT NOT NULL,
	seq      INTEGER NOT NULL,
	line     TEXT,
	PRIMARY KEY (user_key, seq)
);
CREATE TABLE IF NOT EXISTS aliases (
	user_key  TEXT NOT NULL,
	token     TEXT NOT NULL,
	expansion TEXT,
	PRIMARY KEY (user_key, token)
);
`

// SQLiteStore keeps state in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	log *logging.Logger
}

// OpenSQLite opens or creates the database at path. ":memory:" gives a
// private in-memory database.
func OpenSQLite(path string, log *logging.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite store: empty path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, and an in-memory database
	// lives on a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=1000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, log: logging.OrNop(log)}, nil
}

func (s *SQLiteStore) LoadHistory(ctx context.Context, key string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT seq, line FROM history WHERE user_key = ? ORDER BY seq", normalizeKey(key))
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	var lines []string
	skips := &skipLog{log: s.log, backend: BackendSQLite, key: key, what: "history"}
	for rows.Next() {
		var (
			seq  int64
			line sql.NullString
		)
		if err := rows.Scan(&seq, &line); err != nil {
			skips.skip("unreadable row", zap.Error(err))
			continue
		}
		if !line.Valid || !validText([]byte(line.String)) {
			skips.skip("null or invalid line", zap.Int64("seq", seq))
			continue
		}
		lines = append(lines, line.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return lines, nil
}

func (s *SQLiteStore) SaveHistory(ctx context.Context, key string, lines []string) error {
	return s.replace(ctx, func(tx *sql.Tx) error {
		k := normalizeKey(key)
		if _, err := tx.ExecContext(ctx, "DELETE FROM history WHERE user_key = ?", k); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, "INSERT INTO history (user_key, seq, line) VALUES (?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, line := range lines {
			if _, err := stmt.ExecContext(ctx, k, i, line); err != nil {
				return err
			}
		}
		return nil
	}, "history")
}

func (s *SQLiteStore) LoadAliases(ctx context.Context, key string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT token, expansion FROM aliases WHERE user_key = ?", normalizeKey(key))
	if err != nil {
		return nil, fmt.Errorf("failed to load aliases: %w", err)
	}
	defer rows.Close()

	aliases := make(map[string]string)
	skips := &skipLog{log: s.log, backend: BackendSQLite, key: key, what: "alias"}
	for rows.Next() {
		var (
			token     string
			expansion sql.NullString
		)
		if err := rows.Scan(&token, &expansion); err != nil {
			skips.skip("unreadable row", zap.Error(err))
			continue
		}
		if !expansion.Valid || !validText([]byte(expansion.String)) {
			skips.skip("null or invalid expansion", zap.String("token", token))
			continue
		}
		aliases[token] = expansion.String
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load aliases: %w", err)
	}
	return aliases, nil
}

func (s *SQLiteStore) SaveAliases(ctx context.Context, key string, aliases map[string]string) error {
	return s.replace(ctx, func(tx *sql.Tx) error {
		k := normalizeKey(key)
		if _, err := tx.ExecContext(ctx, "DELETE FROM aliases WHERE user_key = ?", k); err != nil {
			return err
		}
		for tok, exp := range aliases {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO aliases (user_key, token, expansion) VALUES (?, ?, ?)", k, tok, exp); err != nil {
				return err
			}
		}
		return nil
	}, "aliases")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// replace runs fn in a transaction, rolling back on failure.
func (s *SQLiteStore) replace(ctx context.Context, fn func(tx *sql.Tx) error, what string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", what, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to save %s: %w", what, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to save %s: %w", what, err)
	}
	return nil
}
