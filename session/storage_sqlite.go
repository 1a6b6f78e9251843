// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const (
	// LocalNamespace is the SQLiteStorage namespace for durable tokens.
	LocalNamespace = "local"

	// SessionNamespace is the SQLiteStorage namespace for tab-scoped values.
	SessionNamespace = "session"
)

const storageSchema = `
	CREATE TABLE IF NOT EXISTS storage (
		namespace   TEXT NOT NULL,
		key         TEXT NOT NULL,
		value       TEXT NOT NULL,
		PRIMARY KEY (namespace, key)
	);`

// SQLiteStorage is a StorageProvider backed by a SQLite database. Each
// storage is confined to a namespace, so durable and tab-scoped values can
// share one database file.
type SQLiteStorage struct {
	db        *sql.DB
	namespace string
}

var _ StorageProvider = (*SQLiteStorage)(nil)

// OpenSQLite opens (creating if needed) the SQLite database at path and
// initializes the storage schema.
func OpenSQLite(path string) (*sql.DB, error) {
	const op = "session.OpenSQLite"
	if path == "" {
		return nil, fmt.Errorf("%s: path is empty: %w", op, ErrInvalidParameter)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to open database: %w", op, err)
	}
	// a single connection keeps ":memory:" databases coherent and serializes
	// writers
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(storageSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: unable to init storage schema: %w", op, err)
	}
	return db, nil
}

// NewSQLiteStorage returns a storage for namespace within db. The db must
// have been opened with OpenSQLite. Closing db is the caller's
// responsibility.
func NewSQLiteStorage(db *sql.DB, namespace string) (*SQLiteStorage, error) {
	const op = "session.NewSQLiteStorage"
	switch {
	case db == nil:
		return nil, fmt.Errorf("%s: db is nil: %w", op, ErrNilParameter)
	case namespace == "":
		return nil, fmt.Errorf("%s: namespace is empty: %w", op, ErrInvalidParameter)
	}
	return &SQLiteStorage{db: db, namespace: namespace}, nil
}

// Get implements StorageProvider.Get
func (s *SQLiteStorage) Get(key string) (string, bool, error) {
	const op = "SQLiteStorage.Get"
	var v string
	err := s.db.QueryRow(
		`SELECT value FROM storage WHERE namespace = ? AND key = ?`,
		s.namespace, key,
	).Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("%s: unable to read %s: %w: %w", op, key, ErrStorage, err)
	}
	return v, true, nil
}

// Set implements StorageProvider.Set
func (s *SQLiteStorage) Set(key, value string) error {
	const op = "SQLiteStorage.Set"
	_, err := s.db.Exec(
		`INSERT INTO storage (namespace, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value`,
		s.namespace, key, value,
	)
	if err != nil {
		return fmt.Errorf("%s: unable to write %s: %w: %w", op, key, ErrStorage, err)
	}
	return nil
}

// Remove implements StorageProvider.Remove
func (s *SQLiteStorage) Remove(key string) error {
	const op = "SQLiteStorage.Remove"
	if _, err := s.db.Exec(`DELETE FROM storage WHERE namespace = ? AND key = ?`, s.namespace, key); err != nil {
		return fmt.Errorf("%s: unable to remove %s: %w: %w", op, key, ErrStorage, err)
	}
	return nil
}

// Clear removes every key in the storage's namespace.
func (s *SQLiteStorage) Clear() error {
	const op = "SQLiteStorage.Clear"
	if _, err := s.db.Exec(`DELETE FROM storage WHERE namespace = ?`, s.namespace); err != nil {
		return fmt.Errorf("%s: unable to clear %s: %w: %w", op, s.namespace, ErrStorage, err)
	}
	return nil
}
