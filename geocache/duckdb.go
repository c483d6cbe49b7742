// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocache

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
)

// DuckDBStore keeps the snapshot in the geocache table of a DuckDB database.
type DuckDBStore struct {
	db   *sql.DB
	name string
}

// NewDuckDBStore creates a store over db. The schema is created on demand.
func NewDuckDBStore(db *sql.DB, name string) *DuckDBStore {
	return &DuckDBStore{db: db, name: name}
}

// Name implements Store.
func (s *DuckDBStore) Name() string {
	return "duckdb:" + s.name
}

// CreateSchema creates the geocache table.
func (s *DuckDBStore) CreateSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS geocache (
			key VARCHAR PRIMARY KEY,
			address VARCHAR NOT NULL
		);
	`)

	return err
}

// Load implements Store.
func (s *DuckDBStore) Load() (map[string]string, error) {
	if err := s.CreateSchema(); err != nil {
		return nil, fmt.Errorf("creating geocache schema: %w", err)
	}

	rows, err := s.db.Query(`SELECT key, address FROM geocache`)
	if err != nil {
		return nil, fmt.Errorf("querying geocache: %w", err)
	}
	defer rows.Close()

	entries := map[string]string{}

	for rows.Next() {
		var key, address string
		if err := rows.Scan(&key, &address); err != nil {
			return nil, fmt.Errorf("scanning geocache row: %w", err)
		}

		entries[key] = address
	}

	return entries, rows.Err()
}

// Save implements Store. The table is replaced inside a single transaction.
func (s *DuckDBStore) Save(entries map[string]string) error {
	if err := s.CreateSchema(); err != nil {
		return fmt.Errorf("creating geocache schema: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if err := s.replace(tx, entries); err != nil {
		return errors.Join(err, tx.Rollback())
	}

	return tx.Commit()
}

func (s *DuckDBStore) replace(tx *sql.Tx, entries map[string]string) error {
	if _, err := tx.Exec(`DELETE FROM geocache`); err != nil {
		return fmt.Errorf("clearing geocache: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO geocache(key, address) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		if _, err := stmt.Exec(k, entries[k]); err != nil {
			return fmt.Errorf("inserting %q: %w", k, err)
		}
	}

	return nil
}
