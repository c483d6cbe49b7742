// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package recordstore exports converted records into DuckDB.
package recordstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jcodagnone/geoconv/convert"
)

// Run identifies one export.
type Run struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Records   int       `json:"records"`
}

// RecordRepository handles persistence of converted records.
type RecordRepository interface {
	// CreateSchema creates the runs and records tables
	CreateSchema() error

	// SaveRun stores records under a new run and returns it
	SaveRun(records []*convert.Record) (*Run, error)

	// ListRecords returns the records of a run in input order
	ListRecords(runID int64) ([]*convert.Record, error)

	// LatestRun returns the most recent run, sql.ErrNoRows when empty
	LatestRun() (*Run, error)
}

type sqlRecordRepository struct {
	db *sql.DB
}

// NewRecordRepository creates a new record repository.
func NewRecordRepository(db *sql.DB) RecordRepository {
	return &sqlRecordRepository{db: db}
}

func (r *sqlRecordRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS runs_seq START 1;

		CREATE TABLE IF NOT EXISTS runs (
			id BIGINT PRIMARY KEY DEFAULT nextval('runs_seq'),
			created_at TIMESTAMP NOT NULL,
			records INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS records (
			run_id BIGINT NOT NULL,
			seq INTEGER NOT NULL,
			lat DOUBLE NOT NULL,
			lng DOUBLE NOT NULL,
			x DOUBLE NOT NULL,
			y DOUBLE NOT NULL,
			reversed_lat DOUBLE NOT NULL,
			reversed_lng DOUBLE NOT NULL,
			address VARCHAR NOT NULL,
			h3_cell VARCHAR,
			PRIMARY KEY (run_id, seq)
		);
	`)

	return err
}

func (r *sqlRecordRepository) SaveRun(records []*convert.Record) (*Run, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}

	run, err := r.saveRun(tx, records)
	if err != nil {
		return nil, errors.Join(err, tx.Rollback())
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return run, nil
}

func (r *sqlRecordRepository) saveRun(tx *sql.Tx, records []*convert.Record) (*Run, error) {
	run := &Run{CreatedAt: time.Now().UTC(), Records: len(records)}

	err := tx.QueryRow(
		`INSERT INTO runs(created_at, records) VALUES (?, ?) RETURNING id`,
		run.CreatedAt, run.Records,
	).Scan(&run.ID)
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO records(
			run_id,
			seq,
			lat,
			lng,
			x,
			y,
			reversed_lat,
			reversed_lng,
			address,
			h3_cell
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	for i, rec := range records {
		var cell *string
		if rec.H3Cell != "" {
			cell = &rec.H3Cell
		}

		if _, err := stmt.Exec(
			run.ID,
			i,
			rec.Lat,
			rec.Lng,
			rec.X,
			rec.Y,
			rec.ReversedLat,
			rec.ReversedLng,
			rec.Address,
			cell,
		); err != nil {
			return nil, fmt.Errorf("inserting record %d: %w", i, err)
		}
	}

	return run, nil
}

func (r *sqlRecordRepository) ListRecords(runID int64) ([]*convert.Record, error) {
	rows, err := r.db.Query(`
		SELECT lat, lng, x, y, reversed_lat, reversed_lng, address, h3_cell
		FROM records
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*convert.Record

	for rows.Next() {
		var (
			rec  convert.Record
			cell sql.NullString
		)

		if err := rows.Scan(
			&rec.Lat,
			&rec.Lng,
			&rec.X,
			&rec.Y,
			&rec.ReversedLat,
			&rec.ReversedLng,
			&rec.Address,
			&cell,
		); err != nil {
			return nil, err
		}

		rec.H3Cell = cell.String
		records = append(records, &rec)
	}

	return records, rows.Err()
}

func (r *sqlRecordRepository) LatestRun() (*Run, error) {
	var run Run

	err := r.db.QueryRow(`
		SELECT id, created_at, records
		FROM runs
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&run.ID, &run.CreatedAt, &run.Records)
	if err != nil {
		return nil, err
	}

	return &run, nil
}
