// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package csvio reads coordinate sources and writes converted records.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jcodagnone/geoconv/convert"
	"github.com/jcodagnone/geoconv/spatial"
	"github.com/jcodagnone/geoconv/utils/textutils"
)

// DefaultInputFile is the coordinate source used by the commands.
const DefaultInputFile = "coordinates.csv"

// Source errors.
var (
	ErrNoCoordinateSource = errors.New("coordinates file not found, create it or use interactive input")
	ErrMissingColumns     = errors.New("latitude/longitude columns not found")
)

// ReadCoordinatesFile reads the coordinate rows of the CSV file at path.
func ReadCoordinatesFile(path string) ([]convert.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoCoordinateSource, path)
		}

		return nil, fmt.Errorf("opening coordinates file: %w", err)
	}
	defer f.Close()

	return ReadCoordinates(f)
}

// ReadCoordinates reads a CSV with a header row. The first columns whose
// folded name contains "lat" and "lon" hold the coordinates; other columns
// are ignored.
func ReadCoordinates(r io.Reader) ([]convert.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingColumns
		}

		return nil, fmt.Errorf("reading header: %w", err)
	}

	latCol := textutils.FindColumn(headers, "lat")
	lonCol := textutils.FindColumn(headers, "lon")

	if latCol < 0 || lonCol < 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingColumns, headers)
	}

	var rows []convert.RawRow

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}

		row := convert.RawRow{Line: line}
		if latCol < len(record) {
			row.Lat = record[latCol]
		}

		if lonCol < len(record) {
			row.Lng = record[lonCol]
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// AppendCoordinates appends points to the CSV file at path, writing the
// latitude,longitude header when the file does not exist yet.
func AppendCoordinates(path string, points []spatial.Point) error {
	_, err := os.Stat(path)
	isNew := errors.Is(err, os.ErrNotExist)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening coordinates file: %w", err)
	}

	w := csv.NewWriter(f)

	if isNew {
		if err := w.Write([]string{"latitude", "longitude"}); err != nil {
			return errors.Join(err, f.Close())
		}
	}

	for _, p := range points {
		if err := w.Write([]string{formatFloat(p.Lat), formatFloat(p.Lng)}); err != nil {
			return errors.Join(err, f.Close())
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return errors.Join(fmt.Errorf("writing coordinates: %w", err), f.Close())
	}

	return f.Close()
}
