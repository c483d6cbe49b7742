// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jcodagnone/geoconv/convert"
	"github.com/xuri/excelize/v2"
)

// DefaultOutputFile is where converted records are written.
const DefaultOutputFile = "converted_coordinates.csv"

// Columns of the export.
var Columns = []string{"Latitude", "Longitude", "X", "Y", "Reversed_Lat", "Reversed_Lon", "Address"}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func row(r *convert.Record) []string {
	return []string{
		formatFloat(r.Lat),
		formatFloat(r.Lng),
		formatFloat(r.X),
		formatFloat(r.Y),
		formatFloat(r.ReversedLat),
		formatFloat(r.ReversedLng),
		r.Address,
	}
}

// WriteRecords writes the header and one line per record.
func WriteRecords(w io.Writer, records []*convert.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return err
	}

	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteRecordsFile replaces the file at path with the export.
func WriteRecordsFile(path string, records []*convert.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := WriteRecords(f, records); err != nil {
		return errors.Join(fmt.Errorf("writing %s: %w", path, err), f.Close())
	}

	return f.Close()
}

// WriteXLSXFile writes the export as a single sheet workbook.
func WriteXLSXFile(path string, records []*convert.Record) error {
	const sheet = "Sheet1"

	f := excelize.NewFile()

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Join(fmt.Errorf("writing header: %w", err), f.Close())
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Join(err, f.Close())
		}

		values := []interface{}{r.Lat, r.Lng, r.X, r.Y, r.ReversedLat, r.ReversedLng, r.Address}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return errors.Join(fmt.Errorf("writing row %d: %w", i+2, err), f.Close())
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Join(fmt.Errorf("saving %s: %w", path, err), f.Close())
	}

	return f.Close()
}
