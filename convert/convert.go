// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package convert turns raw coordinate rows into enriched records.
package convert

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/jcodagnone/geoconv/geocache"
	"github.com/jcodagnone/geoconv/spatial"
)

// Addresses used when no lookup result is available.
const (
	DisabledAddress   = "Address lookup disabled"
	UnresolvedAddress = geocache.ErrorAddress
)

// ErrNoValidRecords is returned when no row survives validation.
var ErrNoValidRecords = errors.New("no valid coordinates to convert")

// RawRow is an unparsed coordinate pair as read from a source.
type RawRow struct {
	Line int
	Lat  string
	Lng  string
}

// Record is a converted coordinate.
type Record struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	ReversedLat float64 `json:"reversed_lat"`
	ReversedLng float64 `json:"reversed_lng"`
	Address     string  `json:"address"`
	H3Cell      string  `json:"h3_cell,omitempty"`
}

// Point returns the original coordinate.
func (r *Record) Point() spatial.Point {
	return spatial.Point{Lat: r.Lat, Lng: r.Lng}
}

// Parse validates a raw row.
func (r RawRow) Parse() (spatial.Point, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(r.Lat), 64)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("invalid latitude %q: %w", r.Lat, err)
	}

	lng, err := strconv.ParseFloat(strings.TrimSpace(r.Lng), 64)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("invalid longitude %q: %w", r.Lng, err)
	}

	p := spatial.Point{Lat: lat, Lng: lng}
	if err := p.Validate(); err != nil {
		return spatial.Point{}, err
	}

	return p, nil
}

// Points returns the valid coordinates of rows, silently dropping the rest.
func Points(rows []RawRow) []spatial.Point {
	points := make([]spatial.Point, 0, len(rows))

	for _, row := range rows {
		if p, err := row.Parse(); err == nil {
			points = append(points, p)
		}
	}

	return points
}

// Converter projects rows and attaches addresses.
type Converter struct {
	// cache is nil when address lookup is disabled
	cache *geocache.Cache
}

// NewConverter creates a converter. A nil cache disables address lookup.
func NewConverter(cache *geocache.Cache) *Converter {
	return &Converter{cache: cache}
}

// Convert returns one record per valid row, in input order. Invalid rows
// are logged and skipped.
func (c *Converter) Convert(rows []RawRow) ([]*Record, error) {
	records := make([]*Record, 0, len(rows))

	for _, row := range rows {
		p, err := row.Parse()
		if err != nil {
			log.Printf("⚠️  Skipping invalid row %d (%s, %s): %v", row.Line, row.Lat, row.Lng, err)

			continue
		}

		records = append(records, c.record(p))
	}

	if len(records) == 0 {
		return nil, ErrNoValidRecords
	}

	return records, nil
}

func (c *Converter) record(p spatial.Point) *Record {
	x, y := spatial.Project(p)
	reversed := spatial.Unproject(x, y)

	address := DisabledAddress
	if c.cache != nil {
		address = UnresolvedAddress
		if cached, ok := c.cache.Get(spatial.KeyOf(p)); ok {
			address = cached
		}
	}

	cell, err := p.Cell()
	if err != nil {
		log.Printf("⚠️  %v", err)
	}

	return &Record{
		Lat:         p.Lat,
		Lng:         p.Lng,
		X:           x,
		Y:           y,
		ReversedLat: reversed.Lat,
		ReversedLng: reversed.Lng,
		Address:     address,
		H3Cell:      cell,
	}
}

// Centroid returns the mean latitude and longitude of records.
func Centroid(records []*Record) spatial.Point {
	if len(records) == 0 {
		return spatial.Point{}
	}

	var lat, lng float64

	for _, r := range records {
		lat += r.Lat
		lng += r.Lng
	}

	n := float64(len(records))

	return spatial.Point{Lat: lat / n, Lng: lng / n}
}
