// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package convert

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jcodagnone/geoconv/geocache"
	"github.com/jcodagnone/geoconv/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverter_LookupDisabled(t *testing.T) {
	records, err := NewConverter(nil).Convert([]RawRow{{Line: 2, Lat: "40.0", Lng: "-74.0"}})
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := math.Pi / 180
	expected := &Record{
		Lat:         40.0,
		Lng:         -74.0,
		X:           10000 * -74.0 * r,
		Y:           10000 * math.Log(math.Tan(math.Pi/4+40.0*r/2)),
		ReversedLat: 40.0,
		ReversedLng: -74.0,
		Address:     DisabledAddress,
	}

	if diff := cmp.Diff(expected, records[0],
		cmpopts.EquateApprox(0, 1e-9),
		cmpopts.IgnoreFields(Record{}, "H3Cell"),
	); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	assert.NotEmpty(t, records[0].H3Cell)
}

func TestConverter_UsesCache(t *testing.T) {
	cache := geocache.New(geocache.NewJSONFileStore(filepath.Join(t.TempDir(), "c.json")))
	cache.Set(spatial.KeyOf(spatial.Point{Lat: 40.7128, Lng: -74.006}), "New York")

	records, err := NewConverter(cache).Convert([]RawRow{
		{Line: 2, Lat: "40.71281", Lng: "-74.00604"},
		{Line: 3, Lat: "10", Lng: "10"},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "New York", records[0].Address)
	assert.Equal(t, UnresolvedAddress, records[1].Address)
}

func TestConverter_SkipsInvalidRows(t *testing.T) {
	rows := []RawRow{
		{Line: 2, Lat: "40.0", Lng: "-74.0"},
		{Line: 3, Lat: "north", Lng: "-74.0"},
		{Line: 4, Lat: "91", Lng: "0"},
		{Line: 5, Lat: "0", Lng: "-180.5"},
		{Line: 6, Lat: "", Lng: ""},
		{Line: 7, Lat: " -34.9 ", Lng: " -56.16 "},
	}

	records, err := NewConverter(nil).Convert(rows)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.LessOrEqual(t, len(records), len(rows))
	assert.Equal(t, -34.9, records[1].Lat)
	assert.Len(t, Points(rows), 2)
}

func TestConverter_NoValidRecords(t *testing.T) {
	_, err := NewConverter(nil).Convert([]RawRow{{Line: 2, Lat: "x", Lng: "y"}})
	assert.ErrorIs(t, err, ErrNoValidRecords)

	_, err = NewConverter(nil).Convert(nil)
	assert.ErrorIs(t, err, ErrNoValidRecords)
}

func TestConverter_PolarRowsAreClampedNotDropped(t *testing.T) {
	records, err := NewConverter(nil).Convert([]RawRow{{Line: 2, Lat: "90", Lng: "0"}})
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.False(t, math.IsInf(records[0].Y, 0))
	assert.InDelta(t, 89.9, records[0].ReversedLat, 1e-6)
}

func TestCentroid(t *testing.T) {
	c := Centroid([]*Record{{Lat: 10, Lng: 20}, {Lat: 20, Lng: 40}})
	assert.Equal(t, spatial.Point{Lat: 15, Lng: 30}, c)

	assert.Equal(t, spatial.Point{}, Centroid(nil))
}
