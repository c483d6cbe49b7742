// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocache

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/jcodagnone/geoconv/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(c *Cache) {
	c.Set(spatial.KeyOf(spatial.Point{Lat: 40.7128, Lng: -74.006}), "New York, United States")
	c.Set(spatial.KeyOf(spatial.Point{Lat: -34.9011, Lng: -56.1645}), "Montevideo, Uruguay")
	c.Set(spatial.KeyOf(spatial.Point{Lat: 0, Lng: 0}), "Error: timeout")
}

func TestCache_JSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	c := New(NewJSONFileStore(path))
	fill(c)
	c.Save()

	fresh := Open(NewJSONFileStore(path))
	if diff := cmp.Diff(c.Entries(), fresh.Entries()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	addr, ok := fresh.Get(spatial.KeyOf(spatial.Point{Lat: 40.71281, Lng: -74.00601}))
	assert.True(t, ok)
	assert.Equal(t, "New York, United States", addr)
}

func TestCache_ReadsLegacyFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geo_cache.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"40.0000,-74.0000": "Somewhere"}`), 0o600))

	c := Open(NewJSONFileStore(path))

	addr, ok := c.Get(spatial.Key{Lat: 400000, Lng: -740000})
	assert.True(t, ok)
	assert.Equal(t, "Somewhere", addr)
}

func TestCache_LoadToleratesFailures(t *testing.T) {
	dir := t.TempDir()

	c := Open(NewJSONFileStore(filepath.Join(dir, "missing.json")))
	assert.Equal(t, 0, c.Len())

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{not json"), 0o600))

	c = Open(NewJSONFileStore(corrupt))
	assert.Equal(t, 0, c.Len())

	// the cache remains usable
	c.Set(spatial.Key{Lat: 1, Lng: 1}, "x")
	assert.Equal(t, 1, c.Len())
}

func TestCache_SaveFailureIsNotFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "cache.json")

	c := New(NewJSONFileStore(path))
	fill(c)

	assert.NotPanics(t, c.Close)
	assert.Equal(t, 3, c.Len())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestCache_SetOverwrites(t *testing.T) {
	c := New(NewJSONFileStore(filepath.Join(t.TempDir(), "c.json")))
	k := spatial.Key{Lat: 10, Lng: 20}

	c.Set(k, "Error: timeout")
	c.Set(k, "Main St")

	addr, _ := c.Get(k)
	assert.Equal(t, "Main St", addr)
	assert.Equal(t, 1, c.Len())
}

func TestCache_DuckDBRoundTrip(t *testing.T) {
	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	defer db.Close()

	// a single connection keeps the in-memory database alive between calls
	db.SetMaxOpenConns(1)

	store := NewDuckDBStore(db, "memory")

	empty := Open(store)
	assert.Equal(t, 0, empty.Len())

	c := New(store)
	fill(c)
	c.Save()

	// saving twice replaces rather than duplicates
	c.Save()

	fresh := Open(store)
	if diff := cmp.Diff(c.Entries(), fresh.Entries()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM geocache").Scan(&count))
	assert.Equal(t, 3, count)
}

func TestCache_Stats(t *testing.T) {
	c := New(NewJSONFileStore(filepath.Join(t.TempDir(), "c.json")))
	fill(c)
	c.Set(spatial.Key{Lat: 5, Lng: 5}, NotFoundAddress)

	assert.Equal(t, Stats{Entries: 4, NotFound: 1, Errors: 1}, c.Stats())
}
