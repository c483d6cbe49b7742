// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/geoconv/convert"
	"github.com/jcodagnone/geoconv/geocache"
	"github.com/jcodagnone/geoconv/recordstore"
	"github.com/jcodagnone/geoconv/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServerTest(t *testing.T) (*gin.Engine, recordstore.RecordRepository, *geocache.Cache) {
	gin.SetMode(gin.TestMode)

	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	db.SetMaxOpenConns(1)

	repo := recordstore.NewRecordRepository(db)
	require.NoError(t, repo.CreateSchema())

	cache := geocache.New(geocache.NewJSONFileStore(filepath.Join(t.TempDir(), "cache.json")))

	return NewServer(repo, cache, nil).Handler(), repo, cache
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	return w
}

var testRecords = []*convert.Record{
	{Lat: -34.9011, Lng: -56.1645, Address: "Montevideo, Uruguay"},
	{Lat: -34.4626, Lng: -57.8398, Address: "Colonia, Uruguay"},
}

func TestServer_EmptyRepository(t *testing.T) {
	router, _, _ := setupServerTest(t)

	for _, path := range []string{"/", "/api/runs/latest", "/api/records"} {
		w := get(router, path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestServer_ListRecords(t *testing.T) {
	router, repo, _ := setupServerTest(t)

	first, err := repo.SaveRun(testRecords)
	require.NoError(t, err)

	second, err := repo.SaveRun(testRecords[:1])
	require.NoError(t, err)

	var resp struct {
		Run     int64             `json:"run"`
		Records []*convert.Record `json:"records"`
	}

	w := get(router, "/api/records")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, second.ID, resp.Run)
	assert.Len(t, resp.Records, 1)

	w = get(router, "/api/records?run="+strconv.FormatInt(first.ID, 10))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, first.ID, resp.Run)
	require.Len(t, resp.Records, 2)
	assert.Equal(t, "Colonia, Uruguay", resp.Records[1].Address)

	w = get(router, "/api/records?run=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_LatestRun(t *testing.T) {
	router, repo, _ := setupServerTest(t)

	saved, err := repo.SaveRun(testRecords)
	require.NoError(t, err)

	var run recordstore.Run

	w := get(router, "/api/runs/latest")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, saved.ID, run.ID)
	assert.Equal(t, 2, run.Records)
}

func TestServer_MapView(t *testing.T) {
	router, repo, _ := setupServerTest(t)

	_, err := repo.SaveRun(testRecords)
	require.NoError(t, err)

	w := get(router, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "leaflet")
	assert.Contains(t, w.Body.String(), "Colonia, Uruguay")
}

func TestServer_CacheStats(t *testing.T) {
	router, _, cache := setupServerTest(t)

	cache.Set(spatial.Key{Lat: 1, Lng: 1}, "Somewhere")
	cache.Set(spatial.Key{Lat: 2, Lng: 2}, geocache.NotFoundAddress)

	var stats geocache.Stats

	w := get(router, "/api/cache/stats")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, geocache.Stats{Entries: 2, NotFound: 1}, stats)
}

func TestServer_RunStopsWhenContextEnds(t *testing.T) {
	_, repo, cache := setupServerTest(t)
	srv := NewServer(repo, cache, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- srv.Run(ctx, "127.0.0.1:0")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after the context was cancelled")
	}
}
