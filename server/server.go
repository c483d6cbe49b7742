// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes stored conversion runs over HTTP.
package server

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/geoconv/geocache"
	"github.com/jcodagnone/geoconv/mapview"
	"github.com/jcodagnone/geoconv/recordstore"
)

// DefaultAddr only listens on the loopback interface.
const DefaultAddr = "localhost:8080"

const shutdownTimeout = 5 * time.Second

type Server struct {
	repo     recordstore.RecordRepository
	cache    *geocache.Cache
	renderer *mapview.Renderer
}

// NewServer creates a server for the given repository. cache may be nil.
func NewServer(repo recordstore.RecordRepository, cache *geocache.Cache, renderer *mapview.Renderer) *Server {
	if renderer == nil {
		renderer = mapview.NewRenderer()
	}

	return &Server{
		repo:     repo,
		cache:    cache,
		renderer: renderer,
	}
}

// Handler returns the router with every route registered.
func (s *Server) Handler() *gin.Engine {
	r := gin.Default()

	r.GET("/", s.mapView)
	r.GET("/api/runs/latest", s.getLatestRun)
	r.GET("/api/records", s.listRecords)
	r.GET("/api/cache/stats", s.getCacheStats)

	return r
}

// Run serves until ctx is done, then shuts the server down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// runID resolves the run query parameter, defaulting to the latest run.
func (s *Server) runID(ctx *gin.Context) (int64, bool) {
	if v := ctx.Query("run"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid run parameter"})

			return 0, false
		}

		return id, true
	}

	run, err := s.repo.LatestRun()
	if errors.Is(err, sql.ErrNoRows) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no runs stored"})

		return 0, false
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return 0, false
	}

	return run.ID, true
}

func (s *Server) mapView(ctx *gin.Context) {
	id, ok := s.runID(ctx)
	if !ok {
		return
	}

	records, err := s.repo.ListRecords(id)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, records); err != nil {
		if errors.Is(err, mapview.ErrNoRecords) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

			return
		}

		log.Printf("rendering map for run %d: %v", id, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render map"})

		return
	}

	ctx.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) getLatestRun(ctx *gin.Context) {
	run, err := s.repo.LatestRun()
	if errors.Is(err, sql.ErrNoRows) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no runs stored"})

		return
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, run)
}

func (s *Server) listRecords(ctx *gin.Context) {
	id, ok := s.runID(ctx)
	if !ok {
		return
	}

	records, err := s.repo.ListRecords(id)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"run": id, "records": records})
}

func (s *Server) getCacheStats(ctx *gin.Context) {
	if s.cache == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no cache configured"})

		return
	}

	ctx.JSON(http.StatusOK, s.cache.Stats())
}
