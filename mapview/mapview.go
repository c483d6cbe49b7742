// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package mapview renders converted records as a standalone Leaflet page.
package mapview

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"

	"github.com/jcodagnone/geoconv/convert"
	"github.com/jcodagnone/geoconv/spatial"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

// DefaultFile is where the map is written.
const DefaultFile = "geo_map.html"

// DefaultZoom frames a country-sized area around the centroid.
const DefaultZoom = 5

// ErrNoRecords is returned when there is nothing to put on the map.
var ErrNoRecords = errors.New("no records to render")

//go:embed map.html.tmpl
var pageTemplate string

var page = template.Must(template.New("map").Parse(pageTemplate))

type pageData struct {
	Title      string
	Records    []*convert.Record
	Center     spatial.Point
	Zoom       int
	PathLength string
}

// Renderer renders map pages.
type Renderer struct {
	Title  string
	Zoom   int
	Minify bool
	m      *minify.M
}

// NewRenderer creates a renderer with minification enabled.
func NewRenderer() *Renderer {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)
	m.AddFunc("application/javascript", js.Minify)

	return &Renderer{
		Title:  "Interactive Geospatial Converter",
		Zoom:   DefaultZoom,
		Minify: true,
		m:      m,
	}
}

// Render writes the page for records, centred on their centroid.
func (r *Renderer) Render(w io.Writer, records []*convert.Record) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	points := make([]spatial.Point, len(records))
	for i, rec := range records {
		points[i] = rec.Point()
	}

	data := pageData{
		Title:      r.Title,
		Records:    records,
		Center:     convert.Centroid(records),
		Zoom:       r.Zoom,
		PathLength: formatDistance(spatial.PathLength(points)),
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		return fmt.Errorf("executing map template: %w", err)
	}

	if !r.Minify {
		_, err := buf.WriteTo(w)

		return err
	}

	if err := r.m.Minify("text/html", w, &buf); err != nil {
		return fmt.Errorf("minifying map: %w", err)
	}

	return nil
}

// RenderFile writes the page to path.
func (r *Renderer) RenderFile(path string, records []*convert.Record) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, records); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

func formatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}

	return fmt.Sprintf("%.1f km", meters/1000)
}
