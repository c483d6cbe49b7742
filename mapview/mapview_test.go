// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package mapview

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jcodagnone/geoconv/convert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func testRecords() []*convert.Record {
	return []*convert.Record{
		{Lat: 40, Lng: -74, X: -12915.6, Y: 4865.7, ReversedLat: 40, ReversedLng: -74, Address: "Main St <b>1</b>", H3Cell: "882a100d25fffff"},
		{Lat: 42, Lng: -72, Address: "Elm St"},
	}
}

// walk returns the nodes satisfying match in document order.
func walk(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	if match(n) {
		found = append(found, n)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		found = append(found, walk(c, match)...)
	}

	return found
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}

	return ""
}

func render(t *testing.T, minify bool) *html.Node {
	t.Helper()

	r := NewRenderer()
	r.Minify = minify

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, testRecords()))

	doc, err := html.Parse(&buf)
	require.NoError(t, err)

	return doc
}

func TestRender(t *testing.T) {
	for _, minify := range []bool{false, true} {
		doc := render(t, minify)

		titles := walk(doc, func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == "title" })
		require.Len(t, titles, 1)
		assert.Equal(t, "Interactive Geospatial Converter", titles[0].FirstChild.Data)

		maps := walk(doc, func(n *html.Node) bool { return n.Type == html.ElementNode && attr(n, "id") == "map" })
		require.Len(t, maps, 1)
		assert.Equal(t, "2", attr(maps[0], "data-records"))

		var script string

		for _, s := range walk(doc, func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == "script" }) {
			if s.FirstChild != nil && strings.Contains(s.FirstChild.Data, "featureGroup") {
				script = s.FirstChild.Data
			}
		}

		require.NotEmpty(t, script, "inline map script not found")
		assert.Contains(t, script, "Elm St")
		assert.Contains(t, script, "882a100d25fffff")
		assert.Contains(t, script, "3D Terrain")

		if !minify {
			// addresses are data, never markup
			assert.NotContains(t, script, "<b>1</b>")
		}
	}
}

func TestRender_NoRecords(t *testing.T) {
	err := NewRenderer().Render(&bytes.Buffer{}, nil)
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestRenderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, NewRenderer().RenderFile(path, testRecords()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "leaflet")
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "950 m", formatDistance(950))
	assert.Equal(t, "12.3 km", formatDistance(12345))
}
