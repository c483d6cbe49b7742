// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProject_KnownPoint(t *testing.T) {
	x, y := Project(Point{Lat: 40.0, Lng: -74.0})

	wantX := MercatorRadius * (-74.0 * math.Pi / 180)
	wantY := MercatorRadius * math.Log(math.Tan(math.Pi/4+(40.0*math.Pi/180)/2))

	assert.InDelta(t, wantX, x, 1e-9)
	assert.InDelta(t, wantY, y, 1e-9)
	assert.InDelta(t, 10000.0, MercatorRadius, 1e-9)
}

func TestProject_RoundTrip(t *testing.T) {
	for lat := -89.9; lat <= 89.9; lat += 0.7 {
		for lng := -180.0; lng <= 180.0; lng += 7.5 {
			p := Unproject(Project(Point{Lat: lat, Lng: lng}))

			if math.Abs(p.Lat-lat) > 1e-6 || math.Abs(p.Lng-lng) > 1e-6 {
				t.Fatalf("round trip of (%v, %v) gave (%v, %v)", lat, lng, p.Lat, p.Lng)
			}
		}
	}

	for _, lat := range []float64{-89.9, 89.9, 0} {
		p := Unproject(Project(Point{Lat: lat, Lng: 180}))
		assert.InDelta(t, lat, p.Lat, 1e-6)
		assert.InDelta(t, 180.0, p.Lng, 1e-6)
	}
}

func TestProject_ClampsPoles(t *testing.T) {
	tests := []struct {
		name  string
		lat   float64
		clamp float64
	}{
		{"north pole", 90, MaxProjectedLatitude},
		{"beyond north", 95, MaxProjectedLatitude},
		{"south pole", -90, -MaxProjectedLatitude},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, y := Project(Point{Lat: test.lat})
			_, want := Project(Point{Lat: test.clamp})

			assert.False(t, math.IsInf(y, 0))
			assert.False(t, math.IsNaN(y))
			assert.Equal(t, want, y)
		})
	}
}
