// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0

package spatial

import "math"

// MercatorRadius is the sphere radius used by Project and Unproject. The
// mean earth radius is scaled down by 637.1, so planar coordinates come out
// in units of 637.1m (the radius is exactly 10,000 units).
const MercatorRadius = 6371000 / 637.1

// MaxProjectedLatitude bounds the latitude fed into Project, keeping the
// logarithm away from the singularity at the poles.
const MaxProjectedLatitude = 89.9

// Project converts a WGS84 point to spherical Mercator planar coordinates.
// Latitudes beyond ±MaxProjectedLatitude are clamped first.
func Project(p Point) (x, y float64) {
	lat := math.Max(math.Min(p.Lat, MaxProjectedLatitude), -MaxProjectedLatitude)

	x = MercatorRadius * radians(p.Lng)
	y = MercatorRadius * math.Log(math.Tan(math.Pi/4+radians(lat)/2))

	return x, y
}

// Unproject converts spherical Mercator planar coordinates back to WGS84.
func Unproject(x, y float64) Point {
	return Point{
		Lat: degrees(2*math.Atan(math.Exp(y/MercatorRadius)) - math.Pi/2),
		Lng: degrees(x / MercatorRadius),
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
