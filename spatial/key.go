// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// keyScale is 10^keyDecimals.
const (
	keyDecimals = 4
	keyScale    = 10000
)

// Key identifies a coordinate rounded to four decimals (~11m at the
// equator). Both components are stored scaled by 10,000 so equality does
// not depend on float formatting.
type Key struct {
	Lat int64
	Lng int64
}

// KeyOf rounds p half away from zero at four decimals.
func KeyOf(p Point) Key {
	return Key{
		Lat: int64(math.Round(p.Lat * keyScale)),
		Lng: int64(math.Round(p.Lng * keyScale)),
	}
}

// Point returns the rounded coordinate the key stands for.
func (k Key) Point() Point {
	return Point{
		Lat: float64(k.Lat) / keyScale,
		Lng: float64(k.Lng) / keyScale,
	}
}

// String renders the persisted form, e.g. "40.7128,-74.0060".
func (k Key) String() string {
	return formatScaled(k.Lat) + "," + formatScaled(k.Lng)
}

func formatScaled(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	return fmt.Sprintf("%s%d.%0*d", sign, v/keyScale, keyDecimals, v%keyScale)
}

// ParseKey parses the output of Key.String.
func ParseKey(s string) (Key, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return Key{}, fmt.Errorf("invalid key %q: missing comma", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return Key{}, fmt.Errorf("invalid key %q: %w", s, err)
	}

	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return Key{}, fmt.Errorf("invalid key %q: %w", s, err)
	}

	return KeyOf(Point{Lat: lat, Lng: lng}), nil
}
