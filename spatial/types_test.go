// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoint_Validate(t *testing.T) {
	assert.NoError(t, Point{Lat: 90, Lng: -180}.Validate())
	assert.ErrorIs(t, Point{Lat: 90.1}.Validate(), ErrLatitudeRange)
	assert.ErrorIs(t, Point{Lat: math.NaN()}.Validate(), ErrLatitudeRange)
	assert.ErrorIs(t, Point{Lng: 181}.Validate(), ErrLongitudeRange)
}

func TestPathLength(t *testing.T) {
	assert.Zero(t, PathLength(nil))

	// one degree of latitude is ~111.2km
	d := PathLength([]Point{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 0}, {Lat: 2, Lng: 0}})
	assert.InDelta(t, 2*111195.0, d, 100)
}

func TestPoint_Cell(t *testing.T) {
	a, err := Point{Lat: 40.0, Lng: -74.0}.Cell()
	require.NoError(t, err)

	b, err := Point{Lat: 40.00001, Lng: -74.00001}.Cell()
	require.NoError(t, err)

	assert.Len(t, a, 15)
	assert.Equal(t, a, b)
}
