// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocoding resolves coordinates into addresses.
package geocoding

import (
	"context"
	"errors"

	"github.com/jcodagnone/geoconv/spatial"
)

// ErrNotFound is returned by providers when the coordinate has no address.
var ErrNotFound = errors.New("address not found")

// Result represents a reverse geocoding result from any provider.
type Result struct {
	Address  string
	Provider string
}

// ReverseGeocoder interface for different geocoding providers.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, p spatial.Point) (*Result, error)
	Name() string
}
