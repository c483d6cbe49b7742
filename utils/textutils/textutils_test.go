// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package textutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowerAsciiFolding(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello world"},
		{"  Spaces  ", "spaces"},
		{"Áéíóú", "aeiou"},
		{"Ñandú", "nandu"},
		{"Crème Brûlée", "creme brulee"},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, LowerASCIIFolding(tc.input))
		})
	}
}

func TestFindColumn(t *testing.T) {
	tests := []struct {
		name     string
		headers  []string
		substr   string
		expected int
	}{
		{"plain", []string{"latitude", "longitude"}, "lat", 0},
		{"upper", []string{"ID", "LAT", "LON"}, "lon", 2},
		{"accents", []string{"Latitúd", "Longitúd"}, "lon", 1},
		{"bom", []string{"\ufeffLatitude", "Longitude"}, "lat", 0},
		{"first match wins", []string{"lat", "lat2"}, "lat", 0},
		{"missing", []string{"x", "y"}, "lat", -1},
		{"empty", nil, "lat", -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FindColumn(tc.headers, tc.substr))
		})
	}
}

func TestFormatInt(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0"},
		{1, "1"},
		{123, "123"},
		{1234, "1,234"},
		{1234567, "1,234,567"},
		{-1, "-1"},
		{-1234, "-1,234"},
		{-1234567, "-1,234,567"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatInt(tc.input))
		})
	}
}
