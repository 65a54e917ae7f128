// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointKey(t *testing.T) {
	tests := []struct {
		name  string
		point Point
		want  string
	}{
		{"short decimals", Point{Lat: 28.65, Lng: 77.24}, "28.65,77.24"},
		{"integers", Point{Lat: 10, Lng: -20}, "10,-20"},
		{"zero", Point{}, "0,0"},
		{"long decimals", Point{Lat: 28.6139, Lng: 77.209}, "28.6139,77.209"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.point.Key())
		})
	}
}

func TestPointValidate(t *testing.T) {
	tests := []struct {
		name    string
		point   Point
		wantErr bool
	}{
		{"delhi", Point{Lat: 28.6139, Lng: 77.209}, false},
		{"null island", Point{}, false},
		{"north pole", Point{Lat: 90, Lng: 180}, false},
		{"latitude too high", Point{Lat: 91, Lng: 0}, true},
		{"latitude too low", Point{Lat: -91, Lng: 0}, true},
		{"longitude too high", Point{Lat: 0, Lng: 181}, true},
		{"longitude too low", Point{Lat: 0, Lng: -181}, true},
		{"nan latitude", Point{Lat: math.NaN(), Lng: 0}, true},
		{"infinite longitude", Point{Lat: 0, Lng: math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.point.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCoordinates)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHaversineDistance(t *testing.T) {
	redFort := Point{Lat: 28.6562, Lng: 77.2410}
	indiaGate := Point{Lat: 28.6129, Lng: 77.2295}

	d := redFort.HaversineDistance(indiaGate)
	assert.InDelta(t, 4940, d, 100)
	assert.Zero(t, redFort.HaversineDistance(redFort))
	assert.InDelta(t, d, indiaGate.HaversineDistance(redFort), 1e-6)
}

func TestCell(t *testing.T) {
	p := Point{Lat: 28.65, Lng: 77.24}

	a, err := p.Cell(8)
	require.NoError(t, err)

	again, err := p.Cell(8)
	require.NoError(t, err)
	assert.Equal(t, a, again)

	mumbai, err := Point{Lat: 19.076, Lng: 72.8777}.Cell(8)
	require.NoError(t, err)
	assert.NotEqual(t, a, mumbai)
	assert.NotEmpty(t, a.String())

	_, err = p.Cell(16)
	assert.Error(t, err)

	_, err = p.Cell(-1)
	assert.Error(t, err)
}
