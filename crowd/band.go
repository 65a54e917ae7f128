// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package crowd

import (
	"fmt"
	"strings"
)

// Band buckets a percent delta for marker coloring.
type Band int

const (
	// BandNormal is within ±20% of the baseline, boundaries included.
	BandNormal Band = iota
	// BandLow is more than 20% below the baseline.
	BandLow
	// BandHigh is more than 20% above the baseline.
	BandHigh
)

const bandThreshold = 20

const iconBaseURL = "https://maps.google.com/mapfiles/ms/icons/"

// ColorBand maps a percent delta to its band.
func ColorBand(percentDelta int) Band {
	switch {
	case percentDelta > bandThreshold:
		return BandHigh
	case percentDelta < -bandThreshold:
		return BandLow
	default:
		return BandNormal
	}
}

func (b Band) String() string {
	switch b {
	case BandLow:
		return "low"
	case BandHigh:
		return "high"
	default:
		return "normal"
	}
}

// Color is the marker color for the band.
func (b Band) Color() string {
	switch b {
	case BandLow:
		return "blue"
	case BandHigh:
		return "red"
	default:
		return "orange"
	}
}

// IconURL is the stock map pin for the band's color.
func (b Band) IconURL() string {
	return iconBaseURL + b.Color() + "-dot.png"
}

// MarshalText implements encoding.TextMarshaler.
func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Band) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "low":
		*b = BandLow
	case "normal":
		*b = BandNormal
	case "high":
		*b = BandHigh
	default:
		return fmt.Errorf("unknown crowd band %q", text)
	}

	return nil
}
