// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"github.com/jcodagnone/crowdmap/spatial"
)

// Encoding names where a record's position was found.
type Encoding int

const (
	// EncodingNone means no complete, valid pair was found.
	EncodingNone Encoding = iota
	// EncodingDirect is top level lat/lng.
	EncodingDirect
	// EncodingCenter is center.lat/center.lng.
	EncodingCenter
	// EncodingGeometry is geometry.location.lat/lng.
	EncodingGeometry
)

func (e Encoding) String() string {
	switch e {
	case EncodingDirect:
		return "direct"
	case EncodingCenter:
		return "center"
	case EncodingGeometry:
		return "geometry"
	default:
		return "none"
	}
}

// Point returns the pair when both components are present and in range.
func (c Coordinates) Point() (spatial.Point, bool) {
	lng := c.Lng
	if !lng.Valid {
		lng = c.Lon
	}

	if !c.Lat.Valid || !lng.Valid {
		return spatial.Point{}, false
	}

	p := spatial.Point{Lat: c.Lat.Value, Lng: lng.Value}
	if p.Validate() != nil {
		return spatial.Point{}, false
	}

	return p, true
}

type positionStrategy struct {
	encoding Encoding
	pair     func(*RawRecord) (Coordinates, bool)
}

// positionStrategies are tried in priority order; the first complete pair wins.
var positionStrategies = []positionStrategy{
	{
		encoding: EncodingDirect,
		pair: func(r *RawRecord) (Coordinates, bool) {
			return r.Direct(), true
		},
	},
	{
		encoding: EncodingCenter,
		pair: func(r *RawRecord) (Coordinates, bool) {
			if r.Center == nil {
				return Coordinates{}, false
			}

			return *r.Center, true
		},
	},
	{
		encoding: EncodingGeometry,
		pair: func(r *RawRecord) (Coordinates, bool) {
			if r.Geometry == nil {
				return Coordinates{}, false
			}

			return r.Geometry.Location, true
		},
	},
}

// ExtractPosition returns the first complete coordinate pair of r, trying the
// direct fields, then "center", then "geometry.location". Components are
// never mixed across encodings.
func ExtractPosition(r *RawRecord) (spatial.Point, Encoding, bool) {
	for _, s := range positionStrategies {
		c, ok := s.pair(r)
		if !ok {
			continue
		}

		if p, ok := c.Point(); ok {
			return p, s.encoding, true
		}
	}

	return spatial.Point{}, EncodingNone, false
}
