// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Degrees is one coordinate component as sent upstream: a JSON number or a
// numeric string. Anything else, null included, decodes as not Valid rather
// than failing the whole payload.
type Degrees struct {
	Value float64
	Valid bool
}

// Deg returns a valid Degrees.
func Deg(v float64) Degrees {
	return Degrees{Value: v, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Degrees) UnmarshalJSON(b []byte) error {
	*d = Degrees{}

	s := string(bytes.TrimSpace(b))
	if s == "null" {
		return nil
	}

	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return nil //nolint:nilerr // malformed strings mean "absent"
		}

		s = strings.TrimSpace(unquoted)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil //nolint:nilerr // non numeric values mean "absent"
	}

	*d = Deg(v)

	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Degrees) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}

	return []byte(strconv.FormatFloat(d.Value, 'f', -1, 64)), nil
}

// Identifier is an upstream place identifier sent either as a string or a number.
type Identifier string

// UnmarshalJSON implements json.Unmarshaler.
func (id *Identifier) UnmarshalJSON(b []byte) error {
	*id = ""

	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil //nolint:nilerr // unusable ids fall back to coordinates
		}

		*id = Identifier(strings.TrimSpace(s))

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*id = Identifier(n.String())
	}

	return nil
}

// Tags is an upstream category list. Scalars other than strings are kept in
// their textual form; nested values are ignored.
type Tags []string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tags) UnmarshalJSON(b []byte) error {
	*t = nil

	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return nil //nolint:nilerr // a non-list means no categories
	}

	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			*t = append(*t, s)

			continue
		}

		var n json.Number
		if err := json.Unmarshal(item, &n); err == nil {
			*t = append(*t, n.String())
		}
	}

	return nil
}

// Coordinates is a lat/lng pair where either component may be missing.
// Lon is accepted as an alias of Lng.
type Coordinates struct {
	Lat Degrees `json:"lat,omitzero"`
	Lng Degrees `json:"lng,omitzero"`
	Lon Degrees `json:"lon,omitzero"`
}

// Geometry is the Google Places shape, where the pair lives under "location".
type Geometry struct {
	Location Coordinates `json:"location"`
}

// RawRecord is one place as returned by the upstream service. Every field is
// optional and the position may be encoded directly, under "center" or under
// "geometry.location".
type RawRecord struct {
	Name     string       `json:"name"`
	PlaceID  Identifier   `json:"place_id,omitempty"`
	ID       Identifier   `json:"id,omitempty"`
	Address  string       `json:"address,omitempty"`
	Vicinity string       `json:"vicinity,omitempty"`
	Types    Tags         `json:"types,omitempty"`
	Lat      Degrees      `json:"lat,omitzero"`
	Lng      Degrees      `json:"lng,omitzero"`
	Lon      Degrees      `json:"lon,omitzero"`
	Center   *Coordinates `json:"center,omitempty"`
	Geometry *Geometry    `json:"geometry,omitempty"`
}

// Direct returns the top level coordinate fields.
func (r *RawRecord) Direct() Coordinates {
	return Coordinates{Lat: r.Lat, Lng: r.Lng, Lon: r.Lon}
}

// DisplayAddress prefers "address" and falls back to Google's "vicinity".
func (r *RawRecord) DisplayAddress() string {
	if a := strings.TrimSpace(r.Address); a != "" {
		return a
	}

	return strings.TrimSpace(r.Vicinity)
}
