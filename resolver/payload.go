// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"strings"

	"github.com/jcodagnone/crowdmap/places"
	"github.com/jcodagnone/crowdmap/spatial"
)

// SitesPayload is the body served by /get_sites. The center may come as
// lat/lng, lat/lon or latitude/longitude.
type SitesPayload struct {
	City      string             `json:"city,omitempty"`
	Lat       places.Degrees     `json:"lat,omitzero"`
	Latitude  places.Degrees     `json:"latitude,omitzero"`
	Lng       places.Degrees     `json:"lng,omitzero"`
	Lon       places.Degrees     `json:"lon,omitzero"`
	Longitude places.Degrees     `json:"longitude,omitzero"`
	Places    []places.RawRecord `json:"places"`
	Error     string             `json:"error,omitempty"`
}

// NewSitesPayload builds the payload served for a resolved city.
func NewSitesPayload(city string, center spatial.Point, records []places.RawRecord) *SitesPayload {
	if records == nil {
		records = []places.RawRecord{}
	}

	return &SitesPayload{
		City:   city,
		Lat:    places.Deg(center.Lat),
		Lon:    places.Deg(center.Lng),
		Places: records,
	}
}

// Center returns the resolved center when a complete, valid pair is present.
func (p *SitesPayload) Center() (spatial.Point, bool) {
	lat := firstValid(p.Lat, p.Latitude)
	lng := firstValid(p.Lng, p.Lon, p.Longitude)

	if !lat.Valid || !lng.Valid {
		return spatial.Point{}, false
	}

	c := spatial.Point{Lat: lat.Value, Lng: lng.Value}
	if c.Validate() != nil {
		return spatial.Point{}, false
	}

	return c, true
}

// Resolution converts the payload, reporting upstream errors and missing
// centers as failures. A missing place list is an empty result.
func (p *SitesPayload) Resolution(query string) (*Resolution, error) {
	if msg := strings.TrimSpace(p.Error); msg != "" {
		re := &ResolveError{Kind: KindProtocol, Message: msg}
		if strings.Contains(strings.ToLower(msg), "not found") {
			re.Err = ErrCityNotFound
		}

		return nil, re
	}

	center, ok := p.Center()
	if !ok {
		return nil, malformedError("payload has no center coordinate", nil)
	}

	city := p.City
	if city == "" {
		city = query
	}

	records := p.Places
	if records == nil {
		records = []places.RawRecord{}
	}

	return &Resolution{City: city, Center: center, Places: records}, nil
}

// FlattenRecords rewrites records in the flat sites shape: top level lat/lon,
// "address" taken from "vicinity" when needed and "place_id" falling back to
// "id". Records without a usable position are dropped.
func FlattenRecords(records []places.RawRecord) []places.RawRecord {
	out := make([]places.RawRecord, 0, len(records))

	for i := range records {
		r := &records[i]

		pos, _, ok := places.ExtractPosition(r)
		if !ok {
			continue
		}

		id := r.PlaceID
		if id == "" {
			id = r.ID
		}

		out = append(out, places.RawRecord{
			Name:    r.Name,
			PlaceID: id,
			Address: r.DisplayAddress(),
			Types:   r.Types,
			Lat:     places.Deg(pos.Lat),
			Lon:     places.Deg(pos.Lng),
		})
	}

	return out
}

func firstValid(ds ...places.Degrees) places.Degrees {
	for _, d := range ds {
		if d.Valid {
			return d
		}
	}

	return places.Degrees{}
}
