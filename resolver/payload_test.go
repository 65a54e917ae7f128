// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jcodagnone/crowdmap/places"
)

func TestFlattenRecords(t *testing.T) {
	in := []places.RawRecord{
		{
			Name:     "Red Fort",
			PlaceID:  "rf",
			Vicinity: "Netaji Subhash Marg",
			Types:    places.Tags{"museum"},
			Geometry: &places.Geometry{Location: places.Coordinates{Lat: places.Deg(28.6562), Lng: places.Deg(77.241)}},
		},
		{
			Name:   "Chandni Chowk",
			ID:     "cc",
			Center: &places.Coordinates{Lat: places.Deg(28.6506), Lon: places.Deg(77.2303)},
		},
		{
			Name:     "India Gate",
			PlaceID:  "ig",
			Address:  "Rajpath",
			Vicinity: "Kartavya Path",
			Lat:      places.Deg(28.6129),
			Lng:      places.Deg(77.2295),
		},
		{Name: "Half", Lat: places.Deg(28.6)},
	}

	want := []places.RawRecord{
		{Name: "Red Fort", PlaceID: "rf", Address: "Netaji Subhash Marg", Types: places.Tags{"museum"}, Lat: places.Deg(28.6562), Lon: places.Deg(77.241)},
		{Name: "Chandni Chowk", PlaceID: "cc", Lat: places.Deg(28.6506), Lon: places.Deg(77.2303)},
		{Name: "India Gate", PlaceID: "ig", Address: "Rajpath", Lat: places.Deg(28.6129), Lon: places.Deg(77.2295)},
	}

	if diff := cmp.Diff(want, FlattenRecords(in)); diff != "" {
		t.Errorf("FlattenRecords() mismatch (-want +got):\n%s", diff)
	}

	if got := FlattenRecords(nil); got == nil || len(got) != 0 {
		t.Errorf("FlattenRecords(nil) = %#v, want empty slice", got)
	}
}
