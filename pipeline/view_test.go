// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcodagnone/crowdmap/crowd"
	"github.com/jcodagnone/crowdmap/places"
	"github.com/jcodagnone/crowdmap/spatial"
)

func place(id string, lat, lng float64, baseline, current int) *places.Place {
	return &places.Place{
		ID:         id,
		Name:       id,
		Position:   spatial.Point{Lat: lat, Lng: lng},
		Categories: []string{},
		Crowd:      crowd.Level{Baseline: baseline, Current: current},
	}
}

func TestViewJSON(t *testing.T) {
	o := newTestOrchestrator(t, newFakeResolver(), Config{})

	b, err := json.Marshal(o.View())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"state": "idle",
		"loading": false,
		"viewport": {"center": {"lat": 28.6139, "lng": 77.209}, "zoom": 12},
		"markers": [],
		"active": null,
		"message": null
	}`, string(b))
}

func TestMarkerAndDetail(t *testing.T) {
	p := place("x", 1, 2, 100, 125)
	p.Address = "Rajpath"

	m := NewMarker(p)
	assert.Equal(t, 25, m.PercentDelta)
	assert.Equal(t, crowd.BandHigh, m.Band)
	assert.Equal(t, "red", m.IconColor)
	assert.Equal(t, "https://maps.google.com/mapfiles/ms/icons/red-dot.png", m.IconURL)

	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"band":"high"`)

	d := NewDetail(p)
	assert.Equal(t, &Detail{
		ID:           "x",
		Name:         "x",
		Address:      "Rajpath",
		Position:     spatial.Point{Lat: 1, Lng: 2},
		Categories:   []string{},
		Baseline:     100,
		Current:      125,
		PercentDelta: 25,
	}, d)
}

func TestHeatmap(t *testing.T) {
	ps := []*places.Place{
		place("a", 28.6562, 77.2410, 100, 110),
		place("b", 28.6562, 77.2410, 80, 90),
		place("c", 19.0760, 72.8777, 150, 300),
	}

	cells, err := Heatmap(ps, DefaultHeatmapResolution)
	require.NoError(t, err)
	require.Len(t, cells, 2)

	assert.Equal(t, 1, cells[0].Places)
	assert.Equal(t, 300, cells[0].Current)
	assert.Equal(t, 2, cells[1].Places)
	assert.Equal(t, 180, cells[1].Baseline)
	assert.Equal(t, 200, cells[1].Current)
	assert.NotEmpty(t, cells[0].Cell)

	_, err = Heatmap(ps, MaxHeatmapResolution+1)
	assert.Error(t, err)

	cells, err = Heatmap(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, cells)
}

func TestClusterPlaces(t *testing.T) {
	ps := []*places.Place{
		place("red-fort", 28.6562, 77.2410, 100, 100),
		place("gateway", 18.9220, 72.8347, 50, 60),
		place("chandni-chowk", 28.6506, 77.2334, 80, 70), // ~1 km from red-fort
		place("jama-masjid", 28.6507, 77.2334, 90, 95),
	}

	clusters := ClusterPlaces(ps, 500)
	require.Len(t, clusters, 3)
	assert.Equal(t, []string{"red-fort"}, clusters[0].PlaceIDs)
	assert.Equal(t, []string{"gateway"}, clusters[1].PlaceIDs)
	assert.Equal(t, []string{"chandni-chowk", "jama-masjid"}, clusters[2].PlaceIDs)
	assert.Equal(t, 170, clusters[2].Baseline)
	assert.InDelta(t, 28.65065, clusters[2].Center.Lat, 1e-9)

	clusters = ClusterPlaces(ps, 2000)
	require.Len(t, clusters, 2)
	assert.Equal(t, []string{"red-fort", "chandni-chowk", "jama-masjid"}, clusters[0].PlaceIDs)

	assert.Empty(t, ClusterPlaces(nil, 500))
}

func TestClusterPlacesFollowsChains(t *testing.T) {
	// ~400 m steps along a meridian: a-c and c-b are linked, a-b is ~800 m.
	a := place("a", 0, 10, 100, 100)
	c := place("c", 0.0036, 10, 100, 100)
	b := place("b", 0.0072, 10, 100, 100)

	tests := []struct {
		name  string
		input []*places.Place
		want  [][]string
	}{
		{"far place first", []*places.Place{a, b, c}, [][]string{{"a", "c", "b"}}},
		{"far place last", []*places.Place{a, c, b}, [][]string{{"a", "c", "b"}}},
		{"middle place last", []*places.Place{b, a, c}, [][]string{{"b", "c", "a"}}},
		{"broken chain", []*places.Place{a, b}, [][]string{{"a"}, {"b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got [][]string
			for _, cl := range ClusterPlaces(tt.input, 500) {
				got = append(got, cl.PlaceIDs)
			}

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrchestratorReadModels(t *testing.T) {
	o := newTestOrchestrator(t, newFakeResolver(), Config{})

	_, err := o.Search(context.Background(), "Delhi")
	require.NoError(t, err)

	cells, err := o.Heatmap(DefaultHeatmapResolution)
	require.NoError(t, err)
	assert.Len(t, cells, 2)

	assert.Len(t, o.Clusters(DefaultClusterDistance), 2)
	assert.Len(t, o.Clusters(10000), 1)
}
