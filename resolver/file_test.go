// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcodagnone/crowdmap/places"
	"github.com/jcodagnone/crowdmap/spatial"
)

func TestFileResolver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"Delhi": {"lat": 28.6139, "lon": 77.209, "places": [{"name": "Red Fort", "lat": 28.6562, "lng": 77.241}]},
		"São Paulo": {"latitude": -23.55, "longitude": -46.63},
		"Broken": {"places": []}
	}`), 0o600))

	f, err := LoadFileResolver(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"broken", "delhi", "sao paulo"}, f.Cities())

	res, err := f.Resolve(context.Background(), "  DELHI ")
	require.NoError(t, err)
	assert.Equal(t, spatial.Point{Lat: 28.6139, Lng: 77.209}, res.Center)
	require.Len(t, res.Places, 1)
	assert.Equal(t, "Red Fort", res.Places[0].Name)

	res, err = f.Resolve(context.Background(), "sao paulo")
	require.NoError(t, err)
	assert.Empty(t, res.Places)

	_, err = f.Resolve(context.Background(), "Atlantis")
	assert.True(t, IsNotFound(err))
	assert.True(t, IsProtocol(err))

	_, err = f.Resolve(context.Background(), "broken")
	assert.True(t, IsMalformedPayload(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.Resolve(ctx, "delhi")
	assert.True(t, IsTransport(err))
}

func TestLoadFileResolverErrors(t *testing.T) {
	_, err := LoadFileResolver(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1, 2]`), 0o600))

	_, err = LoadFileResolver(path)
	assert.Error(t, err)
}

func TestSitesPayloadRoundTrip(t *testing.T) {
	center := spatial.Point{Lat: 28.6139, Lng: 77.209}
	records := []places.RawRecord{{Name: "Red Fort", Lat: places.Deg(28.6562), Lon: places.Deg(77.241)}}

	b, err := json.Marshal(NewSitesPayload("Delhi", center, records))
	require.NoError(t, err)
	assert.JSONEq(t, `{"city": "Delhi", "lat": 28.6139, "lon": 77.209, "places": [{"name": "Red Fort", "lat": 28.6562, "lon": 77.241}]}`, string(b))

	var back SitesPayload
	require.NoError(t, json.Unmarshal(b, &back))

	res, err := back.Resolution("delhi")
	require.NoError(t, err)
	assert.Equal(t, "Delhi", res.City)
	assert.Equal(t, center, res.Center)
	assert.Len(t, res.Places, 1)

	b, err = json.Marshal(NewSitesPayload("Nowhere", spatial.Point{}, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"city": "Nowhere", "lat": 0, "lon": 0, "places": []}`, string(b))
}

func TestOptionsWithDefaults(t *testing.T) {
	assert.Equal(t, Options{Radius: DefaultRadius, Limit: DefaultLimit}, Options{}.WithDefaults())
	assert.Equal(t, Options{Radius: 500, Limit: MaxLimit}, Options{Radius: 500, Limit: 100}.WithDefaults())
}
