// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcodagnone/crowdmap/places"
	"github.com/jcodagnone/crowdmap/spatial"
)

type fakeGoogle struct {
	geocode     string
	pages       map[string]string // pagetoken ("" for the first page) to body
	nearbyCalls atomic.Int32
	lastNearby  atomic.Value
}

func (f *fakeGoogle) handler(t *testing.T) http.Handler {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/geocode/json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(f.geocode))
	})
	mux.HandleFunc("/place/nearbysearch/json", func(w http.ResponseWriter, r *http.Request) {
		f.nearbyCalls.Add(1)
		f.lastNearby.Store(r.URL.Query())
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		body, ok := f.pages[r.URL.Query().Get("pagetoken")]
		if !ok {
			body = `{"status": "INVALID_REQUEST"}`
		}

		_, _ = w.Write([]byte(body))
	})

	return mux
}

func newGoogle(t *testing.T, f *fakeGoogle, opts Options) *GoogleResolver {
	t.Helper()

	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	return NewGoogleResolver("test-key", opts,
		WithGoogleBaseURL(srv.URL+"/"),
		WithHTTPClient(srv.Client()),
		WithPageDelay(0),
	)
}

func nearbyPage(t *testing.T, next string, names ...string) string {
	t.Helper()

	resp := nearbyResponse{googleStatus: googleStatus{Status: "OK"}, NextPageToken: next}
	for i, n := range names {
		resp.Results = append(resp.Results, places.RawRecord{
			Name:     n,
			PlaceID:  places.Identifier(fmt.Sprintf("%s-%d", next, i)),
			Vicinity: n + " Road",
			Types:    places.Tags{"tourist_attraction"},
			Geometry: &places.Geometry{Location: places.Coordinates{Lat: places.Deg(28.6 + float64(i)/100), Lng: places.Deg(77.2)}},
		})
	}

	b, err := json.Marshal(resp)
	require.NoError(t, err)

	return string(b)
}

const delhiGeocode = `{"status": "OK", "results": [{"formatted_address": "Delhi, India", "geometry": {"location": {"lat": 28.7041, "lng": 77.1025}}}]}`

func TestGoogleResolve(t *testing.T) {
	f := &fakeGoogle{
		geocode: delhiGeocode,
		pages: map[string]string{
			"":   nearbyPage(t, "t2", "Red Fort", "India Gate"),
			"t2": nearbyPage(t, "", "Qutub Minar"),
		},
	}
	g := newGoogle(t, f, Options{})

	res, err := g.Resolve(context.Background(), "Delhi")
	require.NoError(t, err)

	assert.Equal(t, spatial.Point{Lat: 28.7041, Lng: 77.1025}, res.Center)
	require.Len(t, res.Places, 3)
	assert.Equal(t, "Qutub Minar", res.Places[2].Name)
	assert.Equal(t, "Red Fort Road", res.Places[0].DisplayAddress())
	assert.Equal(t, int32(2), f.nearbyCalls.Load())

	p, enc, ok := places.ExtractPosition(&res.Places[0])
	require.True(t, ok)
	assert.Equal(t, places.EncodingGeometry, enc)
	assert.InDelta(t, 28.6, p.Lat, 1e-9)
}

func TestGoogleNearbyParameters(t *testing.T) {
	f := &fakeGoogle{pages: map[string]string{"": nearbyPage(t, "")}}
	g := newGoogle(t, f, Options{Radius: 1500})

	out, err := g.Nearby(context.Background(), spatial.Point{Lat: 28.6139, Lng: 77.209})
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)

	q := f.lastNearby.Load().(url.Values)
	assert.Equal(t, []string{"28.6139,77.209"}, q["location"])
	assert.Equal(t, []string{"1500"}, q["radius"])
	assert.Equal(t, []string{"point_of_interest"}, q["type"])
	assert.Equal(t, []string{"tourist"}, q["keyword"])
}

func TestGoogleNearbyLimit(t *testing.T) {
	f := &fakeGoogle{
		geocode: delhiGeocode,
		pages: map[string]string{
			"":   nearbyPage(t, "t2", "a", "b", "c"),
			"t2": nearbyPage(t, "t3", "d", "e", "f"),
		},
	}
	g := newGoogle(t, f, Options{Limit: 2})

	out, err := g.Nearby(context.Background(), spatial.Point{})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, int32(1), f.nearbyCalls.Load(), "limit reached on the first page")
}

func TestGoogleFollowUpPageFailure(t *testing.T) {
	f := &fakeGoogle{
		pages: map[string]string{
			"": nearbyPage(t, "expired", "a", "b"),
		},
	}
	g := newGoogle(t, f, Options{})

	out, err := g.Nearby(context.Background(), spatial.Point{})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, int32(2), f.nearbyCalls.Load())
}

func TestGoogleFailures(t *testing.T) {
	tests := []struct {
		name      string
		geocode   string
		nearby    string
		kind      Kind
		notFound  bool
		rateLimit bool
	}{
		{
			name:     "zero results",
			geocode:  `{"status": "ZERO_RESULTS", "results": []}`,
			kind:     KindProtocol,
			notFound: true,
		},
		{
			name:      "over query limit",
			geocode:   `{"status": "OVER_QUERY_LIMIT", "error_message": "slow down"}`,
			kind:      KindProtocol,
			rateLimit: true,
		},
		{
			name:    "denied",
			geocode: `{"status": "REQUEST_DENIED"}`,
			kind:    KindProtocol,
		},
		{
			name:    "geocode without location",
			geocode: `{"status": "OK", "results": [{"geometry": {}}]}`,
			kind:    KindMalformedPayload,
		},
		{
			name:    "nearby denied",
			geocode: delhiGeocode,
			nearby:  `{"status": "REQUEST_DENIED"}`,
			kind:    KindProtocol,
		},
		{
			name:    "nearby garbage",
			geocode: delhiGeocode,
			nearby:  `not json`,
			kind:    KindMalformedPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeGoogle{geocode: tt.geocode, pages: map[string]string{"": tt.nearby}}
			g := newGoogle(t, f, Options{})

			_, err := g.Resolve(context.Background(), "Atlantis")
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, tt.notFound, IsNotFound(err))
			assert.Equal(t, tt.rateLimit, IsRateLimited(err))
		})
	}
}

func TestGoogleErrorMessage(t *testing.T) {
	re := googleStatus{Status: "OVER_QUERY_LIMIT", ErrorMessage: "slow down"}.err("geocoding")
	assert.Equal(t, "geocoding: rate limit reached (slow down)", re.Error())
	assert.Equal(t, http.StatusTooManyRequests, re.StatusCode)
}
