// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jcodagnone/crowdmap/places"
	"github.com/jcodagnone/crowdmap/spatial"
)

const (
	// DefaultGoogleBaseURL is the Google Maps web services root.
	DefaultGoogleBaseURL = "https://maps.googleapis.com/maps/api"
	// DefaultPageDelay is how long a next_page_token takes to become valid.
	DefaultPageDelay = 2 * time.Second

	maxNearbyPages = 3
)

// GoogleResolver geocodes the city and runs a nearby search around it,
// calling the Google Maps web services directly.
type GoogleResolver struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	opts      Options
	pageDelay time.Duration
}

// GoogleOption customizes a GoogleResolver.
type GoogleOption func(*GoogleResolver)

// WithGoogleBaseURL points the resolver somewhere else, e.g. a test server.
func WithGoogleBaseURL(u string) GoogleOption {
	return func(g *GoogleResolver) {
		g.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithPageDelay sets the wait before fetching a follow-up page.
func WithPageDelay(d time.Duration) GoogleOption {
	return func(g *GoogleResolver) {
		g.pageDelay = d
	}
}

// WithHTTPClient sets the client used for every call.
func WithHTTPClient(c *http.Client) GoogleOption {
	return func(g *GoogleResolver) {
		g.client = c
	}
}

// NewGoogleResolver creates a new Google Maps resolver.
func NewGoogleResolver(apiKey string, opts Options, options ...GoogleOption) *GoogleResolver {
	g := &GoogleResolver{
		baseURL:   DefaultGoogleBaseURL,
		apiKey:    apiKey,
		opts:      opts.WithDefaults(),
		pageDelay: DefaultPageDelay,
	}

	for _, o := range options {
		o(g)
	}

	g.client = defaultClient(g.client)

	return g
}

type googleStatus struct {
	Status       string `json:"status"` // OK, ZERO_RESULTS, OVER_QUERY_LIMIT, ...
	ErrorMessage string `json:"error_message,omitempty"`
}

type geocodeResponse struct {
	googleStatus

	Results []struct {
		Geometry struct {
			Location places.Coordinates `json:"location"`
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
}

type nearbyResponse struct {
	googleStatus

	Results       []places.RawRecord `json:"results"`
	NextPageToken string             `json:"next_page_token,omitempty"`
}

func (s googleStatus) err(op string) *ResolveError {
	re := &ResolveError{Kind: KindProtocol, Status: s.Status}

	switch s.Status {
	case "OVER_QUERY_LIMIT":
		re.Message = op + ": rate limit reached"
		re.StatusCode = http.StatusTooManyRequests
	case "REQUEST_DENIED":
		re.Message = op + ": request denied"
		re.StatusCode = http.StatusForbidden
	case "INVALID_REQUEST":
		re.Message = op + ": invalid request"
		re.StatusCode = http.StatusBadRequest
	default:
		re.Message = fmt.Sprintf("%s: google maps status %q", op, s.Status)
	}

	if s.ErrorMessage != "" {
		re.Message += " (" + s.ErrorMessage + ")"
	}

	return re
}

func (g *GoogleResolver) endpoint(path string, q url.Values) string {
	q.Set("key", g.apiKey)

	return g.baseURL + path + "?" + q.Encode()
}

// Geocode returns the location of the first geocoding result for city.
func (g *GoogleResolver) Geocode(ctx context.Context, city string) (spatial.Point, error) {
	params := url.Values{}
	params.Set("address", city)

	var resp geocodeResponse
	if err := getJSON(ctx, g.client, g.endpoint("/geocode/json", params), nil, &resp); err != nil {
		return spatial.Point{}, err
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return spatial.Point{}, notFoundError(city)
	default:
		return spatial.Point{}, resp.err("geocoding")
	}

	if len(resp.Results) == 0 {
		return spatial.Point{}, notFoundError(city)
	}

	center, ok := resp.Results[0].Geometry.Location.Point()
	if !ok {
		return spatial.Point{}, malformedError("geocoding result has no location", nil)
	}

	return center, nil
}

// Nearby returns up to the configured limit of tourist points of interest
// around center, following next_page_token. A failing follow-up page ends the
// listing with what was already collected.
func (g *GoogleResolver) Nearby(ctx context.Context, center spatial.Point) ([]places.RawRecord, error) {
	params := url.Values{}
	params.Set("location", strconv.FormatFloat(center.Lat, 'f', -1, 64)+","+strconv.FormatFloat(center.Lng, 'f', -1, 64))
	params.Set("radius", strconv.Itoa(g.opts.Radius))
	params.Set("type", "point_of_interest")
	params.Set("keyword", "tourist")

	out := []places.RawRecord{}
	token := ""

	for page := 0; page < maxNearbyPages && len(out) < g.opts.Limit; page++ {
		if page > 0 {
			if token == "" {
				break
			}

			if err := sleep(ctx, g.pageDelay); err != nil {
				return nil, transportError(err)
			}

			params = url.Values{}
			params.Set("pagetoken", token)
		}

		var resp nearbyResponse

		err := getJSON(ctx, g.client, g.endpoint("/place/nearbysearch/json", params), nil, &resp)
		if err == nil && resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
			err = resp.err("nearby search")
		}

		if err != nil {
			if page == 0 {
				return nil, err
			}

			log.Printf("nearby search page %d: %v", page+1, err)

			break
		}

		out = append(out, resp.Results...)
		token = resp.NextPageToken
	}

	if len(out) > g.opts.Limit {
		out = out[:g.opts.Limit]
	}

	return out, nil
}

// Resolve implements Resolver.
func (g *GoogleResolver) Resolve(ctx context.Context, city string) (*Resolution, error) {
	center, err := g.Geocode(ctx, city)
	if err != nil {
		return nil, err
	}

	records, err := g.Nearby(ctx, center)
	if err != nil {
		return nil, err
	}

	return &Resolution{City: city, Center: center, Places: records}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
