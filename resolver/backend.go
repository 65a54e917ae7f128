// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// SitesPath is where the sites backend answers city queries.
const SitesPath = "/get_sites"

// APIKeyHeader carries the credential on calls to the sites backend.
const APIKeyHeader = "X-Api-Key"

// BackendResolver queries a sites backend over HTTP.
type BackendResolver struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	opts    Options
}

// NewBackendResolver validates baseURL and returns a resolver for it. A nil
// client means httputils.NewClient defaults.
func NewBackendResolver(baseURL, apiKey string, client *http.Client, opts Options) (*BackendResolver, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parsing backend URL: %w", err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("backend URL must be an absolute http(s) URL: %q", baseURL)
	}

	return &BackendResolver{
		baseURL: u,
		apiKey:  apiKey,
		client:  defaultClient(client),
		opts:    opts.WithDefaults(),
	}, nil
}

// SitesURL returns the request URL for city.
func (b *BackendResolver) SitesURL(city string) string {
	u := *b.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + SitesPath

	q := url.Values{}
	q.Set("city", city)
	q.Set("radius", strconv.Itoa(b.opts.Radius))
	q.Set("limit", strconv.Itoa(b.opts.Limit))
	u.RawQuery = q.Encode()

	return u.String()
}

// Resolve implements Resolver.
func (b *BackendResolver) Resolve(ctx context.Context, city string) (*Resolution, error) {
	header := http.Header{}
	if b.apiKey != "" {
		header.Set(APIKeyHeader, b.apiKey)
	}

	var payload SitesPayload
	if err := getJSON(ctx, b.client, b.SitesURL(city), header, &payload); err != nil {
		return nil, err
	}

	return payload.Resolution(city)
}
