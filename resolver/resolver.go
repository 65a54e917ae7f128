// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package resolver turns a city query into a center coordinate plus the raw
// records of the places around it. Every implementation performs a single
// logical call and never retries.
package resolver

import (
	"context"
	"time"

	"github.com/jcodagnone/crowdmap/metrics"
	"github.com/jcodagnone/crowdmap/places"
	"github.com/jcodagnone/crowdmap/spatial"
)

const (
	// DefaultRadius is the search radius in meters.
	DefaultRadius = 20000
	// DefaultLimit is the maximum number of places requested.
	DefaultLimit = 50
	// MaxLimit is what the nearby search can return across all its pages.
	MaxLimit = 60
)

// Resolution is the successful result of resolving a city.
type Resolution struct {
	City   string
	Center spatial.Point
	Places []places.RawRecord
}

// Resolver resolves a city name.
type Resolver interface {
	Resolve(ctx context.Context, city string) (*Resolution, error)
}

// Options are the search parameters shared by the network resolvers.
type Options struct {
	Radius int
	Limit  int
}

// WithDefaults fills zero values and clamps the limit to 1..MaxLimit.
func (o Options) WithDefaults() Options {
	if o.Radius <= 0 {
		o.Radius = DefaultRadius
	}

	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}

	o.Limit = min(o.Limit, MaxLimit)

	return o
}

type instrumented struct {
	name string
	next Resolver
}

// Instrument records request count, failures by kind and latency of next
// under the given resolver label.
func Instrument(name string, next Resolver) Resolver {
	return &instrumented{name: name, next: next}
}

func (i *instrumented) Resolve(ctx context.Context, city string) (*Resolution, error) {
	metrics.ResolverRequestsTotal.WithLabelValues(i.name).Inc()

	start := time.Now()
	res, err := i.next.Resolve(ctx, city)

	metrics.ResolverDurationMs.WithLabelValues(i.name).Observe(float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.ResolverFailTotal.WithLabelValues(i.name, KindOf(err).String()).Inc()
	}

	return res, err
}
