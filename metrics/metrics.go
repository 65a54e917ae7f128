// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics holds the Prometheus collectors of the process.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

var (
	ResolverRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crowdmap_resolver_requests_total",
		Help: "Total city resolutions by resolver",
	}, []string{"resolver"})
	ResolverFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crowdmap_resolver_fail_total",
		Help: "Total failed city resolutions by resolver and failure kind",
	}, []string{"resolver", "kind"})
	ResolverDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crowdmap_resolver_duration_ms",
		Help:    "City resolution duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"resolver"})
	SearchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crowdmap_searches_total",
		Help: "Total searches by outcome",
	}, []string{"outcome"})
	NormalizedRecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crowdmap_normalized_records_total",
		Help: "Raw records seen by the normalizer, by result",
	}, []string{"result"})
	RefreshTicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crowdmap_refresh_ticks_total",
		Help: "Total live refresh ticks applied",
	})
	// PublishedPlaces assumes one orchestrator per process: every
	// publication overwrites it.
	PublishedPlaces = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "crowdmap_published_places",
		Help: "Number of places published by the last search of the process",
	})
	SitesRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crowdmap_sites_requests_total",
		Help: "Total /get_sites requests by status code",
	}, []string{"code"})
)

func init() {
	prometheus.MustRegister(ResolverRequestsTotal)
	prometheus.MustRegister(ResolverFailTotal)
	prometheus.MustRegister(ResolverDurationMs)
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(NormalizedRecordsTotal)
	prometheus.MustRegister(RefreshTicksTotal)
	prometheus.MustRegister(PublishedPlaces)
	prometheus.MustRegister(SitesRequestsTotal)
}

// Handler exposes the registered collectors.
func Handler() http.Handler { return promhttp.Handler() }
