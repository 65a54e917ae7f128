// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline owns the published place set: it sequences city
// resolution, normalization and crowd estimation, keeps the selection
// consistent and drives the live refresh of crowd levels.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jcodagnone/crowdmap/crowd"
	"github.com/jcodagnone/crowdmap/metrics"
	"github.com/jcodagnone/crowdmap/places"
	"github.com/jcodagnone/crowdmap/resolver"
	"github.com/jcodagnone/crowdmap/spatial"
)

// ErrUnknownPlace is returned when selecting an id that is not published.
var ErrUnknownPlace = errors.New("unknown place")

const (
	DefaultCity            = "Delhi"
	DefaultRefreshInterval = 4500 * time.Millisecond
	DefaultZoom            = 12
)

// DefaultCenter is shown until the first city resolves.
var DefaultCenter = spatial.Point{Lat: 28.6139, Lng: 77.2090}

// Config configures an Orchestrator. Zero values take the defaults.
type Config struct {
	DefaultCity string
	// RefreshInterval is the live refresh period; negative disables the loop.
	RefreshInterval time.Duration
	Zoom            int
	Center          *spatial.Point
	// ExcludedCategories replaces places.DefaultExcludedCategories when non-nil.
	ExcludedCategories []string
	Estimator          *crowd.Estimator
	// OnRefresh, when set, receives the view after every refresh tick. It is
	// called outside the orchestrator lock.
	OnRefresh func(View)
}

// Orchestrator is safe for concurrent use. Resolver calls run without the
// lock held; every state change happens under it. The process wide metrics
// expect a single orchestrator per process.
type Orchestrator struct {
	resolver   resolver.Resolver
	normalizer *places.Normalizer
	estimator  *crowd.Estimator
	cfg        Config

	mu       sync.Mutex
	seq      uint64
	state    State
	city     string
	places   []*places.Place
	index    map[string]int
	viewport Viewport
	selected string
	message  *Message
	refresh  *refreshLoop
	closed   bool
}

// New returns an idle orchestrator with nothing published.
func New(r resolver.Resolver, cfg Config) *Orchestrator {
	if cfg.DefaultCity == "" {
		cfg.DefaultCity = DefaultCity
	}

	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}

	if cfg.Zoom == 0 {
		cfg.Zoom = DefaultZoom
	}

	center := DefaultCenter
	if cfg.Center != nil {
		center = *cfg.Center
	}

	if cfg.Estimator == nil {
		cfg.Estimator = crowd.NewEstimator()
	}

	return &Orchestrator{
		resolver:   r,
		normalizer: places.NewNormalizer(cfg.Estimator, cfg.ExcludedCategories),
		estimator:  cfg.Estimator,
		cfg:        cfg,
		index:      map[string]int{},
		viewport:   Viewport{Center: center, Zoom: cfg.Zoom},
	}
}

// LoadDefault searches the configured default city.
func (o *Orchestrator) LoadDefault(ctx context.Context) (Outcome, error) {
	return o.Search(ctx, o.cfg.DefaultCity)
}

// Search resolves query and, unless a newer search was issued meanwhile,
// publishes the result. Blank queries are ignored. Repeated queries are
// fresh requests. On failure the published places and viewport are kept and
// the returned error carries the cause.
func (o *Orchestrator) Search(ctx context.Context, query string) (Outcome, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		metrics.SearchesTotal.WithLabelValues(OutcomeIgnored.String()).Inc()

		return OutcomeIgnored, nil
	}

	o.mu.Lock()
	o.seq++
	seq := o.seq
	o.state = StateResolving
	o.message = nil
	o.selected = ""
	o.mu.Unlock()

	res, err := o.resolver.Resolve(ctx, query)

	outcome, err := o.complete(seq, query, res, err)
	metrics.SearchesTotal.WithLabelValues(outcome.String()).Inc()

	return outcome, err
}

func (o *Orchestrator) complete(seq uint64, query string, res *resolver.Resolution, err error) (Outcome, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if seq != o.seq {
		log.Printf("Discarding stale result for %q (request %d, latest %d)", query, seq, o.seq)

		return OutcomeSuperseded, nil
	}

	if err != nil {
		o.state = StateFailed
		o.message = &Message{Kind: MessageError, Text: BusyText}
		log.Printf("Search %q failed (%s): %v", query, resolver.KindOf(err), err)
		o.state = StateIdle

		return OutcomeFailed, fmt.Errorf("resolving %q: %w", query, err)
	}

	o.state = StatePublishing

	list, stats := o.normalizer.Normalize(res.Places)
	recordStats(stats)

	o.city = res.City
	o.publishLocked(list, res.Center)
	o.state = StateIdle

	log.Printf("Published %d places for %q (%d records, %d without position, %d excluded, %d duplicates)",
		stats.Published, res.City, stats.Input, stats.NoPosition, stats.Excluded, stats.Duplicates)

	if len(list) == 0 {
		o.message = &Message{Kind: MessageInfo, Text: NoResultsText}

		return OutcomeEmpty, nil
	}

	return OutcomePublished, nil
}

// publishLocked replaces the whole place set. Selection never survives a
// replacement because ids are not stable across fetches.
func (o *Orchestrator) publishLocked(list []*places.Place, center spatial.Point) {
	o.places = list
	o.index = make(map[string]int, len(list))

	for i, p := range list {
		o.index[p.ID] = i
	}

	o.viewport = Viewport{Center: center, Zoom: o.cfg.Zoom}
	o.selected = ""

	metrics.PublishedPlaces.Set(float64(len(list)))

	if len(list) > 0 {
		o.startRefreshLocked()
	} else {
		o.stopRefreshLocked()
	}
}

func recordStats(s places.Stats) {
	metrics.NormalizedRecordsTotal.WithLabelValues("published").Add(float64(s.Published))
	metrics.NormalizedRecordsTotal.WithLabelValues(places.DroppedNoPosition.String()).Add(float64(s.NoPosition))
	metrics.NormalizedRecordsTotal.WithLabelValues(places.DroppedExcluded.String()).Add(float64(s.Excluded))
	metrics.NormalizedRecordsTotal.WithLabelValues(places.DroppedDuplicate.String()).Add(float64(s.Duplicates))
}

// Places returns a copy of the published set.
func (o *Orchestrator) Places() []*places.Place {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]*places.Place, len(o.places))
	for i, p := range o.places {
		out[i] = p.Clone()
	}

	return out
}

// Viewport returns the current viewport.
func (o *Orchestrator) Viewport() Viewport {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.viewport
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state
}

// Close stops the refresh loop and waits for it to exit. Later publications
// do not restart it.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	loop := o.refresh
	o.stopRefreshLocked()
	o.mu.Unlock()

	if loop != nil {
		<-loop.done
	}
}
