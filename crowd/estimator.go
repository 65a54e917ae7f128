// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package crowd

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
)

const (
	// MinBaseline is the lowest baseline Baseline can return.
	MinBaseline = 60
	// MaxBaseline is the highest baseline Baseline can return.
	MaxBaseline = MinBaseline + baselineSpan - 1

	baselineSpan = 141
)

// Range is a half-open multiplier interval [Min, Max).
type Range struct {
	Min float64
	Max float64
}

func (r Range) String() string {
	return fmt.Sprintf("[%.2f, %.2f)", r.Min, r.Max)
}

var (
	// InitialRange is applied once, when a place is normalized from a fresh fetch.
	InitialRange = Range{Min: 0.90, Max: 1.30}
	// RefreshRange is applied on every live refresh tick.
	RefreshRange = Range{Min: 0.75, Max: 1.25}
)

// Level is the crowd estimate attached to a place.
type Level struct {
	Baseline int `json:"baseline"`
	Current  int `json:"current"`
}

// PercentDelta is the rounded percentage of Current over Baseline.
func (l Level) PercentDelta() int {
	return PercentDelta(l.Baseline, l.Current)
}

// Band classifies the level for marker coloring.
func (l Level) Band() Band {
	return ColorBand(l.PercentDelta())
}

// Baseline returns the nominal crowd level for a place name, in
// [MinBaseline, MaxBaseline]. The empty name is valid and yields MinBaseline.
func Baseline(name string) int {
	return MinBaseline + int(Hash(name)%baselineSpan)
}

// PercentDelta returns round(((current - baseline) / baseline) * 100).
// A non-positive baseline yields 0.
func PercentDelta(baseline, current int) int {
	if baseline <= 0 {
		return 0
	}

	return roundHalfUp(float64(current-baseline) / float64(baseline) * 100)
}

// roundHalfUp rounds ties toward positive infinity, so -2.5 becomes -2.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Estimator produces jittered crowd values. It is safe for concurrent use.
type Estimator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	initial Range
	refresh Range
}

// EstimatorOption customizes an Estimator.
type EstimatorOption func(*Estimator)

// WithSource makes the estimator draw from src, which tests use to get
// reproducible values.
func WithSource(src rand.Source) EstimatorOption {
	return func(e *Estimator) {
		e.rng = rand.New(src)
	}
}

// WithRanges overrides the initial and refresh multiplier ranges.
func WithRanges(initial, refresh Range) EstimatorOption {
	return func(e *Estimator) {
		e.initial = initial
		e.refresh = refresh
	}
}

// NewEstimator returns an estimator seeded from the runtime's random source.
func NewEstimator(opts ...EstimatorOption) *Estimator {
	e := &Estimator{
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		initial: InitialRange,
		refresh: RefreshRange,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// InitialRange returns the range used by Estimate.
func (e *Estimator) InitialRange() Range {
	return e.initial
}

// RefreshRange returns the range used by Refresh.
func (e *Estimator) RefreshRange() Range {
	return e.refresh
}

// Jitter returns round(baseline * m) for a multiplier m drawn uniformly from r.
// The result is never negative.
func (e *Estimator) Jitter(baseline int, r Range) int {
	e.mu.Lock()
	f := e.rng.Float64()
	e.mu.Unlock()

	m := r.Min + f*(r.Max-r.Min)

	v := roundHalfUp(float64(baseline) * m)
	if v < 0 {
		return 0
	}

	return v
}

// Estimate returns the baseline for name and an initial current value.
func (e *Estimator) Estimate(name string) Level {
	baseline := Baseline(name)

	return Level{
		Baseline: baseline,
		Current:  e.Jitter(baseline, e.initial),
	}
}

// Refresh returns a new current value around baseline for a live tick.
func (e *Estimator) Refresh(baseline int) int {
	return e.Jitter(baseline, e.refresh)
}
