// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"time"

	"github.com/jcodagnone/crowdmap/metrics"
)

type refreshLoop struct {
	stop chan struct{}
	done chan struct{}
}

// startRefreshLocked starts the loop unless it is running, disabled or the
// orchestrator is closed.
func (o *Orchestrator) startRefreshLocked() {
	if o.refresh != nil || o.closed || o.cfg.RefreshInterval < 0 {
		return
	}

	loop := &refreshLoop{stop: make(chan struct{}), done: make(chan struct{})}
	o.refresh = loop

	go o.runRefresh(loop, o.cfg.RefreshInterval)
}

// stopRefreshLocked signals the loop and forgets it. It must not wait: the
// loop may be blocked on o.mu.
func (o *Orchestrator) stopRefreshLocked() {
	if o.refresh == nil {
		return
	}

	close(o.refresh.stop)
	o.refresh = nil
}

func (o *Orchestrator) runRefresh(loop *refreshLoop, interval time.Duration) {
	defer close(loop.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-loop.stop:
			return
		case <-ticker.C:
			o.tick(loop)
		}
	}
}

// tick applies one refresh on behalf of loop, unless loop was stopped since
// the ticker fired.
func (o *Orchestrator) tick(loop *refreshLoop) {
	o.mu.Lock()

	if o.refresh != loop {
		o.mu.Unlock()

		return
	}

	o.tickLocked()

	var view View
	if o.cfg.OnRefresh != nil {
		view = o.viewLocked()
	}

	o.mu.Unlock()

	if o.cfg.OnRefresh != nil {
		o.cfg.OnRefresh(view)
	}
}

// Tick re-jitters the current crowd of every published place once and
// returns how many places changed value. It is what the loop runs on each
// tick; positions, names, ids, categories and the viewport are untouched and
// no resolver call is made.
func (o *Orchestrator) Tick() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.tickLocked()
}

// tickLocked draws exactly once per place. The selection holds an id, so the
// detail view reads the same value as the marker.
func (o *Orchestrator) tickLocked() int {
	changed := 0

	for _, p := range o.places {
		next := o.estimator.Refresh(p.Crowd.Baseline)
		if next != p.Crowd.Current {
			changed++
		}

		p.Crowd.Current = next
	}

	if len(o.places) > 0 {
		metrics.RefreshTicksTotal.Inc()
	}

	return changed
}

// Refreshing reports whether the live refresh loop is running.
func (o *Orchestrator) Refreshing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.refresh != nil
}
