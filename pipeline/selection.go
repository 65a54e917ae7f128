// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"fmt"

	"github.com/jcodagnone/crowdmap/places"
)

// Select makes id the active place. Ids outside the published set are
// rejected and leave the selection as it was.
func (o *Orchestrator) Select(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.index[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPlace, id)
	}

	o.selected = id

	return nil
}

// ClearSelection drops the active place, if any.
func (o *Orchestrator) ClearSelection() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.selected = ""
}

// MapClick handles a click on the map background.
func (o *Orchestrator) MapClick() {
	o.ClearSelection()
}

// Selected returns a copy of the active place.
func (o *Orchestrator) Selected() (*places.Place, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	p := o.selectedLocked()
	if p == nil {
		return nil, false
	}

	return p.Clone(), true
}

// selectedLocked resolves the selection against the published set. A
// dangling id reads as no selection.
func (o *Orchestrator) selectedLocked() *places.Place {
	if o.selected == "" {
		return nil
	}

	i, ok := o.index[o.selected]
	if !ok {
		return nil
	}

	return o.places[i]
}
