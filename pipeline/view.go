// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"github.com/jcodagnone/crowdmap/crowd"
	"github.com/jcodagnone/crowdmap/places"
	"github.com/jcodagnone/crowdmap/spatial"
)

// Marker is one place as the map draws it.
type Marker struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Position     spatial.Point `json:"position"`
	Band         crowd.Band    `json:"band"`
	IconColor    string        `json:"icon_color"`
	IconURL      string        `json:"icon_url"`
	Baseline     int           `json:"baseline"`
	Current      int           `json:"current"`
	PercentDelta int           `json:"percent_delta"`
}

// Detail is the info panel of the active place.
type Detail struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Address      string        `json:"address,omitempty"`
	Position     spatial.Point `json:"position"`
	Categories   []string      `json:"categories"`
	Baseline     int           `json:"baseline"`
	Current      int           `json:"current"`
	PercentDelta int           `json:"percent_delta"`
}

// View is a consistent snapshot of everything the renderer needs.
type View struct {
	State    State    `json:"state"`
	Loading  bool     `json:"loading"`
	City     string   `json:"city,omitempty"`
	Viewport Viewport `json:"viewport"`
	Markers  []Marker `json:"markers"`
	Active   *Detail  `json:"active"`
	Message  *Message `json:"message"`
}

// NewMarker builds the marker of p.
func NewMarker(p *places.Place) Marker {
	band := p.Crowd.Band()

	return Marker{
		ID:           p.ID,
		Name:         p.Name,
		Position:     p.Position,
		Band:         band,
		IconColor:    band.Color(),
		IconURL:      band.IconURL(),
		Baseline:     p.Crowd.Baseline,
		Current:      p.Crowd.Current,
		PercentDelta: p.Crowd.PercentDelta(),
	}
}

// NewDetail builds the info panel of p.
func NewDetail(p *places.Place) *Detail {
	return &Detail{
		ID:           p.ID,
		Name:         p.Name,
		Address:      p.Address,
		Position:     p.Position,
		Categories:   p.Clone().Categories,
		Baseline:     p.Crowd.Baseline,
		Current:      p.Crowd.Current,
		PercentDelta: p.Crowd.PercentDelta(),
	}
}

// View returns a snapshot taken under the lock, so markers and the active
// detail always agree.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.viewLocked()
}

func (o *Orchestrator) viewLocked() View {
	v := View{
		State:    o.state,
		Loading:  o.state == StateResolving,
		City:     o.city,
		Viewport: o.viewport,
		Markers:  make([]Marker, len(o.places)),
	}

	for i, p := range o.places {
		v.Markers[i] = NewMarker(p)
	}

	if p := o.selectedLocked(); p != nil {
		v.Active = NewDetail(p)
	}

	if o.message != nil {
		m := *o.message
		v.Message = &m
	}

	return v
}
