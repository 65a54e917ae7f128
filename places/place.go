// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package places turns heterogeneous upstream place records into the
// canonical Place published to the map.
package places

import (
	"slices"

	"github.com/jcodagnone/crowdmap/crowd"
	"github.com/jcodagnone/crowdmap/spatial"
)

// Place is a normalized point of interest. Only Crowd.Current changes after
// normalization.
type Place struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Position   spatial.Point `json:"position"`
	Address    string        `json:"address,omitempty"`
	Categories []string      `json:"categories"`
	Crowd      crowd.Level   `json:"crowd"`
}

// Clone returns a deep copy.
func (p *Place) Clone() *Place {
	c := *p
	c.Categories = slices.Clone(p.Categories)

	if c.Categories == nil {
		c.Categories = []string{}
	}

	return &c
}

// HasCategory reports whether the place carries the (already folded) tag.
func (p *Place) HasCategory(tag string) bool {
	return slices.Contains(p.Categories, tag)
}
