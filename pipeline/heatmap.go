// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"fmt"
	"sort"

	"github.com/jcodagnone/crowdmap/places"
)

const (
	// DefaultHeatmapResolution is roughly a city block (~0.7 km²).
	DefaultHeatmapResolution = 8
	// MaxHeatmapResolution is the finest H3 resolution.
	MaxHeatmapResolution = 15
)

// HeatCell aggregates the places that fall into one H3 cell.
type HeatCell struct {
	Cell     string `json:"cell"`
	Places   int    `json:"places"`
	Baseline int    `json:"baseline"`
	Current  int    `json:"current"`
}

// Heatmap groups ps by H3 cell at resolution res, busiest cell first.
func Heatmap(ps []*places.Place, res int) ([]HeatCell, error) {
	if res < 0 || res > MaxHeatmapResolution {
		return nil, fmt.Errorf("resolution must be between 0 and %d (got %d)", MaxHeatmapResolution, res)
	}

	byCell := map[string]*HeatCell{}

	for _, p := range ps {
		cell, err := p.Position.Cell(res)
		if err != nil {
			return nil, fmt.Errorf("indexing %s: %w", p.ID, err)
		}

		key := cell.String()

		hc, ok := byCell[key]
		if !ok {
			hc = &HeatCell{Cell: key}
			byCell[key] = hc
		}

		hc.Places++
		hc.Baseline += p.Crowd.Baseline
		hc.Current += p.Crowd.Current
	}

	out := make([]HeatCell, 0, len(byCell))
	for _, hc := range byCell {
		out = append(out, *hc)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Current != out[j].Current {
			return out[i].Current > out[j].Current
		}

		return out[i].Cell < out[j].Cell
	})

	return out, nil
}

// Heatmap aggregates the published set.
func (o *Orchestrator) Heatmap(res int) ([]HeatCell, error) {
	return Heatmap(o.Places(), res)
}
