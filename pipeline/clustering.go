// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"github.com/jcodagnone/crowdmap/places"
	"github.com/jcodagnone/crowdmap/spatial"
)

// DefaultClusterDistance is the clustering threshold in meters.
const DefaultClusterDistance = 500

// Cluster is a group of nearby places drawn as a single marker.
type Cluster struct {
	Center   spatial.Point `json:"center"`
	PlaceIDs []string      `json:"place_ids"`
	Baseline int           `json:"baseline"`
	Current  int           `json:"current"`
}

// ClusterPlaces groups places linked by chains of neighbours at most
// distanceThreshold meters apart. Clusters are ordered by their first place
// in the input and members by discovery order.
func ClusterPlaces(ps []*places.Place, distanceThreshold float64) []Cluster {
	groups := make([][]*places.Place, 0, len(ps))

	visited := make([]bool, len(ps))

	for i := range ps {
		if visited[i] {
			continue
		}

		visited[i] = true
		group := []*places.Place{ps[i]}

		// group doubles as the worklist
		for k := 0; k < len(group); k++ {
			member := group[k]

			for j, p := range ps {
				if visited[j] || p.Position.HaversineDistance(member.Position) > distanceThreshold {
					continue
				}

				visited[j] = true
				group = append(group, p)
			}
		}

		groups = append(groups, group)
	}

	out := make([]Cluster, len(groups))

	for i, group := range groups {
		c := Cluster{PlaceIDs: make([]string, len(group))}

		for k, p := range group {
			c.PlaceIDs[k] = p.ID
			c.Center.Lat += p.Position.Lat
			c.Center.Lng += p.Position.Lng
			c.Baseline += p.Crowd.Baseline
			c.Current += p.Crowd.Current
		}

		c.Center.Lat /= float64(len(group))
		c.Center.Lng /= float64(len(group))
		out[i] = c
	}

	return out
}

// Clusters groups the published set.
func (o *Orchestrator) Clusters(distanceThreshold float64) []Cluster {
	return ClusterPlaces(o.Places(), distanceThreshold)
}
