// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package crowd derives the synthetic crowd level shown for a place: a stable
// baseline computed from the place name and a jittered current value that
// drifts around it.
package crowd

// Hash folds the code points of s left to right with h = h*31 + c, wrapping
// at 32 bits. The empty string hashes to 0.
//
// The result is only used to spread baselines over a plausible range; it is
// not suitable for deduplication or anything security related.
func Hash(s string) uint32 {
	var h uint32

	for _, r := range s {
		h = h*31 + uint32(r)
	}

	return h
}
