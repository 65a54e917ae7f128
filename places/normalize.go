// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"github.com/jcodagnone/crowdmap/crowd"
	"github.com/jcodagnone/crowdmap/spatial"
	"github.com/jcodagnone/crowdmap/utils/textutils"
)

// DefaultExcludedCategories are the worship related categories never published.
var DefaultExcludedCategories = []string{
	"place_of_worship",
	"temple",
	"hindu_temple",
	"church",
	"mosque",
	"synagogue",
	"gurdwara",
	"gurudwara",
}

// DropReason tells why a record did not make it into the published set.
type DropReason int

const (
	// Kept means the record was not dropped.
	Kept DropReason = iota
	// DroppedNoPosition means no coordinate encoding had a complete pair.
	DroppedNoPosition
	// DroppedExcluded means a category matched the exclusion set.
	DroppedExcluded
	// DroppedDuplicate means an earlier record had the same identifier.
	DroppedDuplicate
)

func (r DropReason) String() string {
	switch r {
	case DroppedNoPosition:
		return "no_position"
	case DroppedExcluded:
		return "excluded"
	case DroppedDuplicate:
		return "duplicate"
	default:
		return "kept"
	}
}

// Exclusion is a set of folded category tags.
type Exclusion map[string]struct{}

// NewExclusion builds an exclusion set; tags are folded like categories are.
func NewExclusion(tags ...string) Exclusion {
	e := make(Exclusion, len(tags))

	for _, t := range tags {
		if t = textutils.LowerASCIIFolding(t); t != "" {
			e[t] = struct{}{}
		}
	}

	return e
}

// Matches reports whether any of the normalized categories is excluded.
func (e Exclusion) Matches(categories []string) bool {
	for _, c := range categories {
		if _, ok := e[c]; ok {
			return true
		}
	}

	return false
}

// NormalizeCategories folds every tag to lower case without accents and
// removes blanks and repeats, keeping first-seen order. It never returns nil.
func NormalizeCategories(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))

	for _, t := range tags {
		t = textutils.LowerASCIIFolding(t)
		if t == "" || seen[t] {
			continue
		}

		seen[t] = true
		out = append(out, t)
	}

	return out
}

// DeriveID uses the upstream identifier ("place_id", then "id") and falls
// back to the "lat,lng" composition of the resolved position.
func DeriveID(r *RawRecord, pos spatial.Point) string {
	if r.PlaceID != "" {
		return string(r.PlaceID)
	}

	if r.ID != "" {
		return string(r.ID)
	}

	return pos.Key()
}

// Canonicalize runs the deterministic steps on one record: position
// extraction, identifier derivation, category normalization and exclusion.
// The returned place has no crowd level yet.
func Canonicalize(r *RawRecord, exclusion Exclusion) (*Place, DropReason) {
	pos, _, ok := ExtractPosition(r)
	if !ok {
		return nil, DroppedNoPosition
	}

	p := &Place{
		ID:         DeriveID(r, pos),
		Name:       r.Name,
		Position:   pos,
		Address:    r.DisplayAddress(),
		Categories: NormalizeCategories(r.Types),
	}

	if exclusion.Matches(p.Categories) {
		return nil, DroppedExcluded
	}

	return p, Kept
}

// Stats counts what happened to the input of one Normalize call.
type Stats struct {
	Input      int
	Published  int
	NoPosition int
	Excluded   int
	Duplicates int
}

// Normalizer maps raw records to published places.
type Normalizer struct {
	estimator *crowd.Estimator
	exclusion Exclusion
}

// NewNormalizer returns a normalizer that estimates crowds with est and drops
// the excluded categories. A nil list means DefaultExcludedCategories.
func NewNormalizer(est *crowd.Estimator, excluded []string) *Normalizer {
	if excluded == nil {
		excluded = DefaultExcludedCategories
	}

	if est == nil {
		est = crowd.NewEstimator()
	}

	return &Normalizer{
		estimator: est,
		exclusion: NewExclusion(excluded...),
	}
}

// Exclusion returns the active exclusion set.
func (n *Normalizer) Exclusion() Exclusion {
	return n.exclusion
}

// Normalize returns the publishable places of records, in input order. The
// first record wins when several share an identifier. Each kept place gets a
// baseline from its name and a jittered initial current value.
func (n *Normalizer) Normalize(records []RawRecord) ([]*Place, Stats) {
	stats := Stats{Input: len(records)}
	out := make([]*Place, 0, len(records))
	seen := make(map[string]bool, len(records))

	for i := range records {
		p, reason := Canonicalize(&records[i], n.exclusion)

		switch reason {
		case DroppedNoPosition:
			stats.NoPosition++

			continue
		case DroppedExcluded:
			stats.Excluded++

			continue
		}

		if seen[p.ID] {
			stats.Duplicates++

			continue
		}

		seen[p.ID] = true
		p.Crowd = n.estimator.Estimate(p.Name)
		out = append(out, p)
	}

	stats.Published = len(out)

	return out, stats
}
