// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/jcodagnone/crowdmap/utils/textutils"
)

// FileResolver answers from recorded sites payloads keyed by city name.
type FileResolver struct {
	payloads map[string]*SitesPayload
}

// NewFileResolver indexes payloads by folded city name.
func NewFileResolver(payloads map[string]*SitesPayload) *FileResolver {
	f := &FileResolver{payloads: make(map[string]*SitesPayload, len(payloads))}

	for city, p := range payloads {
		if p != nil {
			f.payloads[textutils.LowerASCIIFolding(city)] = p
		}
	}

	return f
}

// LoadFileResolver reads a JSON object of city name to payload.
func LoadFileResolver(filepath string) (*FileResolver, error) {
	data, err := os.ReadFile(filepath) // #nosec G304 - filepath is provided by the operator
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var payloads map[string]*SitesPayload
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	return NewFileResolver(payloads), nil
}

// Cities lists the recorded cities, sorted.
func (f *FileResolver) Cities() []string {
	out := make([]string, 0, len(f.payloads))
	for city := range f.payloads {
		out = append(out, city)
	}

	sort.Strings(out)

	return out
}

// Resolve implements Resolver.
func (f *FileResolver) Resolve(ctx context.Context, city string) (*Resolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, transportError(err)
	}

	p, ok := f.payloads[textutils.LowerASCIIFolding(city)]
	if !ok {
		return nil, notFoundError(city)
	}

	return p.Resolution(city)
}
