// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"fmt"

	"github.com/jcodagnone/crowdmap/spatial"
)

// State is the orchestrator's position in the search cycle.
type State int

const (
	// StateIdle means no request is in flight.
	StateIdle State = iota
	// StateResolving means the latest request is waiting on the resolver.
	StateResolving
	// StatePublishing means a result is replacing the published set.
	StatePublishing
	// StateFailed means the latest request failed; it settles back to idle.
	StateFailed
)

var stateNames = [...]string{"idle", "resolving", "publishing", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}

	return stateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome tells the caller of Search what happened to its request.
type Outcome int

const (
	// OutcomeIgnored means the query was blank and nothing was issued.
	OutcomeIgnored Outcome = iota
	// OutcomePublished means a non-empty place set replaced the previous one.
	OutcomePublished
	// OutcomeEmpty means the city resolved but no place survived normalization.
	OutcomeEmpty
	// OutcomeFailed means the resolver failed and the previous state was kept.
	OutcomeFailed
	// OutcomeSuperseded means a newer request was issued before this one
	// completed, so its result was discarded.
	OutcomeSuperseded
)

var outcomeNames = [...]string{"ignored", "published", "empty", "failed", "superseded"}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("Outcome(%d)", int(o))
	}

	return outcomeNames[o]
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// MessageKind is the severity of a user visible message.
type MessageKind string

const (
	// MessageInfo is a notice that is not a failure, like an empty result.
	MessageInfo MessageKind = "info"
	// MessageError reports a failed search.
	MessageError MessageKind = "error"
)

const (
	// NoResultsText is shown when a city has no publishable places.
	NoResultsText = "No attractions found. Try another city."
	// BusyText is shown for every resolver failure; the cause is only logged.
	BusyText = "Server is busy. Try again in a moment."
)

// Message is a non-blocking notice for the user.
type Message struct {
	Kind MessageKind `json:"kind"`
	Text string      `json:"text"`
}

// Viewport is what the map should show.
type Viewport struct {
	Center spatial.Point `json:"center"`
	Zoom   int           `json:"zoom"`
}
