// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package state defines the vocabulary of the linguist's static search
// graph: search states, the arcs between them, and the fixed state-class
// ordering the decoder core uses to stratify growth.
package state

import "errors"

// ErrUnknownStateClass is returned when a search state reports a class
// index the Linguist never declared in its state order table.
var ErrUnknownStateClass = errors.New("state: search state reports unknown class")

// ErrStateOrderViolation is returned by the core loop when
// check_state_order is enabled and a successor arc targets a state
// whose class sorts strictly before the source state's class, and the
// source state is non-emitting.
var ErrStateOrderViolation = errors.New("state: arc violates state-class order")

// Class is a dense, Linguist-assigned identifier for a search-state
// class (e.g. "word", "unit", "hmm-state"). The ActiveListManager uses
// it to bucket tokens, and the core loop optionally uses it to assert
// that successor arcs never regress class order.
type Class int

// SearchState is a node in the linguist's static graph. Implementations
// are supplied by the Linguist and must have stable equality/hash
// semantics (Go map-key comparability is sufficient, hence the
// interface is used only through implementations that are themselves
// comparable, e.g. pointers or small value structs).
type SearchState interface {
	// IsEmitting reports whether traversing this state consumes an
	// acoustic frame.
	IsEmitting() bool

	// IsWord reports whether this state marks a word boundary.
	IsWord() bool

	// IsFinal reports whether this state is a terminal state of the
	// search graph (its tokens are harvested into the result list).
	IsFinal() bool

	// StateClass returns the state's class, used for ActiveListManager
	// bucketing and state-order validation.
	StateClass() Class

	// Successors returns the outgoing arcs from this state.
	Successors() []Arc

	// ID returns a stable, comparable identity for this state, used as
	// the default BestTokenMap key. Two SearchState values reachable
	// via different paths but representing "the same place in the
	// graph" must return equal IDs.
	ID() any
}

// Arc is a single transition in the search graph: a target state and
// the three log-domain probabilities a token accumulates by taking it.
type Arc struct {
	State               SearchState
	Probability         float64 // transition log-probability
	LanguageProbability float64 // language-model log-probability
	InsertionProbability float64 // word-insertion log-probability
}

// Linguist builds and exposes the static search graph. The core never
// mutates anything the Linguist returns; the graph is read-only during
// recognition (spec.md §5).
type Linguist interface {
	// Start prepares the linguist for recognition (e.g. compiling the
	// grammar). Called once by SearchManager.Start.
	Start() error

	// Stop releases any resources Start acquired. Called once by
	// SearchManager.Stop.
	Stop() error

	// InitialSearchState returns the single entry point of the graph.
	InitialSearchState() SearchState

	// SearchStateOrder returns the fixed class ordering: non-emitting
	// classes strictly before emitting classes, in Linguist-declared
	// order. The ActiveListManager visits non-emitting strata in this
	// order, and state-order validation checks against it.
	SearchStateOrder() []Class
}

// ClassIndex returns the position of class c within order, or -1 if c
// is not present. Used both by ActiveListManager bucketing and by the
// optional state-order assertion in the core loop.
func ClassIndex(order []Class, c Class) int {
	for i, oc := range order {
		if oc == c {
			return i
		}
	}
	return -1
}
