// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package contextbias

import (
	"sync/atomic"

	"github.com/latticeasr/decoder/search/lattice"
	"github.com/latticeasr/decoder/search/state"
)

// BiasedLinguist wraps a state.Linguist, additively boosting the
// language-model probability of arcs whose target is a word state
// matching one of the currently active bias terms. It never touches
// Manager's own loop or score arithmetic beyond this one additive
// term on Arc.LanguageProbability, so spec.md's core invariants hold
// unchanged for an unbiased (empty bias set) linguist.
type BiasedLinguist struct {
	state.Linguist
	boost atomic.Pointer[map[string]float64]
}

// NewBiasedLinguist wraps base with an initially-empty bias set.
func NewBiasedLinguist(base state.Linguist) *BiasedLinguist {
	l := &BiasedLinguist{Linguist: base}
	empty := map[string]float64{}
	l.boost.Store(&empty)
	return l
}

// SetBias replaces the active bias set: words is typically the output
// of Client.BiasTerms for the current session's context, each boosted
// by weight (a positive log-probability addend).
func (l *BiasedLinguist) SetBias(words []string, weight float64) {
	m := make(map[string]float64, len(words))
	for _, w := range words {
		m[w] = weight
	}
	l.boost.Store(&m)
}

// ClearBias removes all active bias terms, reverting to the
// underlying linguist's unmodified arc probabilities.
func (l *BiasedLinguist) ClearBias() {
	empty := map[string]float64{}
	l.boost.Store(&empty)
}

// InitialSearchState wraps the underlying linguist's entry point so
// every reachable state is decorated transitively through Successors.
func (l *BiasedLinguist) InitialSearchState() state.SearchState {
	return &biasedState{SearchState: l.Linguist.InitialSearchState(), boost: &l.boost}
}

// biasedState decorates a state.SearchState, leaving every method but
// Successors untouched.
type biasedState struct {
	state.SearchState
	boost *atomic.Pointer[map[string]float64]
}

// Word implements lattice.Worded by delegating to the wrapped state;
// it returns "" when the wrapped state carries no word.
func (b *biasedState) Word() string {
	if w, ok := b.SearchState.(lattice.Worded); ok {
		return w.Word()
	}
	return ""
}

func (b *biasedState) Successors() []state.Arc {
	raw := b.SearchState.Successors()
	boost := *b.boost.Load()
	out := make([]state.Arc, len(raw))
	for i, arc := range raw {
		out[i] = arc
		out[i].State = &biasedState{SearchState: arc.State, boost: b.boost}
		if len(boost) == 0 {
			continue
		}
		if w, ok := arc.State.(lattice.Worded); ok {
			if add, found := boost[w.Word()]; found {
				out[i].LanguageProbability += add
			}
		}
	}
	return out
}
