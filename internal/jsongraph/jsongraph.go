// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package jsongraph is a fixture Linguist and Scorer driven by a small
// JSON description of a static search graph and a pre-scored frame
// sheet, in place of a real grammar compiler and acoustic model
// (explicitly out of scope collaborators spec.md treats as given —
// see state.Linguist/search.Scorer). cmd/decode run uses it so the
// CLI has something concrete to drive end to end; production use
// would substitute real Linguist/Scorer implementations behind the
// same interfaces without touching search.Manager at all.
package jsongraph

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/latticeasr/decoder/search/activelist"
	"github.com/latticeasr/decoder/search/state"
	"github.com/latticeasr/decoder/search/token"
)

// ArcSpec is one outgoing transition in GraphSpec's JSON form.
type ArcSpec struct {
	Target               string  `json:"target"`
	Probability          float64 `json:"probability"`
	LanguageProbability  float64 `json:"language_probability"`
	InsertionProbability float64 `json:"insertion_probability"`
}

// StateSpec is one search state in GraphSpec's JSON form.
type StateSpec struct {
	ID         string    `json:"id"`
	Emitting   bool      `json:"emitting"`
	Word       bool      `json:"word"`
	Final      bool      `json:"final"`
	WordText   string    `json:"word_text"`
	Class      int       `json:"class"`
	Successors []ArcSpec `json:"successors"`
}

// GraphSpec is the top-level JSON document describing a static graph.
type GraphSpec struct {
	Initial string      `json:"initial"`
	Order   []int       `json:"class_order"`
	States  []StateSpec `json:"states"`
}

// FrameSheet is a pre-computed sequence of per-frame acoustic scores,
// keyed by state ID, standing in for what a real acoustic model would
// produce from audio features.
type FrameSheet struct {
	Frames []map[string]float64 `json:"frames"`
}

// LoadGraph parses a GraphSpec from r.
func LoadGraph(r io.Reader) (*GraphSpec, error) {
	var g GraphSpec
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("jsongraph: decoding graph: %w", err)
	}
	return &g, nil
}

// LoadFrameSheet parses a FrameSheet from r.
func LoadFrameSheet(r io.Reader) (*FrameSheet, error) {
	var f FrameSheet
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("jsongraph: decoding frame sheet: %w", err)
	}
	return &f, nil
}

// jsonState is the state.SearchState implementation backing one
// StateSpec.
type jsonState struct {
	spec  *StateSpec
	graph *Graph
}

func (s *jsonState) IsEmitting() bool        { return s.spec.Emitting }
func (s *jsonState) IsWord() bool            { return s.spec.Word }
func (s *jsonState) IsFinal() bool           { return s.spec.Final }
func (s *jsonState) StateClass() state.Class { return state.Class(s.spec.Class) }
func (s *jsonState) ID() any                 { return s.spec.ID }

// Word implements lattice.Worded.
func (s *jsonState) Word() string { return s.spec.WordText }

func (s *jsonState) Successors() []state.Arc {
	arcs := make([]state.Arc, 0, len(s.spec.Successors))
	for _, a := range s.spec.Successors {
		target, ok := s.graph.states[a.Target]
		if !ok {
			continue
		}
		arcs = append(arcs, state.Arc{
			State:                target,
			Probability:          a.Probability,
			LanguageProbability:  a.LanguageProbability,
			InsertionProbability: a.InsertionProbability,
		})
	}
	return arcs
}

// Graph is a built GraphSpec: every StateSpec turned into a jsonState,
// ready to back a state.Linguist. Successor targets stay string IDs:
// jsonState.Successors looks each one up in the graph on every call and
// skips IDs it does not find.
type Graph struct {
	spec    *GraphSpec
	states  map[string]*jsonState
	initial *jsonState
}

// Build resolves spec into a Graph.
func Build(spec *GraphSpec) (*Graph, error) {
	g := &Graph{spec: spec, states: make(map[string]*jsonState, len(spec.States))}
	for i := range spec.States {
		ss := &spec.States[i]
		g.states[ss.ID] = &jsonState{spec: ss, graph: g}
	}
	initial, ok := g.states[spec.Initial]
	if !ok {
		return nil, fmt.Errorf("jsongraph: initial state %q not found among %d states", spec.Initial, len(spec.States))
	}
	g.initial = initial
	return g, nil
}

// Linguist adapts a Graph to search/state.Linguist.
type Linguist struct {
	graph *Graph
	order []state.Class
}

// NewLinguist wraps graph as a state.Linguist using the class order
// declared in its GraphSpec.
func NewLinguist(graph *Graph) *Linguist {
	order := make([]state.Class, len(graph.spec.Order))
	for i, c := range graph.spec.Order {
		order[i] = state.Class(c)
	}
	return &Linguist{graph: graph, order: order}
}

func (l *Linguist) Start() error { return nil }
func (l *Linguist) Stop() error  { return nil }

func (l *Linguist) InitialSearchState() state.SearchState { return l.graph.initial }
func (l *Linguist) SearchStateOrder() []state.Class        { return l.order }

// Scorer adapts a FrameSheet to search.Scorer: each call to
// CalculateScores consumes the next frame's score map, applying it as
// AcousticScore to every token whose SearchState.ID() appears in it
// (tokens at unscored states keep their prior acoustic contribution of
// zero for that frame, matching how an out-of-beam state would simply
// never be visited).
type Scorer struct {
	sheet *FrameSheet
	idx   int
}

// NewScorer returns a Scorer over sheet's frames, consumed in order.
func NewScorer(sheet *FrameSheet) *Scorer {
	return &Scorer{sheet: sheet}
}

func (s *Scorer) Start() error { s.idx = 0; return nil }
func (s *Scorer) Stop() error  { return nil }

func (s *Scorer) CalculateScores(tokens []*token.Token) (*token.Token, bool) {
	if s.idx >= len(s.sheet.Frames) {
		return nil, false
	}
	scores := s.sheet.Frames[s.idx]
	s.idx++

	var best *token.Token
	for _, t := range tokens {
		if sc, ok := scores[fmt.Sprint(t.SearchState.ID())]; ok {
			t.AcousticScore = sc
		}
		t.Score += t.AcousticScore
		if best == nil || t.Score > best.Score {
			best = t
		}
	}
	return best, true
}

// IdentityPruner implements search.Pruner as a no-op: it is the
// fixture decoder's stand-in for an application-specific additional
// pruning stage (e.g. absolute max-active-count), left to whatever
// real deployment substitutes it.
type IdentityPruner struct{}

func (IdentityPruner) Start() error { return nil }
func (IdentityPruner) Stop() error  { return nil }

func (IdentityPruner) Prune(list activelist.ActiveList) (activelist.ActiveList, error) {
	return list, nil
}
