// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package jsongraph

import (
	"strings"
	"testing"

	"github.com/latticeasr/decoder/search/token"
)

const sampleGraph = `{
  "initial": "start",
  "class_order": [0, 1],
  "states": [
    {"id": "start", "emitting": false, "word": false, "final": false, "class": 0,
     "successors": [{"target": "hmm1", "probability": 0, "language_probability": -1, "insertion_probability": 0}]},
    {"id": "hmm1", "emitting": true, "word": false, "final": false, "class": 1,
     "successors": [{"target": "word1", "probability": 0}]},
    {"id": "word1", "emitting": false, "word": true, "word_text": "hello", "final": true, "class": 0, "successors": []}
  ]
}`

const sampleFrames = `{"frames": [{"hmm1": -2}, {"hmm1": -3}]}`

func TestLoadGraphAndBuild(t *testing.T) {
	spec, err := LoadGraph(strings.NewReader(sampleGraph))
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	graph, err := Build(spec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if graph.initial.ID() != "start" {
		t.Errorf("initial ID = %v, want start", graph.initial.ID())
	}
}

func TestBuildRejectsUnknownInitialState(t *testing.T) {
	spec := &GraphSpec{Initial: "missing", States: []StateSpec{{ID: "a"}}}
	if _, err := Build(spec); err == nil {
		t.Fatal("expected an error for an unresolvable initial state")
	}
}

func TestLinguistWiresSuccessorsAndOrder(t *testing.T) {
	spec, _ := LoadGraph(strings.NewReader(sampleGraph))
	graph, _ := Build(spec)
	l := NewLinguist(graph)

	initial := l.InitialSearchState()
	succ := initial.Successors()
	if len(succ) != 1 {
		t.Fatalf("expected 1 successor from start, got %d", len(succ))
	}
	if succ[0].State.ID() != "hmm1" {
		t.Errorf("successor ID = %v, want hmm1", succ[0].State.ID())
	}
	if succ[0].LanguageProbability != -1 {
		t.Errorf("LanguageProbability = %v, want -1", succ[0].LanguageProbability)
	}

	order := l.SearchStateOrder()
	if len(order) != 2 {
		t.Fatalf("expected 2 classes in order, got %d", len(order))
	}
}

func TestSuccessorsSkipsUnresolvedTargets(t *testing.T) {
	spec := &GraphSpec{
		Initial: "a",
		States: []StateSpec{
			{ID: "a", Successors: []ArcSpec{{Target: "nonexistent"}}},
		},
	}
	graph, err := Build(spec)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := graph.initial.Successors(); len(got) != 0 {
		t.Errorf("expected unresolved targets to be skipped, got %d successors", len(got))
	}
}

func TestScorerAppliesScoresAndReportsEndOfStream(t *testing.T) {
	sheet, err := LoadFrameSheet(strings.NewReader(sampleFrames))
	if err != nil {
		t.Fatalf("LoadFrameSheet: %v", err)
	}
	scorer := NewScorer(sheet)
	scorer.Start()

	spec, _ := LoadGraph(strings.NewReader(sampleGraph))
	graph, _ := Build(spec)
	hmmState := graph.states["hmm1"]

	tok := &token.Token{SearchState: hmmState}
	best, ok := scorer.CalculateScores([]*token.Token{tok})
	if !ok {
		t.Fatal("expected ok=true on frame 1")
	}
	if best != tok || tok.AcousticScore != -2 {
		t.Errorf("frame 1: AcousticScore = %v, want -2", tok.AcousticScore)
	}

	tok2 := &token.Token{SearchState: hmmState}
	_, ok = scorer.CalculateScores([]*token.Token{tok2})
	if !ok {
		t.Fatal("expected ok=true on frame 2")
	}
	if tok2.AcousticScore != -3 {
		t.Errorf("frame 2: AcousticScore = %v, want -3", tok2.AcousticScore)
	}

	_, ok = scorer.CalculateScores(nil)
	if ok {
		t.Fatal("expected ok=false once frames are exhausted")
	}
}

func TestScorerLeavesUnscoredTokensAlone(t *testing.T) {
	sheet := &FrameSheet{Frames: []map[string]float64{{}}}
	scorer := NewScorer(sheet)
	scorer.Start()

	spec, _ := LoadGraph(strings.NewReader(sampleGraph))
	graph, _ := Build(spec)

	tok := &token.Token{SearchState: graph.states["hmm1"], AcousticScore: 0, Score: 5}
	_, ok := scorer.CalculateScores([]*token.Token{tok})
	if !ok {
		t.Fatal("expected ok=true")
	}
	if tok.AcousticScore != 0 {
		t.Errorf("AcousticScore = %v, want unchanged 0", tok.AcousticScore)
	}
	if tok.Score != 5 {
		t.Errorf("Score = %v, want unchanged 5 (zero acoustic contribution added)", tok.Score)
	}
}

func TestIdentityPrunerReturnsListUnchanged(t *testing.T) {
	p := IdentityPruner{}
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	got, err := p.Prune(nil)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if got != nil {
		t.Errorf("Prune(nil) = %v, want nil", got)
	}
}
