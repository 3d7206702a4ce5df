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
	"testing"

	"github.com/latticeasr/decoder/search/state"
)

type fakeWordState struct {
	id   string
	word string
	succ []state.Arc
}

func (s *fakeWordState) IsEmitting() bool      { return false }
func (s *fakeWordState) IsWord() bool          { return true }
func (s *fakeWordState) IsFinal() bool         { return false }
func (s *fakeWordState) StateClass() state.Class { return 0 }
func (s *fakeWordState) Successors() []state.Arc { return s.succ }
func (s *fakeWordState) ID() any               { return s.id }
func (s *fakeWordState) Word() string          { return s.word }

type fakeLinguist struct {
	initial state.SearchState
}

func (l *fakeLinguist) Start() error                      { return nil }
func (l *fakeLinguist) Stop() error                       { return nil }
func (l *fakeLinguist) InitialSearchState() state.SearchState { return l.initial }
func (l *fakeLinguist) SearchStateOrder() []state.Class   { return []state.Class{0} }

func TestBiasedLinguistNoBiasLeavesProbabilitiesUnchanged(t *testing.T) {
	target := &fakeWordState{id: "w1", word: "balance"}
	root := &fakeWordState{id: "root", succ: []state.Arc{{State: target, LanguageProbability: -5}}}

	bl := NewBiasedLinguist(&fakeLinguist{initial: root})
	succ := bl.InitialSearchState().Successors()
	if len(succ) != 1 {
		t.Fatalf("expected 1 successor, got %d", len(succ))
	}
	if succ[0].LanguageProbability != -5 {
		t.Errorf("LanguageProbability = %v, want unchanged -5", succ[0].LanguageProbability)
	}
}

func TestBiasedLinguistBoostsMatchingWord(t *testing.T) {
	target := &fakeWordState{id: "w1", word: "balance"}
	other := &fakeWordState{id: "w2", word: "weather"}
	root := &fakeWordState{id: "root", succ: []state.Arc{
		{State: target, LanguageProbability: -5},
		{State: other, LanguageProbability: -5},
	}}

	bl := NewBiasedLinguist(&fakeLinguist{initial: root})
	bl.SetBias([]string{"balance"}, 3)

	succ := bl.InitialSearchState().Successors()
	var gotBalance, gotWeather float64
	for _, arc := range succ {
		w, ok := arc.State.(interface{ Word() string })
		if !ok {
			t.Fatalf("wrapped state does not implement Word()")
		}
		switch w.Word() {
		case "balance":
			gotBalance = arc.LanguageProbability
		case "weather":
			gotWeather = arc.LanguageProbability
		}
	}
	if gotBalance != -2 {
		t.Errorf("biased LanguageProbability for balance = %v, want -2", gotBalance)
	}
	if gotWeather != -5 {
		t.Errorf("LanguageProbability for weather = %v, want unchanged -5", gotWeather)
	}
}

func TestBiasedLinguistClearBiasResetsBoost(t *testing.T) {
	target := &fakeWordState{id: "w1", word: "balance"}
	root := &fakeWordState{id: "root", succ: []state.Arc{{State: target, LanguageProbability: -5}}}

	bl := NewBiasedLinguist(&fakeLinguist{initial: root})
	bl.SetBias([]string{"balance"}, 3)
	bl.ClearBias()

	succ := bl.InitialSearchState().Successors()
	if succ[0].LanguageProbability != -5 {
		t.Errorf("LanguageProbability after ClearBias = %v, want -5", succ[0].LanguageProbability)
	}
}

func TestBiasedLinguistPreservesUnderlyingID(t *testing.T) {
	target := &fakeWordState{id: "w1", word: "balance"}
	root := &fakeWordState{id: "root", succ: []state.Arc{{State: target}}}

	bl := NewBiasedLinguist(&fakeLinguist{initial: root})
	succ := bl.InitialSearchState().Successors()
	if succ[0].State.ID() != "w1" {
		t.Errorf("ID() = %v, want w1 (identity must pass through the wrapper)", succ[0].State.ID())
	}
}
