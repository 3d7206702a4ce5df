// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lattice

import (
	"testing"

	"github.com/latticeasr/decoder/search/state"
	"github.com/latticeasr/decoder/search/token"
)

type wordState struct {
	word string
}

func (s *wordState) IsEmitting() bool        { return false }
func (s *wordState) IsWord() bool            { return true }
func (s *wordState) IsFinal() bool           { return false }
func (s *wordState) StateClass() state.Class { return 0 }
func (s *wordState) Successors() []state.Arc { return nil }
func (s *wordState) ID() any                 { return s.word }
func (s *wordState) Word() string            { return s.word }

type plainState struct{ id string }

func (s *plainState) IsEmitting() bool        { return false }
func (s *plainState) IsWord() bool            { return false }
func (s *plainState) IsFinal() bool           { return false }
func (s *plainState) StateClass() state.Class { return 0 }
func (s *plainState) Successors() []state.Arc { return nil }
func (s *plainState) ID() any                 { return s.id }

func wordTok(word string, score float64, pred *token.Token) *token.Token {
	return token.New(&wordState{word: word}, 0, score, pred)
}

func TestWordsOfWalksPredecessorChain(t *testing.T) {
	hello := wordTok("hello", 1, nil)
	mid := token.New(&plainState{id: "hmm"}, 0, 1.5, hello)
	world := wordTok("world", 2, mid)

	got := wordsOf(world)
	want := []string{"hello", "world"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestNBestOrdersByScoreAndTruncates(t *testing.T) {
	low := wordTok("low", 1, nil)
	high := wordTok("high", 5, nil)
	mid := wordTok("mid", 3, nil)

	hyps := NBest([]*token.Token{low, high, mid}, nil, 2)
	if len(hyps) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(hyps))
	}
	if hyps[0].Score != 5 || hyps[1].Score != 3 {
		t.Fatalf("expected descending score order, got %v", hyps)
	}
}

func TestNBestIncludesAlternatesAndDedups(t *testing.T) {
	winner := wordTok("winner", 5, nil)
	alt := wordTok("alt", 3, nil)

	a := New()
	a.AddAlternatePredecessor(winner, alt)

	hyps := NBest([]*token.Token{winner}, a, 10)
	if len(hyps) != 2 {
		t.Fatalf("expected winner + alternate = 2 hypotheses, got %d", len(hyps))
	}

	// Re-adding winner to the result list must not duplicate it.
	hyps2 := NBest([]*token.Token{winner, winner}, a, 10)
	if len(hyps2) != 2 {
		t.Fatalf("expected dedup to keep 2 hypotheses, got %d", len(hyps2))
	}
}

func TestNBestZeroNMeansNoTruncation(t *testing.T) {
	toks := []*token.Token{wordTok("a", 1, nil), wordTok("b", 2, nil), wordTok("c", 3, nil)}
	hyps := NBest(toks, nil, 0)
	if len(hyps) != 3 {
		t.Fatalf("expected n<=0 to mean no truncation, got %d", len(hyps))
	}
}
