// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package token

import (
	"testing"

	"github.com/latticeasr/decoder/search/state"
)

type fakeState struct {
	id       string
	emitting bool
	word     bool
	final    bool
}

func (s *fakeState) IsEmitting() bool          { return s.emitting }
func (s *fakeState) IsWord() bool              { return s.word }
func (s *fakeState) IsFinal() bool             { return s.final }
func (s *fakeState) StateClass() state.Class   { return 0 }
func (s *fakeState) Successors() []state.Arc   { return nil }
func (s *fakeState) ID() any                   { return s.id }

func chain(states ...*fakeState) *Token {
	var cur *Token
	for i, s := range states {
		cur = New(s, i, float64(i), cur)
	}
	return cur
}

func TestIsEmittingWordFinal(t *testing.T) {
	s := &fakeState{id: "a", emitting: true, word: true, final: true}
	tok := New(s, 0, 0, nil)

	if !tok.IsEmitting() {
		t.Error("expected IsEmitting true")
	}
	if !tok.IsWord() {
		t.Error("expected IsWord true")
	}
	if !tok.IsFinal() {
		t.Error("expected IsFinal true")
	}
}

func TestLastEmittingAncestor(t *testing.T) {
	nonEmit1 := &fakeState{id: "ne1"}
	emit := &fakeState{id: "e1", emitting: true}
	nonEmit2 := &fakeState{id: "ne2"}

	tok := chain(nonEmit1, emit, nonEmit2)

	anc := tok.LastEmittingAncestor()
	if anc == nil || anc.SearchState != state.SearchState(emit) {
		t.Fatalf("expected last emitting ancestor to be the emitting token, got %v", anc)
	}
}

func TestLastEmittingAncestorNone(t *testing.T) {
	tok := chain(&fakeState{id: "a"}, &fakeState{id: "b"})
	if anc := tok.LastEmittingAncestor(); anc != nil {
		t.Fatalf("expected nil, got %v", anc)
	}
}

func TestWordPredecessorCompact(t *testing.T) {
	word1 := &fakeState{id: "w1", word: true}
	hmm1 := &fakeState{id: "h1"}
	hmm2 := &fakeState{id: "h2"}

	tok := chain(word1, hmm1, hmm2)

	wp := tok.WordPredecessor(false)
	if wp == nil || wp.SearchState != state.SearchState(word1) {
		t.Fatalf("expected word predecessor to be word1's token, got %v", wp)
	}
}

func TestWordPredecessorKeepAll(t *testing.T) {
	word1 := &fakeState{id: "w1", word: true}
	hmm1 := &fakeState{id: "h1"}
	tok := chain(word1, hmm1)

	wp := tok.WordPredecessor(true)
	if wp != tok {
		t.Fatalf("expected keep-all-tokens to return the token itself, got %v", wp)
	}
}

func TestWordPredecessorSelfIsWord(t *testing.T) {
	word1 := &fakeState{id: "w1", word: true}
	tok := New(word1, 0, 0, nil)

	if wp := tok.WordPredecessor(false); wp != tok {
		t.Fatalf("a word token should be its own word predecessor, got %v", wp)
	}
}

func TestWordPredecessorNoneFound(t *testing.T) {
	tok := chain(&fakeState{id: "a"}, &fakeState{id: "b"})
	if wp := tok.WordPredecessor(false); wp != nil {
		t.Fatalf("expected nil word predecessor, got %v", wp)
	}
}
