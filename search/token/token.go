// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package token defines the Token value type — one partial hypothesis
// at one search state at one frame — and the arena that owns tokens
// for the lifetime of a single utterance.
package token

import "github.com/latticeasr/decoder/search/state"

// Token is a node in the partial-hypothesis lattice. Tokens are
// created by the search manager during growth and, once created, are
// never mutated except for AcousticScore/Score (finalized by the
// Scorer for emitting tokens within the frame they are created) and
// WorkingScore (overwritten transiently during look-ahead-gated
// growth).
//
// The predecessor chain of any token is a DAG (in fact a tree, modulo
// sharing introduced by the AlternateHypothesisManager, which tracks
// alternates outside of Predecessor).
type Token struct {
	// SearchState is the opaque handle into the linguist's graph this
	// token occupies.
	SearchState state.SearchState

	// Frame is the index at which this token was created. Non-decreasing
	// along predecessor chains.
	Frame int

	// Score is the total log-domain path score.
	Score float64

	// AcousticScore is the log-domain acoustic contribution accumulated
	// at this token's frame. Set by the Scorer for emitting tokens;
	// zero for non-emitting tokens.
	AcousticScore float64

	// LanguageScore is the language-model log-probability of the arc
	// that created this token.
	LanguageScore float64

	// InsertionScore is the word-insertion log-probability of the arc
	// that created this token.
	InsertionScore float64

	// Predecessor is the token this one was grown from. Nil only for
	// the initial token.
	Predecessor *Token

	// WorkingScore is ephemeral scratch used during look-ahead-aware
	// growth; it is never read outside of growBranches' look-ahead
	// variant and must not be relied upon between frames.
	WorkingScore float64
}

// New creates a token for the given search state. Callers outside this
// package should prefer Arena.New so that tokens are accounted for
// against the utterance's arena.
func New(s state.SearchState, frame int, score float64, predecessor *Token) *Token {
	return &Token{
		SearchState: s,
		Frame:       frame,
		Score:       score,
		Predecessor: predecessor,
	}
}

// IsEmitting reports whether this token's search state consumes a
// frame when traversed.
func (t *Token) IsEmitting() bool {
	return t.SearchState.IsEmitting()
}

// IsWord reports whether this token's search state marks a word
// boundary.
func (t *Token) IsWord() bool {
	return t.SearchState.IsWord()
}

// IsFinal reports whether this token's search state is a terminal
// state of the search graph.
func (t *Token) IsFinal() bool {
	return t.SearchState.IsFinal()
}

// LastEmittingAncestor walks the predecessor chain, starting at t
// itself, until it finds an emitting token, and returns it. It returns
// nil if no ancestor (including t) is emitting. Used by the acoustic
// look-ahead growth variant.
func (t *Token) LastEmittingAncestor() *Token {
	for cur := t; cur != nil; cur = cur.Predecessor {
		if cur.IsEmitting() {
			return cur
		}
	}
	return nil
}

// WordPredecessor returns the predecessor to use for a newly created
// successor of t, under the "compact lattice" policy (keepAllTokens ==
// false): it walks the predecessor chain starting at t until a word
// token is found, and returns it (possibly nil if no ancestor is a
// word token). When keepAllTokens is true, it returns t itself,
// preserving every intermediate state in the predecessor chain.
func (t *Token) WordPredecessor(keepAllTokens bool) *Token {
	if keepAllTokens {
		return t
	}
	for cur := t; cur != nil; cur = cur.Predecessor {
		if cur.IsWord() {
			return cur
		}
	}
	return nil
}
