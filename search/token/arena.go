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

import "github.com/latticeasr/decoder/search/state"

// defaultChunkSize is the number of tokens allocated per arena chunk.
// Frames create tokens in bursts; batching allocation avoids one
// malloc per token without over-committing memory for short
// utterances.
const defaultChunkSize = 512

// Arena owns every token created during one utterance. Go's garbage
// collector would reclaim unreachable tokens on its own, but batching
// allocation into chunks cuts per-token allocator overhead
// substantially under the token churn a wide beam produces, and gives
// Stop a single, explicit point at which every token becomes
// unreachable together (spec.md §9: "drop the arena at stop()").
type Arena struct {
	chunks  [][]Token
	cursor  int // index into chunks[len(chunks)-1] of the next free slot
	created int
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	a := &Arena{}
	a.grow()
	return a
}

func (a *Arena) grow() {
	a.chunks = append(a.chunks, make([]Token, defaultChunkSize))
	a.cursor = 0
}

// New allocates a token from the arena and initializes it. The
// returned pointer remains valid until the arena itself is discarded.
func (a *Arena) New(s state.SearchState, frame int, score float64, predecessor *Token) *Token {
	last := a.chunks[len(a.chunks)-1]
	if a.cursor == len(last) {
		a.grow()
		last = a.chunks[len(a.chunks)-1]
	}
	t := &last[a.cursor]
	a.cursor++
	a.created++

	t.SearchState = s
	t.Frame = frame
	t.Score = score
	t.Predecessor = predecessor
	t.AcousticScore = 0
	t.LanguageScore = 0
	t.InsertionScore = 0
	t.WorkingScore = 0
	return t
}

// Created returns the total number of tokens allocated from this
// arena across its lifetime, for show_token_count diagnostics.
func (a *Arena) Created() int {
	return a.created
}

// Reset discards every chunk, making every token previously allocated
// from this arena unreachable from the arena itself (predecessor
// chains kept alive by the live set, e.g. the result list, still keep
// their own chain reachable — Reset only releases the arena's own
// retaining references). Called by SearchManager.Stop.
func (a *Arena) Reset() {
	a.chunks = nil
	a.cursor = 0
	a.grow()
}
