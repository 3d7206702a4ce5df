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
	"sort"

	"github.com/latticeasr/decoder/search/token"
)

// Result is the snapshot the core hands back after start()/recognize()
// (spec.md §6 "Output"). Downstream lattice construction consumes
// ResultList and Alternates; nothing here depends on that downstream
// code existing.
type Result struct {
	// Alternates is the AlternateHypothesisManager accumulated over the
	// utterance so far. Nil if build_word_lattice is disabled.
	Alternates *AlternateHypothesisManager

	// FinalActiveList is whatever the emitting stratum held at the
	// point recognize() returned (may be empty).
	FinalActiveList []*token.Token

	// ResultList holds the terminal tokens harvested this call: one
	// entry per final token reached, recording its word_predecessor
	// (spec.md §4.6).
	ResultList []*token.Token

	// CurrentFrame is the frame counter after the call.
	CurrentFrame int

	// IsFinal is true once the scorer has signalled end of stream.
	IsFinal bool
}

// Worded is implemented by search states that carry a surface word
// form, for hypotheses materialized by NBest. NBest's walk visits every
// token of a predecessor chain and skips tokens whose states don't
// implement it.
type Worded interface {
	Word() string
}

// Hypothesis is one materialized path through the lattice: the word
// sequence and its total path score.
type Hypothesis struct {
	Words []string
	Score float64
}

// NBest walks the predecessor chain of every token in result, plus —
// when alts is non-nil — every alternate predecessor transitively
// reachable from them, and returns up to n hypotheses ordered by
// descending score, one per distinct token: two tokens with the same
// word sequence give two hypotheses. It is a minimal top-N materialization
// suitable for regression diffing (cmd/decode diff); full lattice
// construction (with shared sub-paths) is out of scope per spec.md §1.
func NBest(result []*token.Token, alts *AlternateHypothesisManager, n int) []Hypothesis {
	var candidates []*token.Token
	seen := make(map[*token.Token]bool)

	var collect func(t *token.Token)
	collect = func(t *token.Token) {
		if t == nil || seen[t] {
			return
		}
		seen[t] = true
		candidates = append(candidates, t)
		if alts == nil {
			return
		}
		for _, alt := range alts.Alternates(t) {
			collect(alt)
		}
	}
	for _, t := range result {
		collect(t)
	}

	hyps := make([]Hypothesis, 0, len(candidates))
	for _, t := range candidates {
		hyps = append(hyps, Hypothesis{Words: wordsOf(t), Score: t.Score})
	}

	sort.Slice(hyps, func(i, j int) bool { return hyps[i].Score > hyps[j].Score })

	if n > 0 && len(hyps) > n {
		hyps = hyps[:n]
	}
	return hyps
}

// wordsOf walks t's predecessor chain from oldest to newest, collecting
// the surface word of every token whose search state implements Worded.
func wordsOf(t *token.Token) []string {
	var chain []*token.Token
	for cur := t; cur != nil; cur = cur.Predecessor {
		chain = append(chain, cur)
	}
	words := make([]string, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		if w, ok := chain[i].SearchState.(Worded); ok {
			words = append(words, w.Word())
		}
	}
	return words
}
