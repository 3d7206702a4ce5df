// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lattice implements C5, the AlternateHypothesisManager, and
// the utterance-level Result the core hands off to downstream
// lattice-construction tooling.
package lattice

import "github.com/latticeasr/decoder/search/token"

// AlternateHypothesisManager records, for each surviving "winner" word
// token, the losing predecessors that also reached it, and rewires
// successor edges when a loser had already produced further tokens
// before being superseded. It owns no tokens outright — it only holds
// references that keep loser-side ancestry reachable for later lattice
// construction (spec.md §3, §4.5).
type AlternateHypothesisManager struct {
	// alternates maps a winner token to every alternate predecessor
	// ever recorded for it.
	alternates map[*token.Token][]*token.Token

	// successorRewrites maps a superseded loser token to the winner
	// that should be used in its place when resolving successor edges
	// that were created while the loser still looked like the best.
	successorRewrites map[*token.Token]*token.Token
}

// New creates an empty AlternateHypothesisManager.
func New() *AlternateHypothesisManager {
	return &AlternateHypothesisManager{
		alternates:        make(map[*token.Token][]*token.Token),
		successorRewrites: make(map[*token.Token]*token.Token),
	}
}

// AddAlternatePredecessor records altPred as an additional predecessor
// of winner. Guarantees that after a full utterance, every word token
// surviving in the result list has, transitively, every alternate
// predecessor ever seen attached.
func (a *AlternateHypothesisManager) AddAlternatePredecessor(winner, altPred *token.Token) {
	if winner == nil || altPred == nil {
		return
	}
	a.alternates[winner] = append(a.alternates[winner], altPred)
}

// ChangeSuccessor records that any successor edge which previously
// pointed at loser should now resolve to newWinner instead. Used when
// loser had already produced further tokens before being superseded in
// the BestTokenMap.
func (a *AlternateHypothesisManager) ChangeSuccessor(newWinner, loser *token.Token) {
	if newWinner == nil || loser == nil {
		return
	}
	a.successorRewrites[loser] = newWinner

	// Loser's own recorded alternates transfer to the new winner: they
	// were reachable via loser, and loser is no longer the resolved
	// target of anything.
	if alts, ok := a.alternates[loser]; ok {
		a.alternates[newWinner] = append(a.alternates[newWinner], alts...)
		delete(a.alternates, loser)
	}
}

// Resolve follows successor rewrites transitively and returns the
// token that t currently resolves to (t itself if it was never
// superseded).
func (a *AlternateHypothesisManager) Resolve(t *token.Token) *token.Token {
	for {
		next, ok := a.successorRewrites[t]
		if !ok {
			return t
		}
		t = next
	}
}

// Alternates returns every alternate predecessor recorded for winner,
// after resolving winner to its final successor target.
func (a *AlternateHypothesisManager) Alternates(winner *token.Token) []*token.Token {
	return a.alternates[a.Resolve(winner)]
}
