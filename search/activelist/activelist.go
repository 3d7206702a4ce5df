// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package activelist implements the per-stratum token containers (C2)
// and the class-stratified manager that routes tokens into them (C3).
package activelist

import "github.com/latticeasr/decoder/search/token"

// ActiveList is a semantic container of tokens for one stratum:
// membership, not order. It reports its best score and a beam
// threshold derived from a configured relative beam width.
type ActiveList interface {
	// Add inserts a token into the list. Add does not check for
	// duplicates; callers (BestTokenMap/SearchManager) own that policy.
	Add(t *token.Token)

	// Remove deletes a specific token from the list, if present. It is
	// a no-op if the token is not a member. Used by
	// ActiveListManager.Replace.
	Remove(t *token.Token)

	// Size returns the number of tokens currently in the list.
	Size() int

	// Tokens returns every token currently in the list. The returned
	// slice must not be retained across mutations of the list.
	Tokens() []*token.Token

	// BestToken returns the highest-scoring token in the list, or nil
	// if the list is empty.
	BestToken() *token.Token

	// BestScore returns BestToken().Score, or negative infinity if the
	// list is empty.
	BestScore() float64

	// BeamThreshold returns BestScore() + the list's configured
	// relative beam width (a log-domain value, <= 0). Tokens scoring
	// below this threshold are gated out of growth.
	BeamThreshold() float64

	// New returns a fresh, empty ActiveList of the same concrete type
	// and configuration as this one. Used whenever the core needs a
	// replacement list (e.g. after pruning) rather than mutating one
	// that may still be referenced elsewhere.
	New() ActiveList
}
