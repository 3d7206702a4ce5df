// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package besttoken implements C4: the per-frame map from search-state
// key to the best token(s) reaching that state. It provides the
// single-best default and the bounded k-best heap variant described in
// spec.md §4.4.
package besttoken

import "github.com/latticeasr/decoder/search/token"

// Map is the best-token-per-state map the core loop consults and
// rebuilds fresh every frame. Implementations are not safe for
// concurrent use; the core accesses them from a single goroutine.
type Map interface {
	// Put records t as a (possibly new) best token for key. Callers
	// are expected to have already applied the "entry_score >
	// best.score" acceptance policy using Get's return value; Put
	// itself does not re-check it except where the k-best heap's
	// capacity policy requires eviction bookkeeping.
	Put(key any, t *token.Token)

	// Get returns the current best token recorded for key, or nil if
	// there is no current best. Under the bounded k-best variant, Get
	// follows the open-question semantics from spec.md §9: if the
	// heap has fewer than max_heap_size entries, nil signals "room
	// available" even when key is unrecognized; once full, it returns
	// the heap's smallest-scoring member (not necessarily key's own
	// entry) so the caller can decide whether a new candidate beats the
	// weakest incumbent.
	Get(key any) *token.Token

	// Size returns the number of distinct keys currently recorded.
	Size() int
}

// NewDefaultSize returns a capacity hint for a fresh Map sized for an
// active list of the given size, per spec.md §4.6 step 4: "sized ≈ 2x
// the active-list size (minimum 1)".
func NewDefaultSize(activeListSize int) int {
	size := activeListSize * 2
	if size < 1 {
		size = 1
	}
	return size
}
