// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import "github.com/latticeasr/decoder/search/state"

// KeyFunc derives a BestTokenMap key from a search state. The default,
// used by DefaultConfig, keys on the state's own ID(). A heap-key
// configuration (spec.md §3 "BestTokenMap keys") can instead key
// emitting states by (lex_state, word_history) so parallel paths
// through the same HMM with the same word history collapse to one;
// callers wire that by supplying a KeyFunc that inspects the state
// through a type assertion to their own lexical-state interface.
type KeyFunc func(s state.SearchState) any

func defaultKeyFunc(s state.SearchState) any {
	return s.ID()
}

// Config is the configuration surface enumerated in spec.md §6. All
// fields have the documented defaults via DefaultConfig; every field
// is a plain value, no functional options, matching the size of this
// type (a handful of scalars, not the builder-style options the
// teacher uses for larger structs).
type Config struct {
	// ShowTokenCount enables a debug token-count dump each frame.
	ShowTokenCount bool

	// CheckStateOrder enables assertion that successor arcs never
	// target a non-emitting class that sorts strictly before the
	// source's non-emitting class.
	CheckStateOrder bool

	// BuildWordLattice enables AlternateHypothesisManager updates.
	// Default true.
	BuildWordLattice bool

	// GrowSkipInterval, if > 1, skips growth on every GrowSkipInterval'th
	// frame (score-only), trading accuracy for speed. 0 or 1 disables
	// skipping.
	GrowSkipInterval int

	// AcousticLookaheadFrames, if > 0, switches emitting growth to the
	// look-ahead-gated variant (spec.md §4.6).
	AcousticLookaheadFrames float64

	// KeepAllTokens disables word-predecessor compression: every
	// successor's predecessor is its spawning token, not the last word
	// ancestor.
	KeepAllTokens bool

	// RelativeBeamWidth is given in the LINEAR probability domain
	// (0, 1] and converted to a log-domain, non-positive value
	// internally (spec.md §6).
	RelativeBeamWidth float64

	// MaxHeapSize, if > 0, selects the bounded k-best BestTokenMap
	// variant (besttoken.HeapMap) instead of the single-best default.
	// The reference configuration leaves this at 0 (disabled) per
	// spec.md §9's open question.
	MaxHeapSize int

	// KeyOf derives BestTokenMap keys from search states. Defaults to
	// the state's own ID().
	KeyOf KeyFunc

	// ActiveListType names the ActiveList implementation Manager.Start
	// instantiates for every state-class slot (spec.md §6). "simple"
	// (the default) is the only implementation search/activelist
	// currently provides — ActiveListTypeSimple is still a named,
	// validated field rather than an implicit constant so a second
	// implementation (e.g. a sorted/partitioned variant) has a place to
	// plug in without widening Config's shape again.
	ActiveListType string
}

// ActiveListTypeSimple selects activelist.NewSimpleActiveList, the
// only ActiveList implementation currently wired.
const ActiveListTypeSimple = "simple"

// DefaultConfig returns the configuration surface's documented
// defaults.
func DefaultConfig() Config {
	return Config{
		ShowTokenCount:          false,
		CheckStateOrder:         false,
		BuildWordLattice:        true,
		GrowSkipInterval:        0,
		AcousticLookaheadFrames: 0,
		KeepAllTokens:           false,
		RelativeBeamWidth:       1e-80,
		MaxHeapSize:             0,
		KeyOf:                   defaultKeyFunc,
		ActiveListType:          ActiveListTypeSimple,
	}
}
