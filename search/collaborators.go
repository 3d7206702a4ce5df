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

import (
	"github.com/latticeasr/decoder/search/activelist"
	"github.com/latticeasr/decoder/search/token"
)

// Scorer is consumed by the core loop (spec.md §6). It is treated as
// atomic: CalculateScores scores an entire stratum in one call and may
// use internal concurrency, but presents a sequential interface to
// Manager.
type Scorer interface {
	Start() error
	Stop() error

	// CalculateScores finalizes AcousticScore and Score (by adding the
	// acoustic contribution) on every token in tokens, and returns the
	// best-scoring token. ok is false when no more acoustic data is
	// available, signalling normal end of utterance.
	CalculateScores(tokens []*token.Token) (best *token.Token, ok bool)
}

// Pruner is consumed by the core loop (spec.md §6). Prune returns an
// active list — possibly the same object — containing a subset of the
// input.
type Pruner interface {
	Start() error
	Stop() error
	Prune(list activelist.ActiveList) (activelist.ActiveList, error)
}
