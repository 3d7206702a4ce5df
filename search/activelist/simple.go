// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package activelist

import (
	"math"

	"github.com/latticeasr/decoder/search/token"
)

// SimpleActiveList is an unordered bag of tokens: the default
// ActiveList implementation (spec.md §4.2, §6 active_list_type
// default). Add/Size are O(1) amortized; Remove and BestToken are O(n).
// Implementations need not be ordered — the core never assumes it.
type SimpleActiveList struct {
	tokens             []*token.Token
	relativeBeamWidth  float64 // log-domain, <= 0
}

// NewSimpleActiveList creates an empty list with the given relative
// beam width (already converted to the log domain by the caller).
func NewSimpleActiveList(relativeBeamWidth float64) *SimpleActiveList {
	return &SimpleActiveList{relativeBeamWidth: relativeBeamWidth}
}

// Add implements ActiveList.
func (l *SimpleActiveList) Add(t *token.Token) {
	l.tokens = append(l.tokens, t)
}

// Remove implements ActiveList.
func (l *SimpleActiveList) Remove(t *token.Token) {
	for i, cur := range l.tokens {
		if cur == t {
			last := len(l.tokens) - 1
			l.tokens[i] = l.tokens[last]
			l.tokens[last] = nil
			l.tokens = l.tokens[:last]
			return
		}
	}
}

// Size implements ActiveList.
func (l *SimpleActiveList) Size() int {
	return len(l.tokens)
}

// Tokens implements ActiveList.
func (l *SimpleActiveList) Tokens() []*token.Token {
	return l.tokens
}

// BestToken implements ActiveList.
func (l *SimpleActiveList) BestToken() *token.Token {
	var best *token.Token
	for _, t := range l.tokens {
		if best == nil || t.Score > best.Score {
			best = t
		}
	}
	return best
}

// BestScore implements ActiveList.
func (l *SimpleActiveList) BestScore() float64 {
	best := l.BestToken()
	if best == nil {
		return math.Inf(-1)
	}
	return best.Score
}

// BeamThreshold implements ActiveList.
func (l *SimpleActiveList) BeamThreshold() float64 {
	return l.BestScore() + l.relativeBeamWidth
}

// New implements ActiveList.
func (l *SimpleActiveList) New() ActiveList {
	return NewSimpleActiveList(l.relativeBeamWidth)
}
