// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package besttoken

import "github.com/latticeasr/decoder/search/token"

// SingleBestMap is the default BestTokenMap configuration: Put
// unconditionally overwrites the recorded token for a key, Get returns
// the current best or nil.
type SingleBestMap struct {
	entries map[any]*token.Token
}

// NewSingleBestMap creates an empty map whose initial capacity hint is
// sizeHint*2 (sizeHint is typically NewDefaultSize's result; values
// below 1 count as 1), leaving the load factor to Go's map itself.
func NewSingleBestMap(sizeHint int) *SingleBestMap {
	if sizeHint < 1 {
		sizeHint = 1
	}
	return &SingleBestMap{entries: make(map[any]*token.Token, sizeHint*2)}
}

// Put implements Map.
func (m *SingleBestMap) Put(key any, t *token.Token) {
	m.entries[key] = t
}

// Get implements Map.
func (m *SingleBestMap) Get(key any) *token.Token {
	return m.entries[key]
}

// Size implements Map.
func (m *SingleBestMap) Size() int {
	return len(m.entries)
}
