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

import (
	"container/heap"
	"errors"

	"github.com/latticeasr/decoder/search/token"
)

// ErrInvalidHeapSize is returned by NewHeapMap when maxSize is not
// positive.
var ErrInvalidHeapSize = errors.New("besttoken: max_heap_size must be positive")

// heapEntry is one slot in the bounded heap: a key plus the token
// currently recorded for it.
type heapEntry struct {
	key   any
	token *token.Token
	index int // position in the backing slice, maintained by container/heap hooks
}

// minHeap is a container/heap.Interface ordered so entries[0] is
// always the smallest-scoring member, letting HeapMap evict or report
// the weakest incumbent in O(log n).
type minHeap []*heapEntry

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i].token.Score < h[j].token.Score }
func (h minHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *minHeap) Push(x any) {
	e := x.(*heapEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// HeapMap is the bounded k-best-per-state variant of Map (spec.md
// §4.4, max_heap_size = k). It deliberately preserves the
// open-question semantics flagged in spec.md §9: Get, once the heap is
// full, reports the globally weakest incumbent rather than the
// strongest, so callers comparing entry_score > best.score admit more
// tokens per state than a strict k-best filter would. Do not "fix"
// this without updating spec.md §9's guidance.
type HeapMap struct {
	maxSize int
	entries minHeap
	index   map[any]*heapEntry // key -> entry, whose .index tracks its live position
}

// NewHeapMap creates an empty bounded map holding at most maxSize
// entries across all keys.
func NewHeapMap(maxSize int) (*HeapMap, error) {
	if maxSize <= 0 {
		return nil, ErrInvalidHeapSize
	}
	return &HeapMap{
		maxSize: maxSize,
		index:   make(map[any]*heapEntry, maxSize),
	}, nil
}

// Put implements Map. If key already has an entry, it is replaced in
// place (score may move up or down). Otherwise, if the heap has room,
// the new entry is added; if the heap is full, the new entry replaces
// the globally weakest incumbent only if it outscores it, otherwise it
// is discarded — this is what "keeps the top-k by score" means across
// keys, not per key.
func (m *HeapMap) Put(key any, t *token.Token) {
	if entry, ok := m.index[key]; ok {
		entry.token = t
		heap.Fix(&m.entries, entry.index)
		return
	}

	entry := &heapEntry{key: key, token: t}

	if len(m.entries) < m.maxSize {
		heap.Push(&m.entries, entry)
		m.index[key] = entry
		return
	}

	if len(m.entries) == 0 || t.Score <= m.entries[0].token.Score {
		return
	}

	weakest := heap.Pop(&m.entries).(*heapEntry)
	delete(m.index, weakest.key)

	heap.Push(&m.entries, entry)
	m.index[key] = entry
}

// Get implements Map, per the heap-mode contract: the exact entry for
// key if present; nil if the heap still has room (signalling "no
// current best, and room to add one"); otherwise the globally
// weakest-scoring member, regardless of its key.
func (m *HeapMap) Get(key any) *token.Token {
	if entry, ok := m.index[key]; ok {
		return entry.token
	}
	if len(m.entries) < m.maxSize {
		return nil
	}
	if len(m.entries) == 0 {
		return nil
	}
	return m.entries[0].token
}

// Size implements Map.
func (m *HeapMap) Size() int {
	return len(m.entries)
}
