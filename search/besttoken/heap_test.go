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
	"errors"
	"testing"

	"github.com/latticeasr/decoder/search/token"
)

func TestNewHeapMapRejectsNonPositiveSize(t *testing.T) {
	if _, err := NewHeapMap(0); !errors.Is(err, ErrInvalidHeapSize) {
		t.Fatalf("expected ErrInvalidHeapSize, got %v", err)
	}
	if _, err := NewHeapMap(-1); !errors.Is(err, ErrInvalidHeapSize) {
		t.Fatalf("expected ErrInvalidHeapSize, got %v", err)
	}
}

func TestHeapMapGetUnknownKeyWithRoom(t *testing.T) {
	hm, err := NewHeapMap(2)
	if err != nil {
		t.Fatalf("NewHeapMap: %v", err)
	}
	if got := hm.Get("a"); got != nil {
		t.Fatalf("expected nil (room available), got %v", got)
	}
}

func TestHeapMapPutGetExactMatch(t *testing.T) {
	hm, _ := NewHeapMap(2)
	tok := &token.Token{Score: 1}
	hm.Put("a", tok)
	if got := hm.Get("a"); got != tok {
		t.Fatalf("expected %v, got %v", tok, got)
	}
	if hm.Size() != 1 {
		t.Fatalf("expected size 1, got %d", hm.Size())
	}
}

func TestHeapMapPutReplacesInPlace(t *testing.T) {
	hm, _ := NewHeapMap(2)
	first := &token.Token{Score: 1}
	hm.Put("a", first)
	second := &token.Token{Score: 5}
	hm.Put("a", second)
	if got := hm.Get("a"); got != second {
		t.Fatalf("expected replacement, got %v", got)
	}
	if hm.Size() != 1 {
		t.Fatalf("expected size still 1 after in-place replace, got %d", hm.Size())
	}
}

func TestHeapMapEvictsWeakestWhenFull(t *testing.T) {
	hm, _ := NewHeapMap(2)
	hm.Put("a", &token.Token{Score: 1})
	hm.Put("b", &token.Token{Score: 2})
	// Heap is full (size 2). A new key with a better score than the
	// weakest incumbent (a, score 1) should evict it.
	hm.Put("c", &token.Token{Score: 10})

	if hm.Size() != 2 {
		t.Fatalf("expected size to stay at max 2, got %d", hm.Size())
	}
	if got := hm.Get("a"); got != nil && got.Score == 1 {
		t.Fatalf("expected weakest entry 'a' to have been evicted")
	}
}

func TestHeapMapDiscardsWeakerThanWeakestWhenFull(t *testing.T) {
	hm, _ := NewHeapMap(2)
	hm.Put("a", &token.Token{Score: 1})
	hm.Put("b", &token.Token{Score: 2})
	// Worse than the weakest incumbent (score 1): discarded, not inserted.
	hm.Put("c", &token.Token{Score: 0})

	if hm.Size() != 2 {
		t.Fatalf("expected size to remain 2, got %d", hm.Size())
	}
	// 'c' has no entry of its own, so a full heap reports its weakest
	// incumbent (score 1) for it.
	if got := hm.Get("c"); got == nil || got.Score != 1 {
		t.Fatalf("expected Get(\"c\") to return the weakest incumbent (score 1), got %v", got)
	}
}

func TestHeapMapGetOnceFullReturnsWeakest(t *testing.T) {
	hm, _ := NewHeapMap(2)
	weak := &token.Token{Score: 1}
	strong := &token.Token{Score: 2}
	hm.Put("a", weak)
	hm.Put("b", strong)

	// Heap-mode semantics (spec.md §9): once full, Get on an unrecognized
	// key returns the globally weakest incumbent, not nil and not the
	// strongest.
	got := hm.Get("unknown-key")
	if got != weak {
		t.Fatalf("expected Get on unknown key to return the weakest incumbent once full, got %v", got)
	}
}
