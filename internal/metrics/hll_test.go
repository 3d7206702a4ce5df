// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package metrics

import (
	"fmt"
	"math"
	"testing"
)

func TestStateCardinalityEmptyIsZero(t *testing.T) {
	c := NewStateCardinality()
	if got := c.Estimate(); got != 0 {
		t.Errorf("Estimate() on empty sketch = %v, want 0", got)
	}
}

func TestStateCardinalityRepeatedAddDoesNotInflate(t *testing.T) {
	c := NewStateCardinality()
	for i := 0; i < 1000; i++ {
		c.Add("state-42")
	}
	if got := c.Estimate(); got > 2 {
		t.Errorf("Estimate() after 1000 duplicate Adds = %v, want ~1", got)
	}
}

func TestStateCardinalityApproximatesDistinctCount(t *testing.T) {
	c := NewStateCardinality()
	const n = 50000
	for i := 0; i < n; i++ {
		c.Add(fmt.Sprintf("state-%d", i))
	}

	got := c.Estimate()
	errRatio := math.Abs(got-n) / n
	if errRatio > 0.1 {
		t.Errorf("Estimate() = %v for %d distinct inputs, error ratio %.3f exceeds 10%%", got, n, errRatio)
	}
}

func TestStateCardinalityResetClears(t *testing.T) {
	c := NewStateCardinality()
	for i := 0; i < 1000; i++ {
		c.Add(fmt.Sprintf("state-%d", i))
	}
	if c.Estimate() == 0 {
		t.Fatal("expected a nonzero estimate before Reset")
	}
	c.Reset()
	if got := c.Estimate(); got != 0 {
		t.Errorf("Estimate() after Reset = %v, want 0", got)
	}
}
