// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package secrets

import (
	"errors"
	"testing"
)

func TestFromStringRejectsEmpty(t *testing.T) {
	if _, err := FromString(""); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}

func TestFromStringRevealRoundTrip(t *testing.T) {
	c, err := FromString("sk-test-token")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	defer c.Destroy()

	var got string
	c.Reveal(func(value []byte) { got = string(value) })
	if got != "sk-test-token" {
		t.Errorf("Reveal = %q, want %q", got, "sk-test-token")
	}
}

func TestFromEnvRejectsMissing(t *testing.T) {
	t.Setenv("DECODER_TEST_SECRET_MISSING", "")
	if _, err := FromEnv("DECODER_TEST_SECRET_MISSING"); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret for unset/empty var, got %v", err)
	}
}

func TestFromEnvReadsAndUnsets(t *testing.T) {
	t.Setenv("DECODER_TEST_SECRET", "abc123")
	c, err := FromEnv("DECODER_TEST_SECRET")
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	defer c.Destroy()

	var got string
	c.Reveal(func(value []byte) { got = string(value) })
	if got != "abc123" {
		t.Errorf("Reveal = %q, want %q", got, "abc123")
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	c, err := FromString("value")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	c.Destroy()
	c.Destroy()
}
