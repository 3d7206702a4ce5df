// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"strings"
	"testing"

	"github.com/latticeasr/decoder/search/lattice"
)

func TestBestTranscriptEmptyHypotheses(t *testing.T) {
	if got := bestTranscript(nil); got != "" {
		t.Errorf("bestTranscript(nil) = %q, want empty", got)
	}
}

func TestBestTranscriptUsesFirstHypothesis(t *testing.T) {
	hyps := []lattice.Hypothesis{
		{Words: []string{"hello", "world"}, Score: -1},
		{Words: []string{"goodbye"}, Score: -5},
	}
	if got := bestTranscript(hyps); got != "hello world" {
		t.Errorf("bestTranscript = %q, want %q", got, "hello world")
	}
}

func TestLongestCommonSubsequenceIdentical(t *testing.T) {
	a := []string{"the", "cat", "sat"}
	got := longestCommonSubsequence(a, a)
	if strings.Join(got, " ") != "the cat sat" {
		t.Errorf("lcs = %v, want identical sequence", got)
	}
}

func TestLongestCommonSubsequenceDisjoint(t *testing.T) {
	got := longestCommonSubsequence([]string{"a", "b"}, []string{"c", "d"})
	if len(got) != 0 {
		t.Errorf("lcs = %v, want empty", got)
	}
}

func TestLongestCommonSubsequencePartialOverlap(t *testing.T) {
	got := longestCommonSubsequence(
		[]string{"recognize", "speech"},
		[]string{"wreck", "a", "nice", "beach"},
	)
	if len(got) != 0 {
		t.Errorf("lcs = %v, want no shared words between these two phrases", got)
	}

	got = longestCommonSubsequence(
		[]string{"it", "is", "fine", "today"},
		[]string{"it", "was", "fine", "yesterday"},
	)
	if strings.Join(got, " ") != "it fine" {
		t.Errorf("lcs = %v, want [it fine]", got)
	}
}

func TestWordDiffHunkMarksInsertionsAndDeletions(t *testing.T) {
	hunk := wordDiffHunk("it is fine today", "it was fine yesterday")
	body := string(hunk.Body)

	for _, want := range []string{" it\n", "-is\n", "+was\n", " fine\n", "-today\n", "+yesterday\n"} {
		if !strings.Contains(body, want) {
			t.Errorf("hunk body missing line %q; got:\n%s", want, body)
		}
	}
}

func TestParseGCSPathValid(t *testing.T) {
	bucket, object, err := parseGCSPath("gs://my-bucket/path/to/object.json")
	if err != nil {
		t.Fatalf("parseGCSPath: %v", err)
	}
	if bucket != "my-bucket" || object != "path/to/object.json" {
		t.Errorf("got bucket=%q object=%q", bucket, object)
	}
}

func TestParseGCSPathRejectsMissingPrefix(t *testing.T) {
	if _, _, err := parseGCSPath("my-bucket/object"); err == nil {
		t.Fatal("expected an error for a path missing the gs:// prefix")
	}
}

func TestParseGCSPathRejectsMissingObject(t *testing.T) {
	if _, _, err := parseGCSPath("gs://my-bucket"); err == nil {
		t.Fatal("expected an error for a path with no object name")
	}
}
