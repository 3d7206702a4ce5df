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
	"fmt"
	"os"
	"strings"

	diffpkg "github.com/sourcegraph/go-diff/diff"
	"github.com/spf13/cobra"

	"github.com/latticeasr/decoder/internal/store"
	"github.com/latticeasr/decoder/search/lattice"
)

var diffStorePath string

var diffCmd = &cobra.Command{
	Use:   "diff <utterance-id-a> <utterance-id-b>",
	Short: "Show a unified diff between two utterances' best transcripts, word by word",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

func init() {
	diffCmd.Flags().StringVar(&diffStorePath, "store", "decode.db", "path to the SQLite utterance store")
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := store.Open(diffStorePath)
	if err != nil {
		return fmt.Errorf("diff: opening store: %w", err)
	}
	defer st.Close()

	a, err := st.GetUtterance(ctx, args[0])
	if err != nil {
		return fmt.Errorf("diff: loading %s: %w", args[0], err)
	}
	b, err := st.GetUtterance(ctx, args[1])
	if err != nil {
		return fmt.Errorf("diff: loading %s: %w", args[1], err)
	}

	fd := &diffpkg.FileDiff{
		OrigName: args[0],
		NewName:  args[1],
		Hunks:    []*diffpkg.Hunk{wordDiffHunk(bestTranscript(a.Hypotheses), bestTranscript(b.Hypotheses))},
	}
	out, err := diffpkg.PrintFileDiff(fd)
	if err != nil {
		return fmt.Errorf("diff: rendering diff: %w", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}

func bestTranscript(hyps []lattice.Hypothesis) string {
	if len(hyps) == 0 {
		return ""
	}
	return strings.Join(hyps[0].Words, " ")
}

// wordDiffHunk builds a single unified-diff Hunk whose body is a
// word-level longest-common-subsequence diff of old and new, one word
// per line. A transcript's words rarely number more than a few dozen,
// so this plain O(len(old)*len(new)) table is in no danger of being a
// bottleneck; it stands in for a line-diff engine because nothing in
// the available ecosystem computes a diff from two strings — go-diff
// itself only parses and prints the unified format.
func wordDiffHunk(oldText, newText string) *diffpkg.Hunk {
	oldWords := strings.Fields(oldText)
	newWords := strings.Fields(newText)

	lcs := longestCommonSubsequence(oldWords, newWords)

	var body strings.Builder
	i, j, k := 0, 0, 0
	for i < len(oldWords) || j < len(newWords) {
		switch {
		case k < len(lcs) && i < len(oldWords) && j < len(newWords) && oldWords[i] == lcs[k] && newWords[j] == lcs[k]:
			fmt.Fprintf(&body, " %s\n", oldWords[i])
			i++
			j++
			k++
		case i < len(oldWords) && (k >= len(lcs) || oldWords[i] != lcs[k]):
			fmt.Fprintf(&body, "-%s\n", oldWords[i])
			i++
		default:
			fmt.Fprintf(&body, "+%s\n", newWords[j])
			j++
		}
	}

	return &diffpkg.Hunk{
		OrigStartLine: 1,
		OrigLines:     int32(len(oldWords)),
		NewStartLine:  1,
		NewLines:      int32(len(newWords)),
		Body:          []byte(body.String()),
	}
}

// longestCommonSubsequence returns the longest common subsequence of
// a and b via the standard dynamic-programming table.
func longestCommonSubsequence(a, b []string) []string {
	n, m := len(a), len(b)
	table := make([][]int, n+1)
	for i := range table {
		table[i] = make([]int, m+1)
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if a[i-1] == b[j-1] {
				table[i][j] = table[i-1][j-1] + 1
			} else if table[i-1][j] >= table[i][j-1] {
				table[i][j] = table[i-1][j]
			} else {
				table[i][j] = table[i][j-1]
			}
		}
	}

	var out []string
	for i, j := n, m; i > 0 && j > 0; {
		switch {
		case a[i-1] == b[j-1]:
			out = append(out, a[i-1])
			i--
			j--
		case table[i-1][j] >= table[i][j-1]:
			i--
		default:
			j--
		}
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}
