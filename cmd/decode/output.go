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

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/latticeasr/decoder/search/lattice"
)

// colorOutput reports whether w is a terminal that should receive
// lipgloss-styled output; piped output (e.g. into a file or another
// process) gets plain text instead.
func colorOutput(w *os.File) bool {
	return isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd())
}

var (
	rankStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(4)
	scoreStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
)

// printHypotheses writes an N-best list to w, styled when w is a
// terminal and plain otherwise.
func printHypotheses(w *os.File, hyps []lattice.Hypothesis) {
	plain := !colorOutput(w)
	for i, h := range hyps {
		transcript := strings.Join(h.Words, " ")
		if plain {
			fmt.Fprintf(w, "%d\t%.4f\t%s\n", i+1, h.Score, transcript)
			continue
		}
		fmt.Fprintf(w, "%s %s  %s\n",
			rankStyle.Render(fmt.Sprintf("%d.", i+1)),
			scoreStyle.Render(fmt.Sprintf("%.4f", h.Score)),
			transcript)
	}
}
