// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rescore runs a post-decode pass over a search.Manager's
// N-best hypotheses, asking an LLM to pick the most plausible
// transcript among acoustically-close candidates the decoder's beam
// search alone cannot disambiguate (homophones, disfluencies,
// domain jargon). It only ever runs after Manager.Stop() returns: it
// has no access to, and makes no claims about, the live search.
package rescore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/latticeasr/decoder/search/lattice"
)

// ErrNoCandidates is returned when Rescore is given an empty N-best
// list.
var ErrNoCandidates = errors.New("rescore: no candidates to rescore")

// ErrUnparseableChoice is returned when the model's response can't be
// mapped back to one of the offered candidates.
var ErrUnparseableChoice = errors.New("rescore: could not parse a candidate index from the model response")

// Rescorer picks among a set of decoder hypotheses using an LLM.
type Rescorer struct {
	model llms.Model
	// Bias, if set, is prepended to the prompt as domain context (e.g.
	// "This is a customer support call about billing."), grounded in
	// whatever internal/contextbias.BiasTerms returned for the session.
	Bias string
}

// New wraps an already-constructed langchaingo llms.Model. Construction
// of the underlying provider client (OpenAI, Anthropic, etc., each
// with its own internal/secrets-guarded API key) is cmd/decode's
// responsibility.
func New(model llms.Model) *Rescorer {
	return &Rescorer{model: model}
}

// Rescore asks the model to choose the most plausible transcript among
// candidates and returns them reordered with the model's pick first,
// preserving the candidates' original relative order for the rest.
// On any failure to get a usable answer from the model, it falls back
// to candidates' existing order (already descending by acoustic
// score), so a rescoring outage degrades gracefully rather than
// failing the whole decode.
func (r *Rescorer) Rescore(ctx context.Context, candidates []lattice.Hypothesis) ([]lattice.Hypothesis, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if len(candidates) == 1 {
		return candidates, nil
	}

	prompt := buildPrompt(r.Bias, candidates)
	resp, err := r.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		return candidates, fmt.Errorf("rescore: generating content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return candidates, fmt.Errorf("rescore: %w", ErrUnparseableChoice)
	}

	idx, err := parseChoice(resp.Choices[0].Content, len(candidates))
	if err != nil {
		return candidates, err
	}

	return reorder(candidates, idx), nil
}

func buildPrompt(bias string, candidates []lattice.Hypothesis) string {
	var sb strings.Builder
	if bias != "" {
		sb.WriteString(bias)
		sb.WriteString("\n\n")
	}
	sb.WriteString("The following are candidate transcriptions of the same audio, produced by a speech recognizer's N-best search. Pick the one most likely to be correct. Respond with only the candidate's number.\n\n")
	for i, c := range candidates {
		fmt.Fprintf(&sb, "%d: %s\n", i+1, strings.Join(c.Words, " "))
	}
	return sb.String()
}

func parseChoice(content string, n int) (int, error) {
	content = strings.TrimSpace(content)
	fields := strings.Fields(content)
	for _, f := range fields {
		f = strings.Trim(f, ".:)")
		if v, err := strconv.Atoi(f); err == nil && v >= 1 && v <= n {
			return v - 1, nil
		}
	}
	return 0, ErrUnparseableChoice
}

func reorder(candidates []lattice.Hypothesis, chosen int) []lattice.Hypothesis {
	out := make([]lattice.Hypothesis, 0, len(candidates))
	out = append(out, candidates[chosen])
	for i, c := range candidates {
		if i != chosen {
			out = append(out, c)
		}
	}
	return out
}

// BestByAcousticScore is the no-LLM fallback ordering, exported so
// cmd/decode can use the identical comparator whether or not rescoring
// is enabled.
func BestByAcousticScore(candidates []lattice.Hypothesis) []lattice.Hypothesis {
	out := append([]lattice.Hypothesis(nil), candidates...)
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
