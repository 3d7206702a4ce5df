// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package contextbias looks up vocabulary and phrases that are
// semantically close to a session's running context (e.g. the last
// few harvested hypotheses, or an application-supplied topic hint)
// and returns them as terms a Linguist can use to boost matching
// word-arc probabilities before the next utterance's search. This is
// the "dynamic grammar" path spec.md's GLOSSARY alludes to under
// context-dependent biasing: the static graph itself never changes,
// but BiasedLinguist (linguist.go) adds a weight to the
// LanguageProbability of arcs whose target word is one of the terms.
package contextbias

import (
	"context"
	"errors"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"github.com/latticeasr/decoder/internal/secrets"
)

// ErrDisabled is returned by New when cfg.ClassName is empty, meaning
// "context biasing is off" rather than a failure to reach Weaviate.
var ErrDisabled = errors.New("contextbias: disabled")

// Config configures the Weaviate-backed context biasing client.
type Config struct {
	Scheme    string
	Host      string
	ClassName string
	// PhraseField is the class property holding the biasable text.
	PhraseField string
}

// Client queries a Weaviate instance for phrases near-matching a
// session's running context vector.
type Client struct {
	raw         *weaviate.Client
	className   string
	phraseField string
}

// New constructs a Client. apiKey may be nil for an unauthenticated
// (e.g. local, anonymous-access) Weaviate instance.
func New(cfg Config, apiKey *secrets.Credential) (*Client, error) {
	if cfg.ClassName == "" {
		return nil, ErrDisabled
	}

	wcfg := weaviate.Config{
		Scheme: cfg.Scheme,
		Host:   cfg.Host,
	}
	if apiKey != nil {
		apiKey.Reveal(func(value []byte) {
			wcfg.AuthConfig = auth.ApiKey{Value: string(value)}
		})
	}

	raw, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("contextbias: building weaviate client: %w", err)
	}

	field := cfg.PhraseField
	if field == "" {
		field = "phrase"
	}
	return &Client{raw: raw, className: cfg.ClassName, phraseField: field}, nil
}

// BiasTerms returns up to limit phrases whose embedding is nearest to
// queryText, most-similar first. An empty queryText or a zero limit
// both yield an empty, non-error result.
func (c *Client) BiasTerms(ctx context.Context, queryText string, limit int) ([]string, error) {
	if queryText == "" || limit <= 0 {
		return nil, nil
	}

	nearText := c.raw.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{queryText})

	resp, err := c.raw.GraphQL().Get().
		WithClassName(c.className).
		WithFields(graphql.Field{Name: c.phraseField}).
		WithNearText(nearText).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("contextbias: near-text query: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("contextbias: graphql errors: %v", resp.Errors)
	}

	return extractPhrases(resp.Data, c.className, c.phraseField), nil
}

// UpsertPhrase stores a biasable phrase, letting Weaviate's configured
// vectorizer module derive its embedding. metadata is stored alongside
// the phrase (e.g. {"domain": "billing"}) for later filtering.
func (c *Client) UpsertPhrase(ctx context.Context, phrase string, metadata map[string]any) error {
	props := map[string]any{c.phraseField: phrase}
	for k, v := range metadata {
		props[k] = v
	}

	_, err := c.raw.Data().Creator().
		WithClassName(c.className).
		WithProperties(props).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("contextbias: upserting phrase: %w", err)
	}
	return nil
}

func extractPhrases(data map[string]any, className, field string) []string {
	get, ok := data["Get"].(map[string]any)
	if !ok {
		return nil
	}
	rows, ok := get[className].([]any)
	if !ok {
		return nil
	}

	phrases := make([]string, 0, len(rows))
	for _, row := range rows {
		obj, ok := row.(map[string]any)
		if !ok {
			continue
		}
		if phrase, ok := obj[field].(string); ok {
			phrases = append(phrases, phrase)
		}
	}
	return phrases
}
