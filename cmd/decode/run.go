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
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/latticeasr/decoder/internal/contextbias"
	"github.com/latticeasr/decoder/internal/graphcache"
	"github.com/latticeasr/decoder/internal/jsongraph"
	"github.com/latticeasr/decoder/internal/metrics"
	"github.com/latticeasr/decoder/internal/secrets"
	"github.com/latticeasr/decoder/internal/store"
	"github.com/latticeasr/decoder/search"
	"github.com/latticeasr/decoder/search/lattice"
	"github.com/latticeasr/decoder/search/state"
)

var (
	runGraphPath  string
	runFramesPath string
	runStorePath  string
	runNBest      int
	runBiasText   string
	runBiasWeight float64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Decode a single utterance against a static graph and frame sheet",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runGraphPath, "graph", "", "path to a jsongraph GraphSpec file (required)")
	runCmd.Flags().StringVar(&runFramesPath, "frames", "", "path to a jsongraph FrameSheet file (required)")
	runCmd.Flags().StringVar(&runStorePath, "store", "decode.db", "path to the SQLite utterance store")
	runCmd.Flags().IntVar(&runNBest, "n-best", 10, "number of hypotheses to materialize and persist")
	runCmd.Flags().StringVar(&runBiasText, "bias-context", "", "session context text to bias the grammar towards (requires context_bias.enabled)")
	runCmd.Flags().Float64Var(&runBiasWeight, "bias-weight", 3.0, "log-probability boost applied to arcs matching a bias term")
	runCmd.MarkFlagRequired("graph")
	runCmd.MarkFlagRequired("frames")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	shutdownTelemetry, err := setupTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(ctx)

	graphSpec, err := loadGraphSpec(runGraphPath)
	if err != nil {
		return err
	}
	graph, err := jsongraph.Build(graphSpec)
	if err != nil {
		return err
	}

	framesFile, err := os.Open(runFramesPath)
	if err != nil {
		return fmt.Errorf("run: opening frame sheet file: %w", err)
	}
	defer framesFile.Close()
	frameSheet, err := jsongraph.LoadFrameSheet(framesFile)
	if err != nil {
		return err
	}

	var linguist state.Linguist = jsongraph.NewLinguist(graph)
	if biased, err := applyContextBias(ctx, linguist); err != nil {
		slog.Warn("run: context bias disabled", slog.Any("error", err))
	} else if biased != nil {
		linguist = biased
	}

	scorer := jsongraph.NewScorer(frameSheet)
	pruner := jsongraph.IdentityPruner{}

	mgr := search.New(linguist, scorer, pruner, cfg.Search.ToSearchConfig())
	mgr.OnFrame = metrics.ObserveFrame

	visits := metrics.NewStateVisitTracker()
	mgr.OnStateVisit = visits.Observe

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "decode.run")
	defer span.End()

	started := time.Now()
	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("run: starting manager: %w", err)
	}

	result, err := mgr.Recognize(len(frameSheet.Frames))
	if err != nil {
		mgr.Stop()
		return fmt.Errorf("run: recognizing: %w", err)
	}

	if err := mgr.Stop(); err != nil {
		slog.Warn("run: stopping manager", slog.Any("error", err))
	}
	distinctStates := visits.Finish()

	hyps := lattice.NBest(result.ResultList, result.Alternates, runNBest)
	printHypotheses(os.Stdout, hyps)

	st, err := store.Open(runStorePath)
	if err != nil {
		return fmt.Errorf("run: opening store: %w", err)
	}
	defer st.Close()

	finished := time.Now()
	rec := store.UtteranceRecord{
		ID:            uuid.NewString(),
		StartedAt:     started,
		FinishedAt:    finished,
		FrameCount:    result.CurrentFrame,
		TokensCreated: len(result.ResultList),
		Hypotheses:    hyps,
	}
	if err := st.SaveUtterance(ctx, rec); err != nil {
		return fmt.Errorf("run: saving utterance: %w", err)
	}

	var bestScore float64
	if len(hyps) > 0 {
		bestScore = hyps[0].Score
	}
	if err := reportUtteranceSummary(ctx, metrics.UtteranceSummary{
		UtteranceID:   rec.ID,
		Frames:        rec.FrameCount,
		TokensCreated: rec.TokensCreated,
		ResultCount:   len(result.ResultList),
		BestScore:     bestScore,
		Duration:      finished.Sub(started),
	}); err != nil {
		slog.Warn("run: influx reporting disabled", slog.Any("error", err))
	}

	slog.Info("run: decoded utterance",
		slog.String("id", rec.ID),
		slog.Int("frames", rec.FrameCount),
		slog.Float64("distinct_states_estimate", distinctStates),
	)
	return nil
}

// reportUtteranceSummary ships summary to InfluxDB when cfg.Metrics
// carries Influx settings, via a short-lived client scoped to this one
// write. Returns nil (not an error) when InfluxURL is unset, leaving
// Influx reporting off by default.
func reportUtteranceSummary(ctx context.Context, summary metrics.UtteranceSummary) error {
	if cfg.Metrics.InfluxURL == "" {
		return nil
	}

	token, err := secrets.FromEnv("INFLUXDB_TOKEN")
	if err != nil {
		return fmt.Errorf("reading INFLUXDB_TOKEN: %w", err)
	}
	defer token.Destroy()

	var client influxdb2.Client
	token.Reveal(func(value []byte) {
		client = influxdb2.NewClient(cfg.Metrics.InfluxURL, string(value))
	})
	defer client.Close()

	writeAPI := client.WriteAPI(cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
	reporter := metrics.NewInfluxReporter(writeAPI, cfg.Metrics.InfluxBucket)
	reporter.Report(ctx, summary)
	reporter.Flush()
	return nil
}

// applyContextBias wraps base in a contextbias.BiasedLinguist seeded
// with the terms Weaviate returns as nearest to runBiasText, when
// cfg.ContextBias.Enabled. It returns a nil *BiasedLinguist (not an
// error) when context biasing is off or no --bias-context text was
// given, leaving run's Linguist untouched.
func applyContextBias(ctx context.Context, base state.Linguist) (*contextbias.BiasedLinguist, error) {
	if !cfg.ContextBias.Enabled || runBiasText == "" {
		return nil, nil
	}

	u, err := url.Parse(cfg.ContextBias.WeaviateURL)
	if err != nil {
		return nil, fmt.Errorf("context_bias.weaviate_url: %w", err)
	}

	var apiKey *secrets.Credential
	if key, err := secrets.FromEnv("WEAVIATE_API_KEY"); err == nil {
		apiKey = key
		defer apiKey.Destroy()
	}

	client, err := contextbias.New(contextbias.Config{
		Scheme:    u.Scheme,
		Host:      u.Host,
		ClassName: cfg.ContextBias.ClassName,
	}, apiKey)
	if err != nil {
		return nil, err
	}

	terms, err := client.BiasTerms(ctx, runBiasText, cfg.ContextBias.TopK)
	if err != nil {
		return nil, fmt.Errorf("context_bias: fetching bias terms: %w", err)
	}

	biased := contextbias.NewBiasedLinguist(base)
	biased.SetBias(terms, runBiasWeight)
	slog.Info("run: context bias applied", slog.Int("terms", len(terms)))
	return biased, nil
}

// loadGraphSpec reads and parses the GraphSpec at path, consulting
// cfg.GraphCache when configured so an unchanged grammar file skips
// re-parsing its JSON on every run. The cache stores the parsed
// GraphSpec gob-encoded, keyed by a hash of the grammar's raw
// bytes (graphcache.KeyFor), so a cache hit returns straight from disk
// without touching encoding/json at all.
func loadGraphSpec(path string) (*jsongraph.GraphSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("run: reading graph file: %w", err)
	}

	if cfg.GraphCache.Dir == "" {
		return jsongraph.LoadGraph(bytes.NewReader(raw))
	}

	cache, err := graphcache.Open(graphcache.Options{
		Dir:    cfg.GraphCache.Dir,
		Logger: graphcache.NewSlogLogger(slog.Default()),
	})
	if err != nil {
		slog.Warn("run: graph cache disabled", slog.Any("error", err))
		return jsongraph.LoadGraph(bytes.NewReader(raw))
	}
	defer cache.Close()

	key := graphcache.KeyFor(raw)
	if cached, err := cache.Get(key); err == nil {
		var spec jsongraph.GraphSpec
		if err := gob.NewDecoder(bytes.NewReader(cached)).Decode(&spec); err == nil {
			slog.Debug("run: graph cache hit", slog.String("key", key))
			return &spec, nil
		}
		slog.Warn("run: discarding corrupt cached graph", slog.String("key", key))
	} else if !errors.Is(err, graphcache.ErrNotFound) {
		slog.Warn("run: graph cache read failed", slog.Any("error", err))
	}

	spec, err := jsongraph.LoadGraph(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	var encoded bytes.Buffer
	if err := gob.NewEncoder(&encoded).Encode(spec); err != nil {
		slog.Warn("run: encoding graph for cache", slog.Any("error", err))
		return spec, nil
	}
	if err := cache.Put(key, encoded.Bytes(), 0); err != nil {
		slog.Warn("run: writing graph to cache", slog.Any("error", err))
	}
	return spec, nil
}
