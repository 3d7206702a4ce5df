// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package metrics instruments the decoder core with Prometheus gauges
// and counters for per-frame diagnostics, and ships utterance-level
// summaries to InfluxDB for longer-horizon dashboards. Both exporters
// are optional: cmd/decode wires them in only when the corresponding
// address is configured.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/latticeasr/decoder/search"
)

var (
	framesProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "decoder",
		Subsystem: "search",
		Name:      "frames_processed_total",
		Help:      "Total frames processed by the search manager across all utterances.",
	})

	activeListSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "decoder",
		Subsystem: "search",
		Name:      "emitting_active_list_size",
		Help:      "Size of the emitting active list before pruning, per frame.",
		Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000, 20000},
	})

	prunedListSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "decoder",
		Subsystem: "search",
		Name:      "emitting_active_list_size_pruned",
		Help:      "Size of the emitting active list after pruning, per frame.",
		Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000, 20000},
	})

	tokensCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "decoder",
		Subsystem: "search",
		Name:      "tokens_created_total",
		Help:      "Total tokens allocated from per-utterance arenas.",
	})

	resultsHarvestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "decoder",
		Subsystem: "search",
		Name:      "results_harvested_total",
		Help:      "Total final-state tokens harvested into a result list.",
	})

	utteranceDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "decoder",
		Subsystem: "utterance",
		Name:      "duration_seconds",
		Help:      "Wall-clock time spent recognizing one utterance.",
		Buckets:   prometheus.DefBuckets,
	})

	distinctStatesEstimate = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "decoder",
		Subsystem: "search",
		Name:      "distinct_states_estimate",
		Help:      "HyperLogLog estimate of distinct search-state IDs touched over one utterance.",
		Buckets:   []float64{100, 500, 1000, 5000, 20000, 100000, 500000},
	})
)

// ObserveFrame records one search.FrameStats sample against the
// Prometheus collectors above. Wire it as a search.Manager's OnFrame
// callback.
func ObserveFrame(s search.FrameStats) {
	framesProcessedTotal.Inc()
	activeListSize.Observe(float64(s.EmittingSize))
	if s.PrunedSize > 0 {
		prunedListSize.Observe(float64(s.PrunedSize))
	}
	if s.TokensCreated > 0 {
		tokensCreatedTotal.Add(float64(s.TokensCreated))
	}
	resultsHarvestedTotal.Add(float64(s.ResultListSize))
}

// StateVisitTracker wraps a StateCardinality sketch and feeds its
// running estimate into the distinct_states_estimate histogram once
// per utterance. Callers add each search state ID observed via
// a growth callback, then call Finish when the utterance ends.
type StateVisitTracker struct {
	sketch *StateCardinality
}

// NewStateVisitTracker returns a tracker ready to observe one
// utterance's worth of state visits.
func NewStateVisitTracker() *StateVisitTracker {
	return &StateVisitTracker{sketch: NewStateCardinality()}
}

// Observe records one visited state ID, as returned by a
// search/state.SearchState's ID() method.
func (t *StateVisitTracker) Observe(stateID any) {
	t.sketch.Add(fmt.Sprint(stateID))
}

// Finish reports the sketch's current estimate to Prometheus and
// resets it so the tracker can be reused for the next utterance.
func (t *StateVisitTracker) Finish() float64 {
	estimate := t.sketch.Estimate()
	distinctStatesEstimate.Observe(estimate)
	t.sketch.Reset()
	return estimate
}

// UtteranceSummary is one utterance's aggregate statistics, shipped to
// InfluxDB for cross-utterance trend analysis that a point-in-time
// Prometheus scrape can't reconstruct after the fact.
type UtteranceSummary struct {
	UtteranceID   string
	Frames        int
	TokensCreated int
	ResultCount   int
	BestScore     float64
	Duration      time.Duration
}

// InfluxReporter writes UtteranceSummary points to an InfluxDB bucket
// using a non-blocking write API, matching the fire-and-forget
// telemetry posture the rest of the decoder's ambient stack uses for
// diagnostics that must never block the hot path.
type InfluxReporter struct {
	writer api.WriteAPI
	bucket string
}

// NewInfluxReporter wraps an already-constructed influxdb-client-go
// WriteAPI. Construction of the underlying client (URL, token, org)
// is cmd/decode's responsibility, since it owns the client's lifetime.
func NewInfluxReporter(writer api.WriteAPI, bucket string) *InfluxReporter {
	return &InfluxReporter{writer: writer, bucket: bucket}
}

// Report writes s as a single "utterance" point, tagged by utterance
// ID. Errors surface asynchronously on the underlying WriteAPI's error
// channel, per influxdb-client-go's design; Report itself cannot fail.
func (r *InfluxReporter) Report(_ context.Context, s UtteranceSummary) {
	utteranceDurationSeconds.Observe(s.Duration.Seconds())
	r.writer.WritePoint(influxPoint(s))
}

// Flush blocks until all buffered points have been sent.
func (r *InfluxReporter) Flush() {
	r.writer.Flush()
}
