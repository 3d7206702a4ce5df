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
	"context"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/latticeasr/decoder/search"
)

func TestObserveFrameIncrementsCounters(t *testing.T) {
	before := testutil.ToFloat64(framesProcessedTotal)
	beforeTokens := testutil.ToFloat64(tokensCreatedTotal)
	beforeResults := testutil.ToFloat64(resultsHarvestedTotal)

	ObserveFrame(search.FrameStats{
		Frame:          1,
		EmittingSize:   10,
		PrunedSize:     4,
		TokensCreated:  6,
		ResultListSize: 2,
	})

	if got := testutil.ToFloat64(framesProcessedTotal); got != before+1 {
		t.Errorf("framesProcessedTotal = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(tokensCreatedTotal); got != beforeTokens+6 {
		t.Errorf("tokensCreatedTotal = %v, want %v", got, beforeTokens+6)
	}
	if got := testutil.ToFloat64(resultsHarvestedTotal); got != beforeResults+2 {
		t.Errorf("resultsHarvestedTotal = %v, want %v", got, beforeResults+2)
	}
}

func TestObserveFrameSkipsZeroTokensCreated(t *testing.T) {
	before := testutil.ToFloat64(tokensCreatedTotal)
	ObserveFrame(search.FrameStats{Frame: 2, EmittingSize: 5, ResultListSize: 0})
	if got := testutil.ToFloat64(tokensCreatedTotal); got != before {
		t.Errorf("tokensCreatedTotal changed with zero TokensCreated: before %v, got %v", before, got)
	}
}

// recordingWriteAPI implements the subset of api.WriteAPI that
// InfluxReporter exercises, so Report/Flush can be tested without a
// live InfluxDB instance.
type recordingWriteAPI struct {
	points  []*write.Point
	flushed bool
}

func (r *recordingWriteAPI) WriteRecord(line string)   {}
func (r *recordingWriteAPI) WritePoint(p *write.Point) { r.points = append(r.points, p) }
func (r *recordingWriteAPI) Flush()                    { r.flushed = true }
func (r *recordingWriteAPI) Errors() <-chan error      { return nil }

func TestInfluxReporterReportWritesPointAndObservesDuration(t *testing.T) {
	w := &recordingWriteAPI{}
	r := NewInfluxReporter(w, "utterances")

	r.Report(context.Background(), UtteranceSummary{
		UtteranceID:   "utt-1",
		Frames:        120,
		TokensCreated: 4000,
		ResultCount:   3,
		BestScore:     -42.5,
		Duration:      250 * time.Millisecond,
	})

	if len(w.points) != 1 {
		t.Fatalf("expected 1 point written, got %d", len(w.points))
	}
}

func TestInfluxReporterFlush(t *testing.T) {
	w := &recordingWriteAPI{}
	r := NewInfluxReporter(w, "utterances")
	r.Flush()
	if !w.flushed {
		t.Error("expected Flush to be forwarded to the underlying WriteAPI")
	}
}

func TestStateVisitTrackerObserveAndFinish(t *testing.T) {
	tr := NewStateVisitTracker()
	for i := 0; i < 200; i++ {
		tr.Observe(i)
	}
	got := tr.Finish()
	if got < 150 || got > 260 {
		t.Errorf("Finish() = %v, want roughly 200", got)
	}
}

func TestStateVisitTrackerFinishResetsSketch(t *testing.T) {
	tr := NewStateVisitTracker()
	tr.Observe("a-state")
	tr.Finish()
	if got := tr.sketch.Estimate(); got != 0 {
		t.Errorf("expected sketch reset after Finish, got estimate %v", got)
	}
}
