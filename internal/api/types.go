// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"github.com/go-openapi/strfmt"
)

// ErrorResponse is the body returned for every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RescoreRequest asks the server to re-run LLM rescoring over an
// already-decoded utterance's N-best list.
type RescoreRequest struct {
	Bias string `json:"bias" validate:"max=2000"`
}

// HypothesisResponse is one N-best entry.
type HypothesisResponse struct {
	Rank       int     `json:"rank"`
	Transcript string  `json:"transcript"`
	Score      float64 `json:"score"`
}

// UtteranceResponse describes a completed utterance and its N-best
// hypotheses.
type UtteranceResponse struct {
	ID            string               `json:"id"`
	StartedAt     strfmt.DateTime      `json:"started_at"`
	FinishedAt    strfmt.DateTime      `json:"finished_at"`
	FrameCount    int                  `json:"frame_count"`
	TokensCreated int                  `json:"tokens_created"`
	Rescored      bool                 `json:"rescored"`
	Hypotheses    []HypothesisResponse `json:"hypotheses"`
}

// ProgressMessage is one frame's worth of live decode progress, pushed
// over the /v1/sessions/:id/stream websocket while a session's
// search.Manager is running.
type ProgressMessage struct {
	Type           string  `json:"type"` // "frame" or "result"
	Frame          int     `json:"frame,omitempty"`
	EmittingSize   int     `json:"emitting_size,omitempty"`
	PrunedSize     int     `json:"pruned_size,omitempty"`
	ResultListSize int     `json:"result_list_size,omitempty"`
	BestTranscript string  `json:"best_transcript,omitempty"`
	BestScore      float64 `json:"best_score,omitempty"`
}
