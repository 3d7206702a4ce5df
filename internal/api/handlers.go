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
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/strfmt"

	"github.com/latticeasr/decoder/internal/store"
	"github.com/latticeasr/decoder/search/lattice"
)

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleGetUtterance handles GET /v1/utterances/:id.
//
// Response:
//
//	200 OK: UtteranceResponse
//	404 Not Found: no such utterance
func (s *Server) handleGetUtterance(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "handleGetUtterance")

	id := c.Param("id")
	rec, err := s.store.GetUtterance(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "utterance not found", Code: "UTTERANCE_NOT_FOUND"})
			return
		}
		logger.Error("loading utterance failed", slog.String("id", id), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "UTTERANCE_LOAD_FAILED"})
		return
	}

	c.JSON(http.StatusOK, toUtteranceResponse(rec))
}

// handleRescore handles POST /v1/utterances/:id/rescore.
//
// Response:
//
//	200 OK: UtteranceResponse, hypotheses reordered by the LLM's pick
//	404 Not Found: no such utterance
//	503 Service Unavailable: rescoring not configured
func (s *Server) handleRescore(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "handleRescore")

	if s.rescorer == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "rescoring not configured", Code: "RESCORE_NOT_AVAILABLE"})
		return
	}

	var req RescoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Allow an empty body - bias is optional.
		req = RescoreRequest{}
	}
	if err := s.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}

	id := c.Param("id")
	rec, err := s.store.GetUtterance(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "utterance not found", Code: "UTTERANCE_NOT_FOUND"})
		return
	}

	s.rescorer.Bias = req.Bias
	reordered, err := s.rescorer.Rescore(c.Request.Context(), rec.Hypotheses)
	if err != nil {
		logger.Warn("rescoring degraded to original order", slog.Any("error", err))
	}
	rec.Hypotheses = reordered
	rec.Rescored = true

	if err := s.store.SaveUtterance(c.Request.Context(), *rec); err != nil {
		logger.Error("saving rescored utterance failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "UTTERANCE_SAVE_FAILED"})
		return
	}

	c.JSON(http.StatusOK, toUtteranceResponse(rec))
}

func toUtteranceResponse(rec *store.UtteranceRecord) UtteranceResponse {
	hyps := make([]HypothesisResponse, 0, len(rec.Hypotheses))
	for i, h := range rec.Hypotheses {
		hyps = append(hyps, HypothesisResponse{
			Rank:       i,
			Transcript: transcriptOf(h),
			Score:      h.Score,
		})
	}

	return UtteranceResponse{
		ID:            rec.ID,
		StartedAt:     strfmt.DateTime(rec.StartedAt),
		FinishedAt:    strfmt.DateTime(rec.FinishedAt),
		FrameCount:    rec.FrameCount,
		TokensCreated: rec.TokensCreated,
		Rescored:      rec.Rescored,
		Hypotheses:    hyps,
	}
}

func transcriptOf(h lattice.Hypothesis) string {
	return strings.Join(h.Words, " ")
}
