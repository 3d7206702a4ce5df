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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeasr/decoder/internal/store"
	"github.com/latticeasr/decoder/search/lattice"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "decoder.db"))
	require.NoError(t, err, "store.Open")
	t.Cleanup(func() { st.Close() })
	return st
}

func TestHandleHealthz(t *testing.T) {
	s := NewServer(Config{}, testStore(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleGetUtteranceNotFound(t *testing.T) {
	s := NewServer(Config{}, testStore(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/utterances/missing", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetUtteranceFound(t *testing.T) {
	st := testStore(t)
	s := NewServer(Config{}, st, nil)

	err := st.SaveUtterance(t.Context(), store.UtteranceRecord{
		ID:         "utt-1",
		StartedAt:  time.Now().Truncate(time.Second),
		FrameCount: 42,
		Hypotheses: []lattice.Hypothesis{{Words: []string{"hello", "world"}, Score: -3}},
	})
	require.NoError(t, err, "SaveUtterance")

	req := httptest.NewRequest(http.MethodGet, "/v1/utterances/utt-1", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, "body=%s", rec.Body.String())

	var got UtteranceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, "utt-1", got.ID)
	assert.Equal(t, 42, got.FrameCount)
	if assert.Len(t, got.Hypotheses, 1) {
		assert.Equal(t, "hello world", got.Hypotheses[0].Transcript)
	}
}

func TestHandleRescoreDisabledReturns503(t *testing.T) {
	s := NewServer(Config{}, testStore(t), nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/utterances/utt-1/rescore", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleStreamMissingSessionReturns404(t *testing.T) {
	s := NewServer(Config{}, testStore(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/missing/stream", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDMiddlewarePropagatesSuppliedID(t *testing.T) {
	s := NewServer(Config{}, testStore(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "caller-supplied-id")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "caller-supplied-id", rec.Header().Get(requestIDHeader))
}

func TestRequestIDMiddlewareGeneratesWhenAbsent(t *testing.T) {
	s := NewServer(Config{}, testStore(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get(requestIDHeader), "expected a generated X-Request-ID header")
}
