// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package api exposes the decoder's utterance store and live decode
// progress over HTTP: a REST surface for querying past results and a
// websocket stream for watching an in-flight decode frame by frame.
// It never constructs a search.Manager itself; a stream's messages come
// only from Session.Publish, which no cmd/decode subcommand calls.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/latticeasr/decoder/internal/rescore"
	"github.com/latticeasr/decoder/internal/store"
)

// Config configures Server.
type Config struct {
	// Debug enables gin's verbose request logger; cmd/decode sets this
	// from the process log level.
	Debug bool
}

// Server is the decoder's HTTP/websocket surface.
type Server struct {
	router   *gin.Engine
	store    *store.Store
	rescorer *rescore.Rescorer // nil disables the /rescore endpoint
	sessions *registry
	validate *validator.Validate
}

// NewServer builds a Server backed by st. rescorer may be nil, in
// which case the rescore endpoint returns 503.
func NewServer(cfg Config, st *store.Store, rescorer *rescore.Rescorer) *Server {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("decoder-api"))
	router.Use(requestIDMiddleware())
	if cfg.Debug {
		router.Use(gin.Logger())
	}

	s := &Server{
		router:   router,
		store:    st,
		rescorer: rescorer,
		sessions: newRegistry(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler cmd/decode's serve subcommand binds
// to a listener.
func (s *Server) Handler() http.Handler {
	return s.router
}

// NewSession allocates and registers a Session whose progress the
// stream endpoint serves to subscribers.
func (s *Server) NewSession() *Session {
	sess := NewSession()
	s.sessions.add(sess)
	return sess
}

// CloseSession closes and deregisters a Session once its decode
// completes.
func (s *Server) CloseSession(id string) {
	if sess, ok := s.sessions.get(id); ok {
		sess.Close()
		s.sessions.remove(id)
	}
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealthz)

	v1 := s.router.Group("/v1")
	v1.GET("/utterances/:id", s.handleGetUtterance)
	v1.POST("/utterances/:id/rescore", s.handleRescore)
	v1.GET("/sessions/:id/stream", s.handleStream)
}
