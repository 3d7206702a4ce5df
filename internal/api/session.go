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
	"sync"

	"github.com/google/uuid"
)

// Session fans out one in-flight decode's progress to any number of
// websocket subscribers. Progress enters only through Publish, which no
// cmd/decode subcommand calls; a Session never touches a
// search.Manager, keeping the HTTP layer decode-engine-agnostic.
type Session struct {
	ID string

	mu          sync.Mutex
	subscribers map[chan ProgressMessage]struct{}
	closed      bool
}

// NewSession allocates a Session with a fresh random ID.
func NewSession() *Session {
	return &Session{
		ID:          uuid.NewString(),
		subscribers: make(map[chan ProgressMessage]struct{}),
	}
}

// Subscribe registers a new listener and returns its channel plus an
// unsubscribe function the caller must invoke when done reading.
func (s *Session) Subscribe() (<-chan ProgressMessage, func()) {
	ch := make(chan ProgressMessage, 32)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
	}
}

// Publish fans msg out to every current subscriber, dropping it for
// any subscriber whose buffer is full rather than blocking the decode
// loop on a slow reader.
func (s *Session) Publish(msg ProgressMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Close unsubscribes and closes every listener's channel. Publish
// after Close is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil
}

// registry tracks live sessions by ID.
type registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*Session)}
}

func (r *registry) add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

func (r *registry) get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}
