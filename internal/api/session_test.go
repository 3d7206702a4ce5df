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
	"testing"
	"time"
)

func TestSessionPublishDeliversToSubscriber(t *testing.T) {
	s := NewSession()
	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	s.Publish(ProgressMessage{Type: "frame", Frame: 1})

	select {
	case msg := <-ch:
		if msg.Frame != 1 {
			t.Errorf("msg.Frame = %d, want 1", msg.Frame)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestSessionPublishDropsWhenSubscriberBufferFull(t *testing.T) {
	s := NewSession()
	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	for i := 0; i < 1000; i++ {
		s.Publish(ProgressMessage{Type: "frame", Frame: i})
	}

	if len(ch) == 0 {
		t.Fatal("expected the subscriber's buffer to retain some messages")
	}
}

func TestSessionCloseClosesSubscriberChannels(t *testing.T) {
	s := NewSession()
	ch, _ := s.Subscribe()
	s.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel to be closed with no remaining value")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestSessionSubscribeAfterCloseReturnsClosedChannel(t *testing.T) {
	s := NewSession()
	s.Close()

	ch, _ := s.Subscribe()
	if _, ok := <-ch; ok {
		t.Fatal("expected an already-closed channel")
	}
}

func TestSessionPublishAfterCloseIsNoop(t *testing.T) {
	s := NewSession()
	s.Close()
	s.Publish(ProgressMessage{Type: "frame"})
}

func TestRegistryAddGetRemove(t *testing.T) {
	r := newRegistry()
	s := NewSession()
	r.add(s)

	got, ok := r.get(s.ID)
	if !ok || got != s {
		t.Fatalf("expected to retrieve the added session")
	}

	r.remove(s.ID)
	if _, ok := r.get(s.ID); ok {
		t.Fatal("expected session to be gone after remove")
	}
}
