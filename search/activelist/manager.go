// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package activelist

import (
	"errors"
	"fmt"

	"github.com/latticeasr/decoder/search/state"
	"github.com/latticeasr/decoder/search/token"
)

// ErrUnknownClass is returned when a token's state class was never
// declared by the Linguist's SearchStateOrder. This is a fatal
// programmer error per spec.md §7.
var ErrUnknownClass = errors.New("activelist: token's state class is not in the linguist's state order")

// ClassOf reports which state class a search state belongs to. It is
// a thin wrapper the manager calls once per routed token; it needs only
// the state, not a full Linguist.
func ClassOf(s state.SearchState) state.Class {
	return s.StateClass()
}

// Manager holds one ActiveList slot per state-class index, in the
// fixed order declared by the Linguist (spec.md §4.3). Exactly one
// slot is the emitting stratum (the last class in state order,
// per spec.md's "non-emitting classes strictly before emitting
// classes"); the rest are non-emitting strata visited in class order.
type Manager struct {
	order     []state.Class
	slots     map[state.Class]ActiveList
	template  ActiveList // used to create slots lazily, via template.New()
	emitIndex int         // always -1: NewManager records no emitting index and nothing reads it
}

// NewManager creates a manager for the given fixed class order. template
// is cloned (via its New method) whenever a new slot is created, so
// every slot shares the same ActiveList implementation and beam
// configuration.
func NewManager(order []state.Class, template ActiveList) *Manager {
	emitIndex := -1
	return &Manager{
		order:     order,
		slots:     make(map[state.Class]ActiveList),
		template:  template,
		emitIndex: emitIndex,
	}
}

func (m *Manager) slotFor(c state.Class) (ActiveList, error) {
	if state.ClassIndex(m.order, c) < 0 {
		return nil, fmt.Errorf("%w: class %v", ErrUnknownClass, c)
	}
	l, ok := m.slots[c]
	if !ok {
		l = m.template.New()
		m.slots[c] = l
	}
	return l, nil
}

// Add routes t into the slot for its search state's class, creating
// the slot lazily if this is the first token of that class this
// frame.
func (m *Manager) Add(t *token.Token) error {
	l, err := m.slotFor(ClassOf(t.SearchState))
	if err != nil {
		return err
	}
	l.Add(t)
	return nil
}

// Replace removes old and inserts new into the same slot old occupies
// (by old's class). Used when a better token supersedes an existing
// one recorded in the BestTokenMap and old is still active.
func (m *Manager) Replace(old, newTok *token.Token) error {
	l, err := m.slotFor(ClassOf(old.SearchState))
	if err != nil {
		return err
	}
	l.Remove(old)
	l.Add(newTok)
	return nil
}

// SetSlot installs l as the active list for class c directly,
// replacing whatever was there (including clearing it if it already
// existed). Used by SearchManager between frames to hand a pruned
// replacement list back to the manager for the emitting stratum.
func (m *Manager) SetSlot(c state.Class, l ActiveList) {
	m.slots[c] = l
}

// EmittingList takes and clears the emitting stratum: the single
// ActiveList holding tokens whose search state is emitting. All tokens
// in the returned list share one frame. Returns an empty list (not
// nil) if nothing is active in the emitting class.
func (m *Manager) EmittingList(emitting state.Class) ActiveList {
	l, ok := m.slots[emitting]
	if !ok {
		return m.template.New()
	}
	delete(m.slots, emitting)
	return l
}

// PeekSlot returns the current ActiveList for class c without
// removing it, or an empty list if nothing is active in it. Used to
// snapshot a stratum (e.g. for a Result) without disturbing the
// manager's bookkeeping.
func (m *Manager) PeekSlot(c state.Class) ActiveList {
	if l, ok := m.slots[c]; ok {
		return l
	}
	return m.template.New()
}

// NonEmittingIter returns the next non-empty non-emitting stratum in
// state-class order, removing it from the manager as it is returned,
// along with the class it belonged to. ok is false once every
// non-emitting stratum has been consumed (ε-closure complete).
// nonEmittingOrder is the subsequence of Manager's order excluding
// emitting classes, as determined by the caller (SearchManager knows
// which classes are emitting because it asks the Linguist's initial
// and successor states).
func (m *Manager) NonEmittingIter(nonEmittingOrder []state.Class) (c state.Class, l ActiveList, ok bool) {
	for _, class := range nonEmittingOrder {
		slot, present := m.slots[class]
		if present && slot.Size() > 0 {
			delete(m.slots, class)
			return class, slot, true
		}
	}
	return state.Class(0), nil, false
}

// HasAny reports whether any non-emitting stratum in nonEmittingOrder
// currently holds tokens, without consuming it. Used for diagnostics.
func (m *Manager) HasAny(nonEmittingOrder []state.Class) bool {
	for _, class := range nonEmittingOrder {
		if slot, ok := m.slots[class]; ok && slot.Size() > 0 {
			return true
		}
	}
	return false
}
