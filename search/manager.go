// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package search implements C6, the SearchManager core loop described
// in spec.md §4.6: the per-frame score/prune/grow pipeline that drives
// a word-pruning breadth-first search over a linguist's static graph.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/latticeasr/decoder/search/activelist"
	"github.com/latticeasr/decoder/search/besttoken"
	"github.com/latticeasr/decoder/search/lattice"
	"github.com/latticeasr/decoder/search/state"
	"github.com/latticeasr/decoder/search/token"
)

// lifecycle tracks the manager's coarse state machine
// (Created → Started → Stopped); the "Frame(n)" refinement of Started
// is tracked separately by currentFrame.
type lifecycle int

const (
	lifecycleCreated lifecycle = iota
	lifecycleStarted
	lifecycleStopped
)

// FrameStats is passed to an optional OnFrame observer after each
// frame, for diagnostics (internal/metrics, wired by cmd/decode run)
// that must not live inside the core loop itself. TokensCreated counts
// the tokens allocated during that frame only.
type FrameStats struct {
	Frame            int
	EmittingSize     int
	PrunedSize       int
	TokensCreated    int
	ResultListSize   int
}

// Manager is the SearchManager: it owns the token arena, the
// ActiveListManager, the per-frame BestTokenMap, and the
// AlternateHypothesisManager, and drives them against the Linguist,
// Scorer, and Pruner collaborators.
//
// Manager is not safe for concurrent use; spec.md §5 specifies a
// single-threaded cooperative core.
type Manager struct {
	linguist state.Linguist
	scorer   Scorer
	pruner   Pruner
	cfg      Config

	relativeBeamWidthLog float64

	order            []state.Class
	nonEmittingOrder []state.Class
	emittingClass    state.Class

	arena *token.Arena
	alm   *activelist.Manager

	resultList   []*token.Token
	altManager   *lattice.AlternateHypothesisManager
	currentFrame int
	life         lifecycle

	// OnFrame, if set, is invoked once per processed frame (including
	// skipped-growth frames) with a snapshot of that frame's stats.
	OnFrame func(FrameStats)

	// OnStateVisit, if set, is invoked with a newly grown token's
	// SearchState.ID() every time collectSuccessors creates one, for
	// diagnostics (internal/metrics.StateVisitTracker) that estimate
	// how many distinct states a single utterance's search actually
	// touches. It must not be expensive: it runs on Manager's hot path.
	OnStateVisit func(stateID any)
}

// New creates a Manager for the given collaborators and configuration.
func New(linguist state.Linguist, scorer Scorer, pruner Pruner, cfg Config) *Manager {
	if cfg.KeyOf == nil {
		cfg.KeyOf = defaultKeyFunc
	}
	return &Manager{
		linguist:             linguist,
		scorer:               scorer,
		pruner:               pruner,
		cfg:                  cfg,
		relativeBeamWidthLog: math.Log(cfg.RelativeBeamWidth),
		life:                 lifecycleCreated,
	}
}

// Start starts the collaborators (concurrently, via errgroup, since
// each collaborator's own Start is independent of the others),
// initializes the frame counter to 0, obtains the initial search
// state, creates its token, and grows it directly from a throwaway
// seed list — including the full non-emitting ε-closure — so the
// first emitting stratum is populated before any frame is scored
// (spec.md §4.6 "Lifecycle"). The initial token itself is never added
// to m.alm: it is a seed for collectSuccessors, not a member of any
// stratum, so growNonEmitting's fixpoint walk never revisits it.
func (m *Manager) Start(ctx context.Context) error {
	if m.life == lifecycleStarted {
		return ErrAlreadyStarted
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(m.linguist.Start)
	g.Go(m.scorer.Start)
	g.Go(m.pruner.Start)
	if err := g.Wait(); err != nil {
		return fmt.Errorf("search: starting collaborators: %w", err)
	}

	order := m.linguist.SearchStateOrder()
	if len(order) == 0 {
		return ErrEmptyStateOrder
	}
	m.order = order
	m.emittingClass = order[len(order)-1]
	m.nonEmittingOrder = order[:len(order)-1]

	initial := m.linguist.InitialSearchState()
	if initial == nil {
		return ErrNoInitialState
	}

	template, err := m.newActiveListTemplate()
	if err != nil {
		return err
	}

	m.arena = token.NewArena()
	m.alm = activelist.NewManager(order, template)
	m.altManager = lattice.New()
	m.resultList = nil
	m.currentFrame = 0

	initialToken := m.arena.New(initial, 0, 0.0, nil)

	seed := activelist.NewSimpleActiveList(m.relativeBeamWidthLog)
	seed.Add(initialToken)
	bestMap := m.newBestTokenMap(seed.Size())
	if err := m.growBranchesWithMap(seed, bestMap); err != nil {
		return err
	}
	if err := m.growNonEmitting(bestMap); err != nil {
		return err
	}

	m.life = lifecycleStarted
	slog.Info("search: started", slog.Int("state_classes", len(order)))
	return nil
}

// newActiveListTemplate resolves Config.ActiveListType into the
// ActiveList implementation ActiveListManager clones per state-class
// slot. An empty ActiveListType is treated as ActiveListTypeSimple.
func (m *Manager) newActiveListTemplate() (activelist.ActiveList, error) {
	switch m.cfg.ActiveListType {
	case "", ActiveListTypeSimple:
		return activelist.NewSimpleActiveList(m.relativeBeamWidthLog), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActiveListType, m.cfg.ActiveListType)
	}
}

// Stop stops the collaborators and discards the token arena, leaving
// the final result list (spec.md §4.6 "Lifecycle"). Reentering Start
// after Stop re-initializes the frame counter to 0.
func (m *Manager) Stop() error {
	if m.life != lifecycleStarted {
		return ErrNotStarted
	}
	var firstErr error
	for _, stop := range []func() error{m.linguist.Stop, m.scorer.Stop, m.pruner.Stop} {
		if err := stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if m.arena != nil {
		m.arena.Reset()
	}
	m.life = lifecycleStopped
	slog.Info("search: stopped", slog.Int("final_frame", m.currentFrame))
	return firstErr
}

// Recognize executes up to nFrames iterations of the per-frame loop
// (spec.md §4.6 "Per-frame loop"), stopping early if the scorer
// signals no more data, and returns a Result snapshot.
func (m *Manager) Recognize(nFrames int) (lattice.Result, error) {
	if m.life != lifecycleStarted {
		return lattice.Result{}, ErrNotStarted
	}

	isFinal := false
	for i := 0; i < nFrames; i++ {
		done, err := m.frame()
		if err != nil {
			return lattice.Result{}, fmt.Errorf("search: frame %d: %w", m.currentFrame, err)
		}
		if done {
			isFinal = true
			break
		}
	}

	return lattice.Result{
		Alternates:      m.altManager,
		FinalActiveList: m.alm.PeekSlot(m.emittingClass).Tokens(),
		ResultList:      append([]*token.Token(nil), m.resultList...),
		CurrentFrame:    m.currentFrame,
		IsFinal:         isFinal,
	}, nil
}

// frame executes one iteration of the per-frame loop. done reports
// end-of-stream (the scorer returned no more data).
func (m *Manager) frame() (done bool, err error) {
	// Step 1: take the emitting stratum.
	emitting := m.alm.EmittingList(m.emittingClass)

	// Step 2: advance current_frame, score.
	m.currentFrame++
	_, ok := m.scorer.CalculateScores(emitting.Tokens())
	if !ok {
		m.alm.SetSlot(m.emittingClass, emitting)
		return true, nil
	}

	// Step 3: grow-skip check.
	if m.cfg.GrowSkipInterval > 1 && m.currentFrame%m.cfg.GrowSkipInterval == 0 {
		m.alm.SetSlot(m.emittingClass, emitting)
		if m.OnFrame != nil {
			m.OnFrame(FrameStats{Frame: m.currentFrame, EmittingSize: emitting.Size(), ResultListSize: len(m.resultList)})
		}
		return false, nil
	}

	// Step 5: prune (step 4's BestTokenMap sizing is computed in step 7 by
	// newBestTokenMap, keyed off emitting's pre-prune size per spec.md's
	// "sized ≈ 2x the active-list size" — measured before pruning, the
	// largest the map will need to be this frame).
	sizeHint := emitting.Size()
	pruned, err := m.pruner.Prune(emitting)
	if err != nil {
		return false, fmt.Errorf("pruning emitting stratum: %w", err)
	}

	// Step 6: reset the result list.
	m.resultList = m.resultList[:0]

	// Step 7: grow emitting branches. The BestTokenMap created here is
	// shared with step 8's non-emitting growth: it is a per-FRAME
	// structure (spec.md §3's invariant is stated per (state, frame),
	// not per stratum), and the design notes in spec.md §9 rely on a
	// token already recorded at a state with a better score blocking
	// re-entry to terminate ε-cycles across strata within the frame.
	createdBefore := m.arena.Created()
	bestMap := m.newBestTokenMap(sizeHint)
	if m.cfg.AcousticLookaheadFrames > 0 {
		if err := m.growEmittingLookahead(pruned, bestMap); err != nil {
			return false, err
		}
	} else {
		if err := m.growBranchesWithMap(pruned, bestMap); err != nil {
			return false, err
		}
	}

	// Step 8: grow non-emitting strata to fixpoint.
	if err := m.growNonEmitting(bestMap); err != nil {
		return false, err
	}

	if m.OnFrame != nil {
		m.OnFrame(FrameStats{
			Frame:          m.currentFrame,
			EmittingSize:   emitting.Size(),
			PrunedSize:     pruned.Size(),
			TokensCreated:  m.arena.Created() - createdBefore,
			ResultListSize: len(m.resultList),
		})
	}
	if m.cfg.ShowTokenCount {
		slog.Debug("search: frame", slog.Int("frame", m.currentFrame),
			slog.Int("pruned_size", pruned.Size()), slog.Int("tokens_created", m.arena.Created()))
	}

	return false, nil
}

func (m *Manager) newBestTokenMap(activeListSize int) besttoken.Map {
	if m.cfg.MaxHeapSize > 0 {
		hm, err := besttoken.NewHeapMap(m.cfg.MaxHeapSize)
		if err == nil {
			return hm
		}
	}
	return besttoken.NewSingleBestMap(besttoken.NewDefaultSize(activeListSize))
}

// growNonEmitting drives the ε-closure: while the ActiveListManager has
// a non-empty non-emitting stratum, take it, prune it, and grow it
// (spec.md §4.6 step 8), all strata sharing bestMap so that a token
// already recorded at a state with a better score blocks re-entry
// into an earlier-drained stratum (spec.md §9).
func (m *Manager) growNonEmitting(bestMap besttoken.Map) error {
	for {
		_, list, ok := m.alm.NonEmittingIter(m.nonEmittingOrder)
		if !ok {
			return nil
		}
		pruned, err := m.pruner.Prune(list)
		if err != nil {
			return fmt.Errorf("pruning non-emitting stratum: %w", err)
		}
		if err := m.growBranchesWithMap(pruned, bestMap); err != nil {
			return err
		}
	}
}

// growBranchesWithMap grows every token in list whose score is at or
// above the list's beam threshold against the given (frame-scoped)
// BestTokenMap.
func (m *Manager) growBranchesWithMap(list activelist.ActiveList, bestMap besttoken.Map) error {
	threshold := list.BeamThreshold()
	for _, t := range list.Tokens() {
		if t.Score < threshold {
			continue
		}
		if err := m.collectSuccessors(t, bestMap); err != nil {
			return err
		}
	}
	return nil
}

// growEmittingLookahead implements the acoustic-look-ahead growth
// variant (spec.md §4.6): it gates expansion on a working score that
// anticipates acoustic evidence acoustic_lookahead_frames ahead,
// without modifying Score itself.
func (m *Manager) growEmittingLookahead(list activelist.ActiveList, bestMap besttoken.Map) error {
	tokens := list.Tokens()
	bestWorking := math.Inf(-1)
	for _, t := range tokens {
		delta := 0.0
		if anc := t.LastEmittingAncestor(); anc != nil {
			delta = t.AcousticScore - anc.AcousticScore
		}
		t.WorkingScore = t.Score + (t.AcousticScore+delta)*m.cfg.AcousticLookaheadFrames
		if t.WorkingScore > bestWorking {
			bestWorking = t.WorkingScore
		}
	}
	threshold := bestWorking + m.relativeBeamWidthLog
	for _, t := range tokens {
		if t.WorkingScore < threshold {
			continue
		}
		if err := m.collectSuccessors(t, bestMap); err != nil {
			return err
		}
	}
	return nil
}

// collectSuccessors implements spec.md §4.6 "Growth: collect_successors(token)".
func (m *Manager) collectSuccessors(t *token.Token, bestMap besttoken.Map) error {
	if t.IsFinal() {
		m.resultList = append(m.resultList, t.WordPredecessor(m.cfg.KeepAllTokens))
		return nil
	}

	wordPred := t.WordPredecessor(m.cfg.KeepAllTokens)
	srcClass := t.SearchState.StateClass()
	srcEmitting := t.SearchState.IsEmitting()
	srcIdx := state.ClassIndex(m.order, srcClass)

	for _, arc := range t.SearchState.Successors() {
		targetClass := arc.State.StateClass()

		if m.cfg.CheckStateOrder && !srcEmitting {
			tgtIdx := state.ClassIndex(m.order, targetClass)
			if tgtIdx < srcIdx {
				return fmt.Errorf("%w: %v (class %d) -> %v (class %d)",
					state.ErrStateOrderViolation, srcClass, srcIdx, targetClass, tgtIdx)
			}
		}

		entryScore := t.Score + arc.Probability
		key := m.cfg.KeyOf(arc.State)
		best := bestMap.Get(key)

		if best == nil || entryScore > best.Score {
			newTok := m.arena.New(arc.State, m.currentFrame, entryScore, wordPred)
			newTok.LanguageScore = arc.LanguageProbability
			newTok.InsertionScore = arc.InsertionProbability
			bestMap.Put(key, newTok)

			if m.OnStateVisit != nil {
				m.OnStateVisit(arc.State.ID())
			}

			if best == nil {
				if err := m.alm.Add(newTok); err != nil {
					return err
				}
			} else {
				if err := m.alm.Replace(best, newTok); err != nil {
					return err
				}
				if m.cfg.BuildWordLattice && arc.State.IsWord() {
					m.altManager.AddAlternatePredecessor(newTok, best.Predecessor)
					m.altManager.ChangeSuccessor(newTok, best)
				}
			}
		} else if m.cfg.BuildWordLattice && arc.State.IsWord() && wordPred != nil {
			m.altManager.AddAlternatePredecessor(best, wordPred)
		}
	}
	return nil
}

// CurrentFrame returns the manager's current frame counter.
func (m *Manager) CurrentFrame() int { return m.currentFrame }
