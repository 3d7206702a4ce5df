// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store persists utterance outcomes (the harvested N-best
// transcripts and their scores) to a local SQLite database, so
// cmd/decode replay and diff can compare a run against history without
// re-running the search.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/latticeasr/decoder/search/lattice"
)

//go:embed migrations/001_initial_schema.up.sql
var migration001SQL string

// Store is a SQLite-backed record of decoded utterances.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// applies pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: setting pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(migration001SQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: running migration: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// UtteranceRecord is one completed utterance's persisted summary.
type UtteranceRecord struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	FrameCount    int
	TokensCreated int
	Hypotheses    []lattice.Hypothesis
	Rescored      bool
}

// SaveUtterance inserts rec and its N-best hypotheses in a single
// transaction, so a crash mid-write never leaves an utterance with a
// partial hypothesis set.
func (s *Store) SaveUtterance(ctx context.Context, rec UtteranceRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var bestScore sql.NullFloat64
	var bestTranscript sql.NullString
	if len(rec.Hypotheses) > 0 {
		bestScore = sql.NullFloat64{Float64: rec.Hypotheses[0].Score, Valid: true}
		bestTranscript = sql.NullString{String: transcriptOf(rec.Hypotheses[0]), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO utterances (id, started_at, finished_at, frame_count, tokens_created, best_score, best_transcript)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			frame_count = excluded.frame_count,
			tokens_created = excluded.tokens_created,
			best_score = excluded.best_score,
			best_transcript = excluded.best_transcript`,
		rec.ID, rec.StartedAt, rec.FinishedAt, rec.FrameCount, rec.TokensCreated, bestScore, bestTranscript)
	if err != nil {
		return fmt.Errorf("store: upserting utterance: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM hypotheses WHERE utterance_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("store: clearing prior hypotheses: %w", err)
	}

	rescored := 0
	if rec.Rescored {
		rescored = 1
	}
	for i, h := range rec.Hypotheses {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO hypotheses (utterance_id, rank, transcript, score, rescored)
			VALUES (?, ?, ?, ?, ?)`,
			rec.ID, i, transcriptOf(h), h.Score, rescored)
		if err != nil {
			return fmt.Errorf("store: inserting hypothesis %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetUtterance loads a previously-saved utterance and its hypotheses.
func (s *Store) GetUtterance(ctx context.Context, id string) (*UtteranceRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, frame_count, tokens_created
		FROM utterances WHERE id = ?`, id)

	rec := &UtteranceRecord{}
	var finishedAt sql.NullTime
	if err := row.Scan(&rec.ID, &rec.StartedAt, &finishedAt, &rec.FrameCount, &rec.TokensCreated); err != nil {
		return nil, fmt.Errorf("store: loading utterance %s: %w", id, err)
	}
	rec.FinishedAt = finishedAt.Time

	rows, err := s.db.QueryContext(ctx, `
		SELECT transcript, score, rescored FROM hypotheses
		WHERE utterance_id = ? ORDER BY rank ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("store: loading hypotheses for %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var transcript string
		var score float64
		var rescored int
		if err := rows.Scan(&transcript, &score, &rescored); err != nil {
			return nil, fmt.Errorf("store: scanning hypothesis row: %w", err)
		}
		rec.Hypotheses = append(rec.Hypotheses, lattice.Hypothesis{Words: splitWords(transcript), Score: score})
		if rescored != 0 {
			rec.Rescored = true
		}
	}
	return rec, rows.Err()
}

func transcriptOf(h lattice.Hypothesis) string {
	return strings.Join(h.Words, " ")
}

func splitWords(transcript string) []string {
	return strings.Fields(transcript)
}
