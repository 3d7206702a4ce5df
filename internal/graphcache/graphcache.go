// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graphcache persists compiled search graphs (spec.md's
// Linguist output: the static graph a Manager walks every frame) on
// disk, keyed by a hash of the grammar source that produced them.
// Compiling a large vocabulary's word-pruning graph is the most
// expensive step in bringing a decoder up; caching it means a
// redeployed cmd/decode process with an unchanged grammar skips
// recompilation entirely.
package graphcache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned by Get when no cached graph matches key.
var ErrNotFound = errors.New("graphcache: no cached graph for key")

// Cache is an on-disk, process-durable store of compiled graph blobs.
// The value under each key is whatever byte encoding the caller's
// graph-compiler round-trips through (e.g. gob, protobuf); graphcache
// is agnostic to the graph's in-memory representation.
type Cache struct {
	db *badger.DB
}

// Options configures Cache.
type Options struct {
	// Dir is the badger data directory. Required.
	Dir string

	// TTL is not read by Open or by any Cache method: expiry is set per
	// entry by Put's ttl argument, where zero means the entry never
	// expires on its own.
	TTL time.Duration

	// Logger, if set, receives badger's internal log lines. Badger is
	// chatty at info level by default; cmd/decode wires its own
	// log/slog-backed adapter here so graphcache output matches the
	// rest of the process's structured logs.
	Logger badger.Logger
}

// Open opens or creates a Cache at opts.Dir.
func Open(opts Options) (*Cache, error) {
	if opts.Dir == "" {
		return nil, errors.New("graphcache: Dir is required")
	}

	bopts := badger.DefaultOptions(opts.Dir)
	if opts.Logger != nil {
		bopts = bopts.WithLogger(opts.Logger)
	} else {
		bopts = bopts.WithLoggingLevel(badger.WARNING)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("graphcache: opening %s: %w", opts.Dir, err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying badger handles.
func (c *Cache) Close() error {
	return c.db.Close()
}

// KeyFor derives a cache key from a grammar's raw source bytes, so a
// byte-for-byte-unchanged grammar always hits and any edit, however
// small, always misses.
func KeyFor(grammarSource []byte) string {
	sum := sha256.Sum256(grammarSource)
	return hex.EncodeToString(sum[:])
}

// Put stores graph under key, overwriting any existing entry.
func (c *Cache) Put(key string, graph []byte, ttl time.Duration) error {
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), graph)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Get retrieves the graph bytes stored under key, or ErrNotFound if
// absent or expired.
func (c *Cache) Get(key string) ([]byte, error) {
	var out []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the entry under key, if any.
func (c *Cache) Delete(key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// RunGC runs one round of badger's value-log garbage collection,
// reclaiming space from overwritten or expired entries. Intended to be
// called periodically (e.g. hourly) by cmd/decode's serve subcommand,
// not on every Put.
func (c *Cache) RunGC(discardRatio float64) error {
	err := c.db.RunValueLogGC(discardRatio)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}
