// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package secrets guards credentials the decoder holds in memory for
// the lifetime of the process: rescore's LLM API key and
// contextbias's Weaviate bearer token. Both are read once at startup
// and used on every request, so they otherwise sit as plain strings
// in the Go heap for the process's whole lifetime, swappable and
// visible to a core dump; memguard locks them in guarded, non-swappable
// pages instead.
package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/awnumar/memguard"
)

// ErrEmptySecret is returned when a secret source yields no bytes.
var ErrEmptySecret = errors.New("secrets: empty secret")

// Credential wraps a memguard.LockedBuffer holding one secret value.
// The zero Credential is not usable; construct one with FromEnv or
// FromString.
type Credential struct {
	buf *memguard.LockedBuffer
}

// FromString copies value into a locked buffer. Go strings are
// immutable, so the original string itself cannot be wiped from
// memory; callers that can source the secret as a []byte instead
// (e.g. a file read) avoid that extra unwiped copy entirely.
func FromString(value string) (*Credential, error) {
	if value == "" {
		return nil, ErrEmptySecret
	}
	buf := memguard.NewBufferFromBytes([]byte(value))
	return &Credential{buf: buf}, nil
}

// FromEnv reads the named environment variable into a locked buffer
// and unsets it from the process environment, so it does not linger
// in os.Environ() or get inherited by child processes spawned later.
func FromEnv(name string) (*Credential, error) {
	value, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(value) == "" {
		return nil, ErrEmptySecret
	}
	os.Unsetenv(name)
	return FromString(value)
}

// Reveal exposes the secret's bytes for the duration of fn, and
// nothing else: the byte slice fn receives is only valid for the call.
func (c *Credential) Reveal(fn func(value []byte)) {
	fn(c.buf.Bytes())
}

// Destroy wipes the underlying buffer. Safe to call multiple times.
func (c *Credential) Destroy() {
	c.buf.Destroy()
}

// Purge wipes every LockedBuffer memguard has ever allocated in this
// process; it does not exit. cmd/decode does not call it: Execute
// defers memguard.Purge directly, and the root command enables
// memguard.CatchInterrupt, which purges on an interrupt and exits.
func Purge() {
	memguard.Purge()
}
