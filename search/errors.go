// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import "errors"

// ErrNotStarted is returned by Recognize or Stop when called before a
// successful Start.
var ErrNotStarted = errors.New("search: manager not started")

// ErrAlreadyStarted is returned by Start when called on a manager that
// is already running.
var ErrAlreadyStarted = errors.New("search: manager already started")

// ErrNoInitialState is returned by Start when the Linguist reports a
// nil initial search state — a fatal programmer error per spec.md §7.
var ErrNoInitialState = errors.New("search: linguist returned no initial search state")

// ErrEmptyStateOrder is returned by Start when the Linguist's
// SearchStateOrder is empty; the manager has no way to identify the
// emitting stratum.
var ErrEmptyStateOrder = errors.New("search: linguist declared an empty state order")

// ErrUnknownActiveListType is returned by Start when Config.ActiveListType
// names an ActiveList implementation search/activelist does not provide.
var ErrUnknownActiveListType = errors.New("search: unknown active list type")
