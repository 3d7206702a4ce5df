// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graphcache

import (
	"fmt"
	"log/slog"
)

// SlogLogger adapts badger's Logger interface onto log/slog, so
// graphcache's internal diagnostics fold into the same structured log
// stream as the rest of the decoder.
type SlogLogger struct {
	Base *slog.Logger
}

// NewSlogLogger returns a badger.Logger backed by base, tagged with a
// "component=graphcache" attribute.
func NewSlogLogger(base *slog.Logger) SlogLogger {
	if base == nil {
		base = slog.Default()
	}
	return SlogLogger{Base: base.With(slog.String("component", "graphcache"))}
}

func (l SlogLogger) Errorf(format string, args ...interface{}) {
	l.Base.Error(fmt.Sprintf(format, args...))
}

func (l SlogLogger) Warningf(format string, args ...interface{}) {
	l.Base.Warn(fmt.Sprintf(format, args...))
}

func (l SlogLogger) Infof(format string, args ...interface{}) {
	l.Base.Info(fmt.Sprintf(format, args...))
}

func (l SlogLogger) Debugf(format string, args ...interface{}) {
	l.Base.Debug(fmt.Sprintf(format, args...))
}
