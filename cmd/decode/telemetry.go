// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/latticeasr/decoder/internal/config"
)

const tracerName = "decoder.search"

// setupTelemetry wires a tracer provider (run.go's "decode.run" span
// around one utterance's decode, and the otelgin request spans of the
// HTTP server serve.go starts), a meter provider (the otel metrics
// SDK's Prometheus exporter, registered on the same default Prometheus
// registry internal/metrics' promauto collectors use), and a
// promhttp.Handler listening on cfg.Metrics.PrometheusAddr that scrapes
// both. It returns a shutdown func that flushes and closes the
// providers and the /metrics listener.
func setupTelemetry(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	traceExporter, err := newTraceExporter(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("telemetry: building trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExporter))
	otel.SetTracerProvider(tp)

	promExporter, err := otelprometheus.New()
	if err != nil {
		return nil, fmt.Errorf("telemetry: building prometheus metric exporter: %w", err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(promExporter))
	otel.SetMeterProvider(mp)

	var metricsServer *http.Server
	if cfg.Metrics.PrometheusAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: cfg.Metrics.PrometheusAddr, Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Warn("telemetry: metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("telemetry: serving /metrics", slog.String("addr", cfg.Metrics.PrometheusAddr))
	}

	return func(shutdownCtx context.Context) error {
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Warn("telemetry: metrics server shutdown failed", slog.Any("error", err))
			}
		}
		if err := tp.Shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry: tracer provider shutdown failed", slog.Any("error", err))
		}
		return mp.Shutdown(shutdownCtx)
	}, nil
}

func newTraceExporter(ctx context.Context, cfg config.TracingConfig) (sdktrace.SpanExporter, error) {
	if cfg.Enabled && cfg.OTLPEndpoint != "" {
		return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint), otlptracegrpc.WithInsecure())
	}
	return stdouttrace.New(stdouttrace.WithoutTimestamps())
}
