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
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/latticeasr/decoder/internal/api"
	"github.com/latticeasr/decoder/internal/graphcache"
	"github.com/latticeasr/decoder/internal/rescore"
	"github.com/latticeasr/decoder/internal/secrets"
	"github.com/latticeasr/decoder/internal/store"
)

var serveStorePath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the utterance store and live decode progress over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveStorePath, "store", "decode.db", "path to the SQLite utterance store")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	shutdownTelemetry, err := setupTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(ctx)

	st, err := store.Open(serveStorePath)
	if err != nil {
		return fmt.Errorf("serve: opening store: %w", err)
	}
	defer st.Close()

	rescorer, err := buildRescorer()
	if err != nil {
		slog.Warn("serve: rescoring disabled", slog.Any("error", err))
	}

	if cfg.GraphCache.Dir != "" {
		cache, err := graphcache.Open(graphcache.Options{
			Dir:    cfg.GraphCache.Dir,
			Logger: graphcache.NewSlogLogger(slog.Default()),
		})
		if err != nil {
			slog.Warn("serve: graph cache disabled", slog.Any("error", err))
		} else {
			defer cache.Close()
			gcInterval := 1 * time.Hour
			if cfg.GraphCache.ValueLogGCFreq != "" {
				if d, err := time.ParseDuration(cfg.GraphCache.ValueLogGCFreq); err == nil {
					gcInterval = d
				} else {
					slog.Warn("serve: invalid graph_cache.value_log_gc_freq, using default", slog.Any("error", err))
				}
			}
			stopGC := runGraphCacheGC(ctx, cache, gcInterval)
			defer stopGC()
		}
	}

	srv := api.NewServer(api.Config{Debug: cfg.SlogLevel() == slog.LevelDebug}, st, rescorer)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Handler(),
	}

	errs := make(chan error, 1)
	go func() {
		slog.Info("serve: listening", slog.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		slog.Info("serve: shutting down")
	case err := <-errs:
		return fmt.Errorf("serve: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// runGraphCacheGC periodically runs cache's badger value-log garbage
// collection on a ticker until the returned stop func is called or ctx
// is cancelled, per graphcache.Cache.RunGC's documented intent.
func runGraphCacheGC(ctx context.Context, cache *graphcache.Cache, interval time.Duration) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := cache.RunGC(0.5); err != nil {
					slog.Warn("serve: graph cache gc", slog.Any("error", err))
				}
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

// buildRescorer constructs an internal/rescore.Rescorer from cfg and
// the OPENAI_API_KEY environment variable, held in a memguard-locked
// buffer while the client is built and destroyed when buildRescorer
// returns. Returns a
// nil Rescorer (not an error) when rescoring is disabled in
// configuration.
func buildRescorer() (*rescore.Rescorer, error) {
	if !cfg.Rescore.Enabled {
		return nil, nil
	}

	key, err := secrets.FromEnv("OPENAI_API_KEY")
	if err != nil {
		return nil, fmt.Errorf("rescore: reading OPENAI_API_KEY: %w", err)
	}
	defer key.Destroy()

	var model *openai.LLM
	key.Reveal(func(value []byte) {
		model, err = openai.New(openai.WithToken(string(value)), openai.WithModel(cfg.Rescore.Model))
	})
	if err != nil {
		return nil, fmt.Errorf("rescore: building client: %w", err)
	}

	return rescore.New(model), nil
}
