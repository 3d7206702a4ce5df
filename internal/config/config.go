// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates the decoder's runtime
// configuration: the search tuning surface (search.Config), the
// acoustic look-ahead and pruning knobs exposed to operators, and the
// ambient concerns (logging, the API server, metrics export) that sit
// above the core search loop.
package config

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/latticeasr/decoder/search"
)

//go:embed default.yaml
var defaultYAML []byte

// MaxYAMLFileSize bounds how large a configuration file this package
// will parse, guarding against a misdirected path pointing at an
// unrelated multi-gigabyte file.
const MaxYAMLFileSize = 1 << 20

// SearchConfig mirrors search.Config's fields for YAML decoding; the
// core Config type itself carries a KeyFunc, which is not
// representable in YAML, so configuration loading produces this
// intermediate shape and converts it with ToSearchConfig.
type SearchConfig struct {
	ShowTokenCount          bool    `yaml:"show_token_count"`
	CheckStateOrder         bool    `yaml:"check_state_order"`
	BuildWordLattice        bool    `yaml:"build_word_lattice"`
	GrowSkipInterval        int     `yaml:"grow_skip_interval"`
	AcousticLookaheadFrames float64 `yaml:"acoustic_lookahead_frames"`
	KeepAllTokens           bool    `yaml:"keep_all_tokens"`
	RelativeBeamWidth       float64 `yaml:"relative_beam_width"`
	MaxHeapSize             int     `yaml:"max_heap_size"`
	ActiveListType          string  `yaml:"active_list_type"`
}

// ToSearchConfig converts the YAML-decoded surface into a search.Config,
// preserving DefaultConfig's KeyOf since no YAML representation of a
// key function exists.
func (s SearchConfig) ToSearchConfig() search.Config {
	cfg := search.DefaultConfig()
	cfg.ShowTokenCount = s.ShowTokenCount
	cfg.CheckStateOrder = s.CheckStateOrder
	cfg.BuildWordLattice = s.BuildWordLattice
	cfg.GrowSkipInterval = s.GrowSkipInterval
	cfg.AcousticLookaheadFrames = s.AcousticLookaheadFrames
	cfg.KeepAllTokens = s.KeepAllTokens
	if s.RelativeBeamWidth > 0 {
		cfg.RelativeBeamWidth = s.RelativeBeamWidth
	}
	cfg.MaxHeapSize = s.MaxHeapSize
	if s.ActiveListType != "" {
		cfg.ActiveListType = s.ActiveListType
	}
	return cfg
}

// ServerConfig configures internal/api's HTTP and WebSocket surface.
type ServerConfig struct {
	Addr             string `yaml:"addr"`
	EnableWebSocket  bool   `yaml:"enable_websocket"`
	MaxUploadBytes   int64  `yaml:"max_upload_bytes"`
}

// MetricsConfig configures internal/metrics exporters.
type MetricsConfig struct {
	PrometheusAddr string `yaml:"prometheus_addr"`
	InfluxURL      string `yaml:"influx_url"`
	InfluxOrg      string `yaml:"influx_org"`
	InfluxBucket   string `yaml:"influx_bucket"`
}

// GraphCacheConfig configures internal/graphcache's on-disk compiled
// grammar cache.
type GraphCacheConfig struct {
	Dir            string `yaml:"dir"`
	ValueLogGCFreq string `yaml:"value_log_gc_freq"`
}

// ContextBiasConfig configures internal/contextbias's vector-similarity
// lookup for dynamic grammar biasing.
type ContextBiasConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WeaviateURL string `yaml:"weaviate_url"`
	ClassName  string `yaml:"class_name"`
	TopK       int    `yaml:"top_k"`
}

// RescoreConfig configures internal/rescore's post-decode LLM rescoring
// pass.
type RescoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	NBest   int    `yaml:"n_best"`
}

// TracingConfig configures cmd/decode's OpenTelemetry tracer provider.
// When OTLPEndpoint is empty, cmd/decode falls back to a stdout
// exporter, useful for local runs without a collector.
type TracingConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// Config is the top-level decoder configuration file shape, loaded
// once at process startup (cmd/decode) and optionally hot-reloaded via
// Watcher.
//
// Thread Safety: Config values are immutable once loaded; Watcher
// delivers each reload as a fresh *Config rather than mutating one in
// place.
type Config struct {
	LogLevel string `yaml:"log_level"`

	Search      SearchConfig      `yaml:"search"`
	Server      ServerConfig      `yaml:"server"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	GraphCache  GraphCacheConfig  `yaml:"graph_cache"`
	ContextBias ContextBiasConfig `yaml:"context_bias"`
	Rescore     RescoreConfig     `yaml:"rescore"`
	Tracing     TracingConfig     `yaml:"tracing"`
}

// Default returns the configuration embedded in the binary at build
// time (default.yaml), parsed and validated. It never returns an
// error in practice — default.yaml is checked into the repository —
// but still returns one so callers handle load failures uniformly
// with Load.
func Default() (*Config, error) {
	return parse(defaultYAML)
}

// Load reads and validates the configuration file at path. If path is
// empty, Load returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("config: empty configuration data")
	}
	if len(data) > MaxYAMLFileSize {
		return nil, fmt.Errorf("config: data exceeds maximum size (%d > %d)", len(data), MaxYAMLFileSize)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing YAML: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}
	return cfg, nil
}

// defaults seeds a Config with the same defaults search.DefaultConfig
// provides, so a partial YAML document only needs to override the
// fields it cares about.
func defaults() *Config {
	sc := search.DefaultConfig()
	return &Config{
		LogLevel: "info",
		Search: SearchConfig{
			BuildWordLattice:  sc.BuildWordLattice,
			RelativeBeamWidth: sc.RelativeBeamWidth,
			ActiveListType:    sc.ActiveListType,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 64 << 20,
		},
		Metrics: MetricsConfig{
			PrometheusAddr: ":9090",
		},
		GraphCache: GraphCacheConfig{
			Dir: "./graphcache-data",
		},
		ContextBias: ContextBiasConfig{
			TopK: 5,
		},
		Rescore: RescoreConfig{
			NBest: 10,
		},
		Tracing: TracingConfig{
			Enabled: false,
		},
	}
}

func validate(cfg *Config) error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level: must be one of debug, info, warn, error, got %q", cfg.LogLevel)
	}
	if cfg.Search.RelativeBeamWidth <= 0 || cfg.Search.RelativeBeamWidth > 1 {
		return fmt.Errorf("search.relative_beam_width: must be in (0, 1], got %v", cfg.Search.RelativeBeamWidth)
	}
	switch cfg.Search.ActiveListType {
	case "", search.ActiveListTypeSimple:
	default:
		return fmt.Errorf("search.active_list_type: unsupported implementation %q", cfg.Search.ActiveListType)
	}
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr: must not be empty")
	}
	if cfg.ContextBias.Enabled && cfg.ContextBias.WeaviateURL == "" {
		return fmt.Errorf("context_bias.weaviate_url: required when context_bias.enabled is true")
	}
	if cfg.Rescore.Enabled && cfg.Rescore.Model == "" {
		return fmt.Errorf("rescore.model: required when rescore.enabled is true")
	}
	return nil
}

// SlogLevel converts LogLevel into a slog.Level for the CLI's logger
// setup.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// contextKey avoids collisions with other packages' context values.
type contextKey struct{}

// WithContext attaches cfg to ctx, for handlers deep in internal/api
// that need configuration without threading it through every call.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext retrieves a Config attached by WithContext, or nil if
// none was attached.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(contextKey{}).(*Config)
	return cfg
}
