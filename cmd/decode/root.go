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
	"log/slog"
	"os"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/latticeasr/decoder/internal/config"
)

var (
	configPath string
	cfg        *config.Config
)

// rootCmd is the decode CLI's entry point. Every subcommand reads cfg,
// populated by rootCmd's PersistentPreRunE once --config has been
// parsed.
var rootCmd = &cobra.Command{
	Use:   "decode",
	Short: "Word-pruning beam search decoder",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.SlogLevel(),
		})))

		memguard.CatchInterrupt()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a decode configuration YAML file (defaults to the built-in configuration)")
	rootCmd.AddCommand(runCmd, serveCmd, replayCmd, diffCmd, initCmd, watchCmd)
}

// Execute runs the decode CLI.
func Execute() error {
	defer memguard.Purge()
	return rootCmd.Execute()
}
