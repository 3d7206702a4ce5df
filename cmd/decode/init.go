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
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/latticeasr/decoder/internal/config"
)

var initOutPath string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively scaffold a new decode configuration file",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().StringVar(&initOutPath, "out", "decode.yaml", "path to write the generated configuration to")
}

func runInit(cmd *cobra.Command, args []string) error {
	var (
		logLevel          = "info"
		beamWidthExponent = "80"
		lookaheadFrames   = "0"
		buildLattice      = true
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&logLevel),
			huh.NewInput().
				Title("Relative beam width, as 10^-n").
				Description("Larger n widens the beam and slows decoding, with a lower risk of search errors.").
				Value(&beamWidthExponent),
			huh.NewInput().
				Title("Acoustic look-ahead frames (0 disables)").
				Value(&lookaheadFrames),
			huh.NewConfirm().
				Title("Build the word lattice (alternate hypotheses)?").
				Value(&buildLattice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	exponent, err := strconv.Atoi(beamWidthExponent)
	if err != nil {
		return fmt.Errorf("init: invalid beam width exponent %q: %w", beamWidthExponent, err)
	}
	lookahead, err := strconv.ParseFloat(lookaheadFrames, 64)
	if err != nil {
		return fmt.Errorf("init: invalid look-ahead frame count %q: %w", lookaheadFrames, err)
	}

	base, err := config.Default()
	if err != nil {
		return err
	}
	base.LogLevel = logLevel
	base.Search.RelativeBeamWidth = math.Pow(10, -float64(exponent))
	base.Search.AcousticLookaheadFrames = lookahead
	base.Search.BuildWordLattice = buildLattice

	out, err := yaml.Marshal(base)
	if err != nil {
		return fmt.Errorf("init: marshaling configuration: %w", err)
	}
	if err := os.WriteFile(initOutPath, out, 0o644); err != nil {
		return fmt.Errorf("init: writing %s: %w", initOutPath, err)
	}

	fmt.Printf("wrote %s\n", initOutPath)
	return nil
}
