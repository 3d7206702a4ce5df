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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/spf13/cobra"

	"github.com/latticeasr/decoder/internal/store"
)

var (
	replayStorePath string
	replayUpload    string
)

var replayCmd = &cobra.Command{
	Use:   "replay <utterance-id>",
	Short: "Print a previously-decoded utterance's N-best hypotheses",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayStorePath, "store", "decode.db", "path to the SQLite utterance store")
	replayCmd.Flags().StringVar(&replayUpload, "upload", "", "gs://bucket/object to upload a JSON snapshot of this utterance to")
}

func runReplay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := store.Open(replayStorePath)
	if err != nil {
		return fmt.Errorf("replay: opening store: %w", err)
	}
	defer st.Close()

	rec, err := st.GetUtterance(ctx, args[0])
	if err != nil {
		return fmt.Errorf("replay: loading utterance %s: %w", args[0], err)
	}

	printHypotheses(os.Stdout, rec.Hypotheses)

	if replayUpload == "" {
		return nil
	}
	bucket, object, err := parseGCSPath(replayUpload)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	return uploadSnapshot(ctx, bucket, object, rec)
}

func uploadSnapshot(ctx context.Context, bucket, object string, rec *store.UtteranceRecord) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("replay: creating GCS client: %w", err)
	}
	defer client.Close()

	w := client.Bucket(bucket).Object(object).NewWriter(ctx)
	if err := json.NewEncoder(w).Encode(rec); err != nil {
		w.Close()
		return fmt.Errorf("replay: encoding snapshot: %w", err)
	}
	return w.Close()
}

// parseGCSPath splits a gs://bucket/object path into its two parts.
func parseGCSPath(path string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(path, "gs://")
	if !ok {
		return "", "", fmt.Errorf("replay: %q is not a gs:// path", path)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || object == "" {
		return "", "", fmt.Errorf("replay: %q has no object name", path)
	}
	return bucket, object, nil
}
