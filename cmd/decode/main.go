// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command decode drives the word-pruning beam search decoder: running
// a single utterance against a static graph and frame sheet, serving
// a REST/websocket front end over the utterance store, replaying and
// diffing past results, and scaffolding a new configuration file.
//
// Usage:
//
//	decode run --graph graph.json --frames frames.json
//	decode serve --config decode.yaml
//	decode replay <utterance-id>
//	decode diff <utterance-id-a> <utterance-id-b>
//	decode init
//	decode watch ws://localhost:8080/v1/sessions/<id>/stream
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
