// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package metrics

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

func influxPoint(s UtteranceSummary) *write.Point {
	return write.NewPoint(
		"utterance",
		map[string]string{
			"utterance_id": s.UtteranceID,
		},
		map[string]any{
			"frames":         s.Frames,
			"tokens_created": s.TokensCreated,
			"result_count":   s.ResultCount,
			"best_score":     s.BestScore,
			"duration_ms":    s.Duration.Milliseconds(),
		},
		time.Now(),
	)
}
