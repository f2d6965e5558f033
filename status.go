// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/schmidtw/sdlogger/meter"
	"github.com/schmidtw/sdlogger/record"
)

type status struct {
	File          string  `json:"file"`
	Format        string  `json:"format"`
	Total         int64   `json:"total_bytes"`
	TotalHuman    string  `json:"total"`
	RatePerMinute float64 `json:"bytes_per_minute"`
	RatePerSecond float64 `json:"bytes_per_second"`
}

// statusHandler reports which file is being written and how fast it grows.
type statusHandler struct {
	name   string
	format record.Format
	meter  *meter.Meter
}

func (h *statusHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	total := h.meter.Total()
	rate := h.meter.Rate(5 * time.Minute)
	st := status{
		File:          h.name,
		Format:        h.format.String(),
		Total:         int64(total),
		TotalHuman:    total.String(),
		RatePerMinute: float64(rate),
		RatePerSecond: rate.PerSecond(),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}
