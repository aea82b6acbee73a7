// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package observability provides structured operational logging for the
// extraction pipeline. Records are JSON lines written to a single
// writer; at level Off everything is discarded.
package observability

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

type Level int

const (
	LevelOff     Level = 0
	LevelMetrics Level = 1
	LevelDebug   Level = 2
)

// Observer emits operation records for components of the pipeline. Safe
// for concurrent use by worker goroutines.
type Observer struct {
	level  Level
	mu     sync.Mutex
	writer io.Writer
}

// NewObserver creates an observer writing JSON lines to w.
func NewObserver(level Level, w io.Writer) *Observer {
	return &Observer{level: level, writer: w}
}

// Record is one logged operation.
type Record struct {
	Component  string         `json:"component"`
	Operation  string         `json:"operation"`
	Subject    string         `json:"subject,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
	Success    bool           `json:"success"`
	Error      string         `json:"error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// StartTiming begins timing an operation. The returned function logs the
// record with the elapsed duration.
func (o *Observer) StartTiming(component, operation, subject string) func(success bool, metadata map[string]any) {
	start := time.Now()
	return func(success bool, metadata map[string]any) {
		o.Log(Record{
			Component:  component,
			Operation:  operation,
			Subject:    subject,
			DurationMs: time.Since(start).Milliseconds(),
			Success:    success,
			Metadata:   metadata,
		})
	}
}

// Log writes one record if the observer level admits it. Metric-level
// records are only written in debug mode to keep normal runs quiet.
func (o *Observer) Log(rec Record) {
	if o == nil || o.level < LevelDebug || o.writer == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	json.NewEncoder(o.writer).Encode(rec)
}

// Enabled reports whether the observer emits anything at all.
func (o *Observer) Enabled() bool {
	return o != nil && o.level > LevelOff
}
