// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"path/filepath"
	"time"

	"sheetscan/internal/detector"
	"sheetscan/internal/excel"
)

// FileTask is the unit of parallel dispatch. Read-only once submitted.
// RowCount is the declared data row total used to weight progress.
type FileTask struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	RowCount int    `json:"row_count"`
}

// NewFileTask inspects a workbook and builds its task.
func NewFileTask(path string) (FileTask, error) {
	info, err := excel.Inspect(path)
	if err != nil {
		return FileTask{}, err
	}
	return FileTask{
		Path:     path,
		Name:     filepath.Base(path),
		RowCount: info.TotalRows(),
	}, nil
}

// TaskState tracks a task through Pending → Processing → Completed or
// Failed.
type TaskState int

const (
	StatePending TaskState = iota
	StateProcessing
	StateCompleted
	StateFailed
)

func (s TaskState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateProcessing:
		return "processing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Result is the outcome for one file: either its extraction results or
// a scoped error. Errors never abort sibling files.
type Result struct {
	Task     FileTask
	Results  []detector.ExtractionResult
	Err      error
	Duration time.Duration
	State    TaskState
}
