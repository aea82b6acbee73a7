// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package parallel fans extraction across a set of spreadsheet files
// with a fixed worker pool. Files are processed concurrently; rows
// within one file stay sequential so context offsets remain ordered.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"sheetscan/internal/config"
	"sheetscan/internal/detector"
	"sheetscan/internal/excel"
	"sheetscan/internal/extractor"
	"sheetscan/internal/observability"
)

// targetColumnMarker is the header substring used to auto-detect the
// message-content column when no explicit column is configured.
const targetColumnMarker = "消息内容"

// progressBatch is how many rows a worker buffers locally before
// flushing into the shared counter, bounding both contention and
// callback frequency.
const progressBatch = 200

// ProgressFunc receives live progress updates. It is called
// concurrently from worker goroutines and must be safe for that; it
// must not block.
type ProgressFunc func(label string, percent int)

// SheetSource is the reader collaborator contract. *excel.Workbook is
// the production implementation.
type SheetSource interface {
	SheetNames() []string
	ReadSheet(name string) (*excel.SheetData, error)
	Close() error
}

// OpenFunc opens a workbook by path.
type OpenFunc func(path string) (SheetSource, error)

// Processor drives extraction over many files.
type Processor struct {
	cfg      config.Extraction
	workers  int
	open     OpenFunc
	names    extractor.NameSource
	observer *observability.Observer
}

// Option configures a Processor.
type Option func(*Processor)

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithOpener replaces the workbook opener, mainly for tests.
func WithOpener(open OpenFunc) Option {
	return func(p *Processor) { p.open = open }
}

// WithNameSource wires the remote name-extraction collaborator.
func WithNameSource(ns extractor.NameSource) Option {
	return func(p *Processor) { p.names = ns }
}

// WithObserver wires operational logging.
func WithObserver(obs *observability.Observer) Option {
	return func(p *Processor) { p.observer = obs }
}

// NewProcessor creates a processor for the given extraction snapshot.
func NewProcessor(cfg config.Extraction, opts ...Option) *Processor {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	p := &Processor{
		cfg:     cfg,
		workers: workers,
		open: func(path string) (SheetSource, error) {
			return excel.Open(path)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessFiles runs extraction over every task and returns one Result
// per task in submission order, plus aggregated statistics. Per-file
// failures are carried in the results; only caller-input errors are
// returned directly. Canceling ctx stops dispatch and marks the
// not-yet-processed files failed with the context error.
func (p *Processor) ProcessFiles(ctx context.Context, tasks []FileTask, progress ProgressFunc) ([]Result, *detector.Statistics, error) {
	if len(tasks) == 0 {
		return nil, nil, errors.New("no files to process")
	}
	if err := p.cfg.Validate(); err != nil {
		return nil, nil, err
	}

	start := time.Now()

	var finishTiming func(bool, map[string]any)
	if p.observer.Enabled() {
		finishTiming = p.observer.StartTiming("processor", "process_files", "batch")
	}

	totalRows := 0
	for _, t := range tasks {
		totalRows += t.RowCount
	}
	tracker := newProgressTracker(totalRows, progress)
	tracker.report("")

	type job struct {
		index int
		task  FileTask
	}
	type indexed struct {
		index  int
		result Result
	}
	jobs := make(chan job)
	// Buffered so workers can finish even if the caller abandons the
	// join mid-run.
	results := make(chan indexed, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- indexed{index: j.index, result: p.processFile(ctx, j.task, tracker)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, t := range tasks {
			select {
			case jobs <- job{index: i, task: t}:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(results)

	out := make([]Result, len(tasks))
	for r := range results {
		out[r.index] = r.result
	}
	if err := ctx.Err(); err != nil {
		for i := range out {
			if out[i].State == StatePending {
				out[i] = Result{Task: tasks[i], Err: err, State: StateFailed}
			}
		}
	}

	tracker.finish()

	stats := p.aggregate(out, time.Since(start))

	if finishTiming != nil {
		finishTiming(true, map[string]any{
			"files":         len(tasks),
			"total_rows":    totalRows,
			"result_rows":   stats.TotalResults,
			"total_matches": stats.TotalSensitive(),
			"workers":       p.workers,
		})
	}

	return out, stats, nil
}

// processFile reads one workbook and extracts every sheet sequentially.
func (p *Processor) processFile(ctx context.Context, task FileTask, tracker *progressTracker) Result {
	start := time.Now()
	counted := 0
	defer func() {
		// Top up the declared row weight so overall progress reaches
		// 100 even when a file errors out or has fewer rows than
		// declared.
		if remainder := task.RowCount - counted; remainder > 0 {
			tracker.add(remainder, task.Name)
		}
	}()

	fail := func(err error) Result {
		p.observer.Log(observability.Record{
			Component: "processor",
			Operation: "process_file",
			Subject:   task.Path,
			Success:   false,
			Error:     err.Error(),
		})
		return Result{Task: task, Err: err, Duration: time.Since(start), State: StateFailed}
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	src, err := p.open(task.Path)
	if err != nil {
		return fail(fmt.Errorf("opening %s: %w", task.Name, err))
	}
	defer src.Close()

	ext := extractor.New(p.cfg, p.names, p.observer)
	var all []detector.ExtractionResult

	for _, sheetName := range src.SheetNames() {
		sd, err := src.ReadSheet(sheetName)
		if err != nil {
			return fail(fmt.Errorf("reading sheet %s of %s: %w", sheetName, task.Name, err))
		}

		col, ok := p.targetColumn(sd)
		if !ok {
			// No usable target column on this sheet: skip it, not the file.
			counted += sd.DataRowCount()
			tracker.add(sd.DataRowCount(), task.Name)
			continue
		}

		batch := 0
		flush := func() {
			counted += batch
			tracker.add(batch, task.Name)
			batch = 0
		}

		for row := 1; row < len(sd.Rows); row++ {
			if batch++; batch >= progressBatch {
				flush()
				if err := ctx.Err(); err != nil {
					return fail(err)
				}
			}

			cell := sd.Cell(row, col)
			if cell == "" {
				continue
			}

			matches := ext.Extract(cell)
			if matches.Empty() {
				continue
			}

			before, after := sd.Context(row, p.cfg.ContextLines)
			all = append(all, detector.ExtractionResult{
				SourceFile:    task.Name,
				SheetName:     sheetName,
				RowNumber:     row + 1,
				SourceText:    cell,
				ContextBefore: before,
				ContextAfter:  after,
				Phones:        matches.Phones,
				IDCards:       matches.IDCards,
				BankCards:     matches.BankCards,
				Names:         matches.Names,
			})
		}
		flush()
	}

	return Result{
		Task:     task,
		Results:  all,
		Duration: time.Since(start),
		State:    StateCompleted,
	}
}

// targetColumn resolves which column to scan: the configured name when
// set (missing name skips the sheet), else the first header containing
// the message-content marker, else the first column.
func (p *Processor) targetColumn(sd *excel.SheetData) (int, bool) {
	cols := sd.ColumnNames()
	if len(cols) == 0 {
		return 0, false
	}
	if p.cfg.TargetColumn != "" {
		idx := sd.ColumnIndex(p.cfg.TargetColumn)
		return idx, idx >= 0
	}
	for i, c := range cols {
		if strings.Contains(c, targetColumnMarker) {
			return i, true
		}
	}
	return 0, true
}

// aggregate derives run statistics from the per-file results.
func (p *Processor) aggregate(results []Result, elapsed time.Duration) *detector.Statistics {
	stats := &detector.Statistics{ElapsedSeconds: elapsed.Seconds()}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		for i := range r.Results {
			stats.Accumulate(&r.Results[i])
		}
	}
	if fc, ok := p.names.(interface{ Failures() int64 }); ok {
		stats.NameServiceFailures = fc.Failures()
	}
	return stats
}

// progressTracker owns the shared row counter. Workers add locally
// buffered batches; percent is computed and delivered under a lock so
// observed values never regress.
type progressTracker struct {
	total int64
	done  atomic.Int64
	mu    sync.Mutex
	cb    ProgressFunc
}

func newProgressTracker(total int, cb ProgressFunc) *progressTracker {
	return &progressTracker{total: int64(total), cb: cb}
}

func (t *progressTracker) add(n int, label string) {
	if n > 0 {
		t.done.Add(int64(n))
	}
	t.report(label)
}

func (t *progressTracker) report(label string) {
	if t.cb == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	percent := 0
	if t.total > 0 {
		percent = int(t.done.Load() * 100 / t.total)
		if percent > 100 {
			percent = 100
		}
	}
	t.cb(label, percent)
}

// finish reports the terminal 100%.
func (t *progressTracker) finish() {
	if t.cb == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cb("", 100)
}
