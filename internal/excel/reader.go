// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package excel wraps excelize behind the small reader/writer surface
// the pipeline needs: rectangular text grids in, styled result
// workbooks out. Numeric cells arrive already rendered as text
// (integers without a decimal point).
package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Workbook is an open spreadsheet file.
type Workbook struct {
	f    *excelize.File
	path string
}

// Open opens an xlsx workbook for reading.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	return &Workbook{f: f, path: path}, nil
}

// SheetNames returns the workbook's sheet names in order.
func (w *Workbook) SheetNames() []string {
	return w.f.GetSheetList()
}

// ReadSheet reads one sheet into a rectangular text grid. Row 0 is the
// header row; rows shorter than the header are padded with empty cells.
func (w *Workbook) ReadSheet(name string) (*SheetData, error) {
	rows, err := w.f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", name, err)
	}

	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row
	}

	return &SheetData{Rows: rows}, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	return w.f.Close()
}

// SheetData is one sheet as a rectangular text grid. Row 0 is the
// header.
type SheetData struct {
	Rows [][]string
}

// ColumnNames returns the header row.
func (s *SheetData) ColumnNames() []string {
	if len(s.Rows) == 0 {
		return nil
	}
	return s.Rows[0]
}

// ColumnIndex returns the index of the named header column, or -1.
func (s *SheetData) ColumnIndex(name string) int {
	for i, col := range s.ColumnNames() {
		if col == name {
			return i
		}
	}
	return -1
}

// DataRowCount returns the number of data rows (excluding the header).
func (s *SheetData) DataRowCount() int {
	if len(s.Rows) <= 1 {
		return 0
	}
	return len(s.Rows) - 1
}

// Cell returns the cell at the given row index and column, or empty when
// the row is ragged.
func (s *SheetData) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) {
		return ""
	}
	if col < 0 || col >= len(s.Rows[row]) {
		return ""
	}
	return s.Rows[row][col]
}

// Context returns up to n data rows immediately before and after the
// given row index (an index into Rows, so the header is 0), each
// rendered as a single " | "-joined string. The header row is never
// part of the context and both sides clip at the sheet boundaries.
func (s *SheetData) Context(row, n int) (before, after []string) {
	before = []string{}
	after = []string{}
	for i := n; i >= 1; i-- {
		if j := row - i; j >= 1 {
			before = append(before, strings.Join(s.Rows[j], " | "))
		}
	}
	for i := 1; i <= n; i++ {
		if j := row + i; j < len(s.Rows) {
			after = append(after, strings.Join(s.Rows[j], " | "))
		}
	}
	return before, after
}

// Info summarizes a workbook without holding it open: sheet names,
// per-sheet header columns, and data row counts. Used to size file
// tasks before dispatch.
type Info struct {
	SheetNames []string
	Columns    map[string][]string
	RowCounts  map[string]int
}

// Inspect opens a workbook just long enough to collect its Info.
func Inspect(path string) (*Info, error) {
	w, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	info := &Info{
		SheetNames: w.SheetNames(),
		Columns:    make(map[string][]string),
		RowCounts:  make(map[string]int),
	}
	for _, name := range info.SheetNames {
		sd, err := w.ReadSheet(name)
		if err != nil {
			return nil, err
		}
		info.Columns[name] = sd.ColumnNames()
		info.RowCounts[name] = sd.DataRowCount()
	}
	return info, nil
}

// TotalRows returns the workbook's total data row count.
func (i *Info) TotalRows() int {
	total := 0
	for _, n := range i.RowCounts {
		total += n
	}
	return total
}
