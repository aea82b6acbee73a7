// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package excel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"sheetscan/internal/detector"
)

const resultSheet = "提取结果"

var exportHeaders = []string{
	"源文件名", "工作表", "行号",
	"手机号", "手机号有效性",
	"身份证号", "身份证有效性",
	"银行卡号", "银行卡有效性",
	"姓名", "姓名有效性",
	"源文本", "上文", "下文",
}

// Export writes one formatted row per ExtractionResult into a styled
// workbook at path: bold header, green/red validity cells, frozen
// header row, and an autofilter across the header.
func Export(results []detector.ExtractionResult, path string) error {
	if len(results) == 0 {
		return errors.New("no results to export")
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", resultSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Border: []excelize.Border{
			{Type: "left", Style: 1, Color: "000000"},
			{Type: "right", Style: 1, Color: "000000"},
			{Type: "top", Style: 1, Color: "000000"},
			{Type: "bottom", Style: 1, Color: "000000"},
		},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	validStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "008000"}})
	if err != nil {
		return err
	}
	invalidStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "FF0000"}})
	if err != nil {
		return err
	}

	for col, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(resultSheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(resultSheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	w := &resultWriter{f: f, validStyle: validStyle, invalidStyle: invalidStyle}
	for i, r := range results {
		if err := w.writeRow(i+2, &r); err != nil {
			return fmt.Errorf("writing result row %d: %w", i+1, err)
		}
	}

	if err := applyLayout(f); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

type resultWriter struct {
	f            *excelize.File
	validStyle   int
	invalidStyle int
}

func (w *resultWriter) writeRow(row int, r *detector.ExtractionResult) error {
	set := func(col int, v any) error {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		return w.f.SetCellValue(resultSheet, cell, v)
	}

	if err := set(1, r.SourceFile); err != nil {
		return err
	}
	if err := set(2, r.SheetName); err != nil {
		return err
	}
	if err := set(3, r.RowNumber); err != nil {
		return err
	}

	categories := []struct {
		col     int
		matches []detector.Match
	}{
		{4, r.Phones},
		{6, r.IDCards},
		{8, r.BankCards},
		{10, r.Names},
	}
	for _, cat := range categories {
		if err := set(cat.col, detector.JoinValues(cat.matches)); err != nil {
			return err
		}
		if err := w.writeValidity(cat.col+1, row, cat.matches); err != nil {
			return err
		}
	}

	if err := set(12, r.SourceText); err != nil {
		return err
	}
	if err := set(13, joinLines(r.ContextBefore)); err != nil {
		return err
	}
	return set(14, joinLines(r.ContextAfter))
}

// writeValidity colors the verdict cell red when any match in the
// category is invalid, green otherwise.
func (w *resultWriter) writeValidity(col, row int, matches []detector.Match) error {
	text := detector.JoinValidity(matches)
	cell, _ := excelize.CoordinatesToCellName(col, row)
	if err := w.f.SetCellValue(resultSheet, cell, text); err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	style := w.validStyle
	for _, m := range matches {
		if !m.Valid {
			style = w.invalidStyle
			break
		}
	}
	return w.f.SetCellStyle(resultSheet, cell, cell, style)
}

func applyLayout(f *excelize.File) error {
	widths := []struct {
		col   string
		width float64
	}{
		{"A", 20}, {"B", 15}, {"C", 8},
		{"D", 20}, {"E", 12},
		{"F", 22}, {"G", 12},
		{"H", 22}, {"I", 12},
		{"J", 16}, {"K", 12},
		{"L", 50}, {"M", 30}, {"N", 30},
	}
	for _, w := range widths {
		if err := f.SetColWidth(resultSheet, w.col, w.col, w.width); err != nil {
			return err
		}
	}

	if err := f.SetPanes(resultSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	return f.AutoFilter(resultSheet, "A1:N1", nil)
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
