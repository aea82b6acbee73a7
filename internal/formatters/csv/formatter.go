// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package csv

import (
	"encoding/csv"
	"strconv"
	"strings"

	"sheetscan/internal/detector"
	"sheetscan/internal/formatters"
)

// Formatter renders one CSV line per result row, mirroring the columns
// of the xlsx export without any styling.
type Formatter struct{}

// NewFormatter creates a CSV formatter.
func NewFormatter() *Formatter { return &Formatter{} }

func (f *Formatter) Name() string { return "csv" }

func (f *Formatter) Description() string {
	return "Comma-separated values, one line per result row"
}

func (f *Formatter) FileExtension() string { return ".csv" }

var headers = []string{
	"source_file", "sheet", "row",
	"phones", "phones_validity",
	"id_cards", "id_cards_validity",
	"bank_cards", "bank_cards_validity",
	"names", "names_validity",
	"source_text", "context_before", "context_after",
}

func (f *Formatter) Format(results []detector.ExtractionResult, _ *detector.Statistics, _ formatters.Options) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)

	if err := w.Write(headers); err != nil {
		return "", err
	}
	for i := range results {
		r := &results[i]
		record := []string{
			r.SourceFile, r.SheetName, strconv.Itoa(r.RowNumber),
			detector.JoinValues(r.Phones), detector.JoinValidity(r.Phones),
			detector.JoinValues(r.IDCards), detector.JoinValidity(r.IDCards),
			detector.JoinValues(r.BankCards), detector.JoinValidity(r.BankCards),
			detector.JoinValues(r.Names), detector.JoinValidity(r.Names),
			r.SourceText,
			strings.Join(r.ContextBefore, "\n"),
			strings.Join(r.ContextAfter, "\n"),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return b.String(), w.Error()
}

func init() {
	formatters.Register(NewFormatter())
}
