// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package json

import (
	"encoding/json"

	"sheetscan/internal/detector"
	"sheetscan/internal/formatters"
)

// Formatter renders results and statistics as a single JSON document.
type Formatter struct{}

// NewFormatter creates a JSON formatter.
func NewFormatter() *Formatter { return &Formatter{} }

func (f *Formatter) Name() string { return "json" }

func (f *Formatter) Description() string {
	return "Machine-readable JSON output"
}

func (f *Formatter) FileExtension() string { return ".json" }

type document struct {
	Results    []detector.ExtractionResult `json:"results"`
	Statistics *detector.Statistics        `json:"statistics,omitempty"`
}

func (f *Formatter) Format(results []detector.ExtractionResult, stats *detector.Statistics, _ formatters.Options) (string, error) {
	if results == nil {
		results = []detector.ExtractionResult{}
	}
	out, err := json.MarshalIndent(document{Results: results, Statistics: stats}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func init() {
	formatters.Register(NewFormatter())
}
