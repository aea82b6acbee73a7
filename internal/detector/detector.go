// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import "strings"

// Category names used across scanners, results, and formatters.
const (
	CategoryPhone    = "PHONE"
	CategoryIDCard   = "ID_CARD"
	CategoryBankCard = "BANK_CARD"
	CategoryName     = "NAME"
)

// Candidate is a raw pattern hit inside a text cell, before validation.
// Start and End are byte offsets into the source string.
type Candidate struct {
	Value string
	Start int
	End   int
}

// Match is a located, validated occurrence of a category pattern.
// Invariant: Start < End and source[Start:End] == Value for locally
// matched categories. Name matches from the remote service may carry a
// zero span when the service result does not occur verbatim in the text.
type Match struct {
	Value string `json:"value"`
	Valid bool   `json:"valid"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Overlaps reports whether the half-open spans [m.Start,m.End) and
// [start,end) intersect.
func (m Match) Overlaps(start, end int) bool {
	return m.Start < end && m.End > start
}

// Scanner pairs a candidate matcher with its validation rule. One
// implementation exists per category; the extractor iterates over the
// enabled set instead of hand-duplicating the pipeline.
type Scanner interface {
	// Name returns the category constant this scanner reports under.
	Name() string

	// Candidates returns all non-overlapping pattern hits in text,
	// left to right, with byte offsets into text.
	Candidates(text string) []Candidate

	// Validate reports whether a candidate value is structurally valid
	// (checksum, digit rules). Pure and stateless.
	Validate(value string) bool
}

// CellMatches holds the per-category matches found in a single text cell.
// Disabled categories are represented by empty (never nil) slices so
// callers treat "not requested" and "none found" uniformly.
type CellMatches struct {
	Phones    []Match `json:"phones"`
	IDCards   []Match `json:"id_cards"`
	BankCards []Match `json:"bank_cards"`
	Names     []Match `json:"names"`
}

// Empty reports whether no category produced a match.
func (c *CellMatches) Empty() bool {
	return len(c.Phones) == 0 && len(c.IDCards) == 0 && len(c.BankCards) == 0 && len(c.Names) == 0
}

// ExtractionResult is the record emitted for every row whose target cell
// produced at least one match. Immutable after assembly.
type ExtractionResult struct {
	SourceFile    string   `json:"source_file"`
	SheetName     string   `json:"sheet_name"`
	RowNumber     int      `json:"row_number"`
	SourceText    string   `json:"source_text"`
	ContextBefore []string `json:"context_before"`
	ContextAfter  []string `json:"context_after"`
	Phones        []Match  `json:"phones"`
	IDCards       []Match  `json:"id_cards"`
	BankCards     []Match  `json:"bank_cards"`
	Names         []Match  `json:"names"`
}

// ValidityToken is the localized per-match verdict used in exports.
func ValidityToken(valid bool) string {
	if valid {
		return "有效"
	}
	return "无效"
}

// JoinValues renders the match values of one category as a single
// ", "-separated cell.
func JoinValues(matches []Match) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, m.Value)
	}
	return strings.Join(parts, ", ")
}

// JoinValidity renders per-match validity tokens as a single cell.
func JoinValidity(matches []Match) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, ValidityToken(m.Valid))
	}
	return strings.Join(parts, ", ")
}

// Statistics aggregates a finished run. Derived from the result set,
// never persisted on its own.
type Statistics struct {
	TotalResults   int     `json:"total_results"`
	TotalPhones    int     `json:"total_phones"`
	ValidPhones    int     `json:"valid_phones"`
	TotalIDCards   int     `json:"total_id_cards"`
	ValidIDCards   int     `json:"valid_id_cards"`
	TotalBankCards int     `json:"total_bank_cards"`
	ValidBankCards int     `json:"valid_bank_cards"`
	TotalNames     int     `json:"total_names"`
	ValidNames     int     `json:"valid_names"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`

	// NameServiceFailures counts soft-failed name-service requests.
	NameServiceFailures int64 `json:"name_service_failures,omitempty"`
}

// TotalSensitive returns the overall match count across all categories.
func (s *Statistics) TotalSensitive() int {
	return s.TotalPhones + s.TotalIDCards + s.TotalBankCards + s.TotalNames
}

// Accumulate folds one result record into the aggregate counts.
func (s *Statistics) Accumulate(r *ExtractionResult) {
	s.TotalResults++
	s.TotalPhones += len(r.Phones)
	s.ValidPhones += countValid(r.Phones)
	s.TotalIDCards += len(r.IDCards)
	s.ValidIDCards += countValid(r.IDCards)
	s.TotalBankCards += len(r.BankCards)
	s.ValidBankCards += countValid(r.BankCards)
	s.TotalNames += len(r.Names)
	s.ValidNames += countValid(r.Names)
}

func countValid(matches []Match) int {
	n := 0
	for _, m := range matches {
		if m.Valid {
			n++
		}
	}
	return n
}
