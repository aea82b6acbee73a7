// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package extractor composes the per-category scanners into a single
// per-cell extraction pass, applying the cross-category exclusion rule
// and merging remote name-service results.
package extractor

import (
	"sheetscan/internal/config"
	"sheetscan/internal/detector"
	"sheetscan/internal/observability"
	"sheetscan/internal/validators/bankcard"
	"sheetscan/internal/validators/idcard"
	"sheetscan/internal/validators/phone"
)

// NameSource is the narrow contract to the remote name-extraction
// service. Implementations must never fail hard: on any transport or
// decoding problem they return an empty slice.
type NameSource interface {
	Extract(text string) []detector.Match
}

// Extractor runs every enabled category scanner over one text cell.
// Stateless apart from its configuration snapshot; safe for concurrent
// use, and deterministic for identical input.
type Extractor struct {
	cfg      config.Extraction
	phone    detector.Scanner
	idCard   detector.Scanner
	bankCard detector.Scanner
	names    NameSource
	observer *observability.Observer
}

// New creates an extractor for the given configuration snapshot. The
// name source may be nil, in which case the name category yields empty
// results even when enabled.
func New(cfg config.Extraction, names NameSource, observer *observability.Observer) *Extractor {
	return &Extractor{
		cfg:      cfg,
		phone:    phone.NewScanner(),
		idCard:   idcard.NewScanner(),
		bankCard: bankcard.NewScanner(),
		names:    names,
		observer: observer,
	}
}

// Extract scans one text cell and returns the per-category matches.
// Disabled categories yield empty, non-nil slices.
func (e *Extractor) Extract(text string) detector.CellMatches {
	out := detector.CellMatches{
		Phones:    []detector.Match{},
		IDCards:   []detector.Match{},
		BankCards: []detector.Match{},
		Names:     []detector.Match{},
	}

	if e.cfg.EnablePhone {
		out.Phones = scan(e.phone, text)
	}
	if e.cfg.EnableIDCard {
		out.IDCards = scan(e.idCard, text)
	}
	if e.cfg.EnableBankCard {
		out.BankCards = e.bankCardsExcluding(text, out.IDCards)
	}
	if e.cfg.EnableName && e.names != nil {
		out.Names = e.names.Extract(text)
		if out.Names == nil {
			out.Names = []detector.Match{}
		}
	}

	if e.observer.Enabled() && !out.Empty() {
		e.observer.Log(observability.Record{
			Component: "extractor",
			Operation: "extract_cell",
			Success:   true,
			Metadata: map[string]any{
				"phones":     len(out.Phones),
				"id_cards":   len(out.IDCards),
				"bank_cards": len(out.BankCards),
				"names":      len(out.Names),
			},
		})
	}

	return out
}

// bankCardsExcluding drops bank-card candidates whose span overlaps a
// valid ID-card match before validating the rest. A structurally valid
// 18-digit identity number is a common false positive for the 16-19
// digit card shape; an ID that failed its own checksum suppresses
// nothing, so ambiguous text surfaces both readings.
func (e *Extractor) bankCardsExcluding(text string, idCards []detector.Match) []detector.Match {
	matches := []detector.Match{}
	for _, c := range e.bankCard.Candidates(text) {
		suppressed := false
		for _, id := range idCards {
			if id.Valid && id.Overlaps(c.Start, c.End) {
				suppressed = true
				break
			}
		}
		if suppressed {
			continue
		}
		matches = append(matches, detector.Match{
			Value: c.Value,
			Valid: e.bankCard.Validate(c.Value),
			Start: c.Start,
			End:   c.End,
		})
	}
	return matches
}

func scan(s detector.Scanner, text string) []detector.Match {
	matches := []detector.Match{}
	for _, c := range s.Candidates(text) {
		matches = append(matches, detector.Match{
			Value: c.Value,
			Valid: s.Validate(c.Value),
			Start: c.Start,
			End:   c.End,
		})
	}
	return matches
}
