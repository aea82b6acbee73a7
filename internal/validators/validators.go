// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package validators holds the helpers shared by the per-category
// scanner packages.
package validators

import (
	"regexp"

	"sheetscan/internal/detector"
)

var nonDigit = regexp.MustCompile(`\D`)

// CleanDigits strips every non-digit character from s.
func CleanDigits(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// Candidates runs a boundary-anchored pattern over text and returns the
// first capture group of every non-overlapping match, left to right.
// Patterns consume one boundary character on each side, so offsets are
// taken from the capture group, not the whole match.
func Candidates(re *regexp.Regexp, text string) []detector.Candidate {
	var out []detector.Candidate
	for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
		start, end := idx[2], idx[3]
		if start < 0 || end <= start {
			continue
		}
		out = append(out, detector.Candidate{
			Value: text[start:end],
			Start: start,
			End:   end,
		})
	}
	return out
}
