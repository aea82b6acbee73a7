// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package phone

import (
	"regexp"

	"sheetscan/internal/detector"
	"sheetscan/internal/validators"
)

// Scanner detects mainland mobile numbers: an optional +86 prefix and an
// 11-digit 1[3-9]xxxxxxxxx body, with optional dash/space separators
// between digit groups. Candidates must be bounded by non-digit
// characters (or string edges) so the pattern cannot fire inside a
// longer digit run.
type Scanner struct {
	pattern *regexp.Regexp
}

// NewScanner returns a phone scanner with its pattern compiled once.
func NewScanner() *Scanner {
	return &Scanner{
		pattern: regexp.MustCompile(
			`(?:^|\D)((?:\+?86[-\s]?)?1[3-9]\d[-\s]?\d{4}[-\s]?\d{4})(?:\D|$)`,
		),
	}
}

// Name implements detector.Scanner.
func (s *Scanner) Name() string { return detector.CategoryPhone }

// Candidates implements detector.Scanner.
func (s *Scanner) Candidates(text string) []detector.Candidate {
	return validators.Candidates(s.pattern, text)
}

// Validate implements detector.Scanner. The rule is deliberately strict:
// after stripping separators the value must be exactly 11 digits shaped
// 1[3-9]xxxxxxxxx, so a candidate still carrying its country code is
// reported as invalid.
func (s *Scanner) Validate(value string) bool {
	digits := validators.CleanDigits(value)
	if len(digits) != 11 {
		return false
	}
	if digits[0] != '1' {
		return false
	}
	return digits[1] >= '3' && digits[1] <= '9'
}
