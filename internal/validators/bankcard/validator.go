// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package bankcard

import (
	"regexp"

	"sheetscan/internal/detector"
	"sheetscan/internal/validators"
)

// Scanner detects bank card numbers: four groups of four digits with
// optional dash/space separators plus up to three trailing digits. The
// pattern intentionally overmatches 16-19 digit spans; the Luhn check in
// Validate is the source of truth for acceptance.
type Scanner struct {
	pattern *regexp.Regexp
}

// NewScanner returns a bank-card scanner with its pattern compiled once.
func NewScanner() *Scanner {
	return &Scanner{
		pattern: regexp.MustCompile(
			`(?:^|\D)(\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}(?:[-\s]?\d{1,3})?)(?:\D|$)`,
		),
	}
}

// Name implements detector.Scanner.
func (s *Scanner) Name() string { return detector.CategoryBankCard }

// Candidates implements detector.Scanner.
func (s *Scanner) Candidates(text string) []detector.Candidate {
	return validators.Candidates(s.pattern, text)
}

// Validate implements detector.Scanner: 16-19 digits after separator
// stripping, passing the Luhn checksum.
func (s *Scanner) Validate(value string) bool {
	digits := validators.CleanDigits(value)
	if len(digits) < 16 || len(digits) > 19 {
		return false
	}
	return luhnCheck(digits)
}

// luhnCheck doubles every second digit counting from the rightmost,
// folds results above 9, and requires the sum to be divisible by 10.
func luhnCheck(digits string) bool {
	sum := 0
	for i := 0; i < len(digits); i++ {
		d := int(digits[len(digits)-1-i] - '0')
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}
