// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package idcard

import (
	"regexp"

	"sheetscan/internal/detector"
	"sheetscan/internal/validators"
)

// weights and checkCodes implement the GB 11643 mod-11 check for the
// 18-character resident identity number.
var weights = [17]int{7, 9, 10, 5, 8, 4, 2, 1, 6, 3, 7, 9, 10, 5, 8, 4, 2}

var checkCodes = [11]byte{'1', '0', 'X', '9', '8', '7', '6', '5', '4', '3', '2'}

// Scanner detects 18-character resident identity numbers: 6-digit region
// code, 19xx/20xx year, calendar-shaped month and day, 3-digit sequence,
// and a trailing check character (digit or X). Neighbors must not be
// digits or check characters.
type Scanner struct {
	pattern *regexp.Regexp
}

// NewScanner returns an ID-card scanner with its pattern compiled once.
func NewScanner() *Scanner {
	return &Scanner{
		pattern: regexp.MustCompile(
			`(?:^|\D)([1-9]\d{5}(?:19|20)\d{2}(?:0[1-9]|1[0-2])(?:0[1-9]|[12]\d|3[01])\d{3}[\dXx])(?:[^\dXx]|$)`,
		),
	}
}

// Name implements detector.Scanner.
func (s *Scanner) Name() string { return detector.CategoryIDCard }

// Candidates implements detector.Scanner.
func (s *Scanner) Candidates(text string) []detector.Candidate {
	return validators.Candidates(s.pattern, text)
}

// Validate implements detector.Scanner. Both the mod-11 checksum and the
// embedded birth date must pass.
func (s *Scanner) Validate(value string) bool {
	if len(value) != 18 {
		return false
	}
	for i := 0; i < 17; i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	last := value[17]
	if (last < '0' || last > '9') && last != 'X' && last != 'x' {
		return false
	}
	return verifyChecksum(value) && verifyBirthDate(value)
}

func verifyChecksum(value string) bool {
	sum := 0
	for i := 0; i < 17; i++ {
		sum += int(value[i]-'0') * weights[i]
	}
	expected := checkCodes[sum%11]

	last := value[17]
	if last >= 'a' {
		last -= 'a' - 'A'
	}
	return last == expected
}

func verifyBirthDate(value string) bool {
	year := atoi(value[6:10])
	month := atoi(value[10:12])
	day := atoi(value[12:14])

	if year < 1900 || year > 2099 {
		return false
	}
	if month < 1 || month > 12 {
		return false
	}
	return day >= 1 && day <= daysInMonth(year, month)
}

func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	}
	return 0
}

// atoi converts an all-digit substring; callers guarantee the input via
// the 17-digit prefix check.
func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
