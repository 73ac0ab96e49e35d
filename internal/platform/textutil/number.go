package textutil

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidNumber is returned by ParseNumber for input that is not a finite number.
var ErrInvalidNumber = errors.New("textutil: invalid number")

// ParseLooseNumber strips every character other than digits and '.' and parses the
// longest numeric prefix of what remains. Anything unparsable yields 0. Spreadsheet
// cells such as "1 250,00 руб" or "$99" go through here.
func ParseLooseNumber(raw string) float64 {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := numericPrefix(b.String())
	if cleaned == "" {
		return 0
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// numericPrefix keeps digits up to the second decimal point.
func numericPrefix(s string) string {
	seenDot := false
	for i, r := range s {
		if r == '.' {
			if seenDot {
				s = s[:i]
				break
			}
			seenDot = true
		}
	}
	if strings.Trim(s, ".") == "" {
		return ""
	}
	return s
}

// ParseNumber parses operator input strictly. A comma decimal separator is accepted.
func ParseNumber(raw string) (float64, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if trimmed == "" {
		return 0, ErrInvalidNumber
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, ErrInvalidNumber
	}
	return value, nil
}

// RoundHalfUp rounds to the nearest integer with halves rounded towards +Inf.
func RoundHalfUp(value float64) float64 {
	return math.Floor(value + 0.5)
}
