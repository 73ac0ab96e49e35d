package textutil

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
)

var plainTextPolicy = bluemonday.StrictPolicy()

// CleanField trims an identifying value such as a product name, code or phone and turns
// control characters into spaces. Everything else, angle brackets included, is kept
// verbatim.
func CleanField(raw string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, raw))
}

// CleanText removes markup and control whitespace from operator notes. Entities escaped
// by the policy are decoded again so "Oil & filter" survives unchanged.
func CleanText(raw string) string {
	if raw == "" {
		return ""
	}
	sanitized := html.UnescapeString(plainTextPolicy.Sanitize(raw))
	return strings.TrimSpace(sanitized)
}

// CleanMultiline is CleanText for notes, keeping line breaks.
func CleanMultiline(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = CleanText(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Fold returns the case folded form of s for caseless comparisons.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// ContainsFold reports whether needle occurs in haystack ignoring case.
// An empty needle matches everything.
func ContainsFold(haystack, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return true
	}
	return strings.Contains(Fold(haystack), Fold(needle))
}

// AnyContainsFold reports whether any of the values contains needle ignoring case.
func AnyContainsFold(needle string, values ...string) bool {
	if strings.TrimSpace(needle) == "" {
		return true
	}
	folded := Fold(strings.TrimSpace(needle))
	for _, v := range values {
		if v != "" && strings.Contains(Fold(v), folded) {
			return true
		}
	}
	return false
}
