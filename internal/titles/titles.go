package titles

import (
	"regexp"
	"strconv"
	"strings"
)

var trailingYear = regexp.MustCompile(`^(.+?)\s*\((\d{4})\)$`)

// Normalize strips a trailing parenthesized year from a display title.
// It returns the cleaned title, the extracted year, and whether a year was
// present. Titles without a trailing year pass through unchanged, so the
// function is idempotent.
func Normalize(title string) (string, int, bool) {
	trimmed := strings.TrimSpace(title)
	match := trailingYear.FindStringSubmatch(trimmed)
	if match == nil {
		return trimmed, 0, false
	}
	year, err := strconv.Atoi(match[2])
	if err != nil {
		return trimmed, 0, false
	}
	clean := strings.TrimSpace(match[1])
	if clean == "" {
		return trimmed, 0, false
	}
	return clean, year, true
}
