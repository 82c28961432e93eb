package utils

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richSanitizer  = bluemonday.UGCPolicy()
	plainSanitizer = bluemonday.StrictPolicy()

	// markupPattern matches the start of a tag, comment or doctype. A bare "<" followed by
	// a space or digit is plain text.
	markupPattern = regexp.MustCompile(`<[a-zA-Z/!?]`)
)

// hasMarkup reports whether input contains something a browser would parse as HTML.
func hasMarkup(input string) bool {
	return markupPattern.MatchString(input)
}

// Sanitize cleans HTML content to prevent XSS attacks.
// Text without markup is returned untouched so it round-trips byte for byte.
func Sanitize(input string) string {
	if !hasMarkup(input) {
		return input
	}
	return richSanitizer.Sanitize(input)
}

// SanitizePlain strips every tag, for single-line fields such as titles.
func SanitizePlain(input string) string {
	if !hasMarkup(input) {
		return strings.TrimSpace(input)
	}
	return strings.TrimSpace(plainSanitizer.Sanitize(input))
}
