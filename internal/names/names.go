// Package names compares author names the way humans read them: ignoring
// case and diacritics.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize decomposes s, drops combining marks, case-folds and trims it.
// "José García" and "jose garcia" normalize to the same string.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.TrimSpace(cases.Fold().String(stripped))
}

// Equal reports whether a and b name the same author. Only exact equality of
// the normalized forms counts.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
