// Package textnorm folds free text into the comparable form used by search:
// lowercase, accent-free, punctuation-free, single-spaced.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMinTokenLength is the minimum token length used when callers do not choose one
const DefaultMinTokenLength = 2

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases s, strips Latin diacritics, replaces every character that is
// not a letter or digit with a space and collapses runs of spaces.
// Normalize(Normalize(s)) == Normalize(s) for all s.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	folded, _, err := transform.String(stripAccents, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}

	var sb strings.Builder
	sb.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(sb.String()), " ")
}

// Tokenize normalizes s and splits it on whitespace, dropping tokens shorter
// than minLength runes. Order is preserved. A minLength below 1 is treated as 1.
func Tokenize(s string, minLength int) []string {
	if minLength < 1 {
		minLength = 1
	}

	words := strings.Fields(Normalize(s))
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if utf8.RuneCountInString(word) < minLength {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// Compact removes all whitespace from already-normalized text, so phrases can be
// compared regardless of internal spacing.
func Compact(normalized string) string {
	return strings.ReplaceAll(normalized, " ", "")
}
