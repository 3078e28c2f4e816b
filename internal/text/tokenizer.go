// Package text provides language-aware normalization and tokenization for
// Italian course documents. Normalization is a pure function: the same input
// always yields the same token sequence, and normalizing already-normalized
// text is a no-op.
package text

import (
	"strings"
	"unicode"
)

// MinTokenLength is the minimum kept token length in runes.
const MinTokenLength = 2

// accentFold collapses diacritic variants to the canonical grave-accented
// form used by previously indexed content. The fold direction (toward grave
// accents) must not change: indexes and queries both pass through it, and
// flipping it would orphan existing indexed terms.
var accentFold = map[rune]rune{
	'á': 'à', 'â': 'à', 'ä': 'à', 'ã': 'à', 'å': 'à',
	'é': 'è', 'ê': 'è', 'ë': 'è',
	'í': 'ì', 'î': 'ì', 'ï': 'ì',
	'ó': 'ò', 'ô': 'ò', 'ö': 'ò', 'õ': 'ò',
	'ú': 'ù', 'û': 'ù', 'ü': 'ù',
}

// foldRune lowercases and accent-folds a single rune.
func foldRune(r rune) rune {
	r = unicode.ToLower(r)
	if folded, ok := accentFold[r]; ok {
		return folded
	}
	return r
}

// foldString applies foldRune to every rune.
func foldString(s string) string {
	return strings.Map(foldRune, s)
}

// Fold lowercases and accent-folds a string without tokenizing it. Snippet
// extraction folds the passage the same way queries are folded, so a term
// whose canonical form differs from its surface form still matches.
func Fold(s string) string {
	return foldString(s)
}

// Normalize converts raw text into the ordered term sequence used for both
// indexing and query scoring:
//
//   - lowercases and folds diacritic variants toward grave accents
//   - strips punctuation except apostrophes (elisions carry meaning)
//   - splits on whitespace and stripped punctuation
//   - drops tokens shorter than MinTokenLength, purely numeric tokens,
//     and stop words
//
// Empty input yields an empty (non-nil) slice.
func Normalize(text string) []string {
	tokens := []string{}
	if text == "" {
		return tokens
	}

	var current strings.Builder
	flush := func() {
		if current.Len() == 0 {
			return
		}
		// Interior apostrophes are elisions and stay; edge apostrophes are
		// leftover quoting and go.
		token := strings.Trim(current.String(), "'")
		current.Reset()
		if keepToken(token) {
			tokens = append(tokens, token)
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			current.WriteRune(foldRune(r))
		case r == '\'' || r == '’':
			// Typographic apostrophes fold to the plain form.
			current.WriteRune('\'')
		default:
			flush()
		}
	}
	flush()

	return tokens
}

// keepToken applies the length, numeric, and stop-word filters.
func keepToken(token string) bool {
	if len([]rune(token)) < MinTokenLength {
		return false
	}
	if isNumeric(token) {
		return false
	}
	if _, stop := defaultStopWords[token]; stop {
		return false
	}
	return true
}

// isNumeric reports whether the token consists solely of digits.
func isNumeric(token string) bool {
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(token) > 0
}
