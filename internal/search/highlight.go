package search

import (
	"strings"
	"unicode/utf8"

	"github.com/corsolab/ritrova/internal/text"
)

const (
	// highlightWindow is the number of bytes of context kept on each side
	// of a matched term, adjusted outward to rune boundaries.
	highlightWindow = 60

	// maxHighlights caps the snippets attached per result.
	maxHighlights = 3
)

// Highlights extracts one snippet per query term: a window around the
// term's first occurrence in the passage, matched case-insensitively and
// accent-folded the same way queries are normalized, so a folded query
// token still finds its surface form ("ventitrè" finds "ventitré").
// Overlapping windows collapse into the earlier one.
func Highlights(passage string, queryTokens []string) []string {
	if passage == "" || len(queryTokens) == 0 {
		return nil
	}
	// The fold map is byte-length-preserving for the runes it touches, so
	// offsets into the folded passage stay valid in the original. The rune
	// boundary fixups below absorb any residual drift.
	folded := text.Fold(passage)

	type span struct{ start, end int }
	var spans []span

	for _, term := range queryTokens {
		if term == "" {
			continue
		}
		pos := strings.Index(folded, term)
		if pos < 0 {
			continue
		}

		start := pos - highlightWindow
		if start < 0 {
			start = 0
		}
		end := pos + len(term) + highlightWindow
		if end > len(passage) {
			end = len(passage)
		}
		start = runeFloor(passage, start)
		end = runeCeil(passage, end)

		merged := false
		for i := range spans {
			if start <= spans[i].end && end >= spans[i].start {
				if start < spans[i].start {
					spans[i].start = start
				}
				if end > spans[i].end {
					spans[i].end = end
				}
				merged = true
				break
			}
		}
		if !merged {
			spans = append(spans, span{start, end})
		}
		if len(spans) == maxHighlights {
			break
		}
	}

	snippets := make([]string, 0, len(spans))
	for _, sp := range spans {
		snippet := strings.TrimSpace(passage[sp.start:sp.end])
		if sp.start > 0 {
			snippet = "…" + snippet
		}
		if sp.end < len(passage) {
			snippet += "…"
		}
		snippets = append(snippets, snippet)
	}
	return snippets
}

// runeFloor moves a byte offset back to the start of the rune it lands in.
func runeFloor(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// runeCeil moves a byte offset forward past any partial rune.
func runeCeil(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}
