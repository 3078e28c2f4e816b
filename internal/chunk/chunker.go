// Package chunk splits ingested course material into retrievable passages.
// Text is divided on blank lines, small paragraphs are merged up to a size
// bound, and markdown headings always start a new passage so a heading stays
// attached to the text it introduces.
package chunk

import (
	"strings"
)

// DefaultMaxChars bounds a single passage. Consecutive paragraphs merge up
// to this size so tiny paragraphs do not become their own documents.
const DefaultMaxChars = 1200

// Passage is one retrievable unit of a source file.
type Passage struct {
	Text  string
	Index int // position within the source, 0-based
	Page  int // 1-based page number, 0 when the source has no page breaks
}

// Options controls how a source is split.
type Options struct {
	// MaxChars bounds the merged passage size. Zero means DefaultMaxChars.
	MaxChars int
}

// Split divides text into passages. Form feeds mark page boundaries, as
// produced by PDF text extraction; when none are present every passage
// reports page 0.
func Split(text string, opts Options) []Passage {
	maxChars := opts.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	pages := strings.Split(text, "\f")
	paged := len(pages) > 1

	var passages []Passage
	for pageIdx, pageText := range pages {
		page := 0
		if paged {
			page = pageIdx + 1
		}
		for _, body := range splitPage(pageText, maxChars) {
			passages = append(passages, Passage{
				Text:  body,
				Index: len(passages),
				Page:  page,
			})
		}
	}
	return passages
}

// splitPage splits one page on blank lines and merges paragraphs up to
// maxChars. A markdown heading always begins a new passage.
func splitPage(text string, maxChars int) []string {
	var out []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
		}
	}

	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if isHeading(p) || (current.Len() > 0 && current.Len()+len(p) > maxChars) {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	flush()
	return out
}

func isHeading(paragraph string) bool {
	return strings.HasPrefix(paragraph, "#")
}
