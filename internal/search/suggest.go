package search

import (
	"sort"
	"strings"
)

// prefixRange returns the consecutive run of vocabulary terms starting with
// prefix. The vocabulary is sorted, so the run starts at the binary-search
// insertion point.
func prefixRange(vocab []string, prefix string) []string {
	start := sort.SearchStrings(vocab, prefix)
	end := start
	for end < len(vocab) && strings.HasPrefix(vocab[end], prefix) {
		end++
	}
	return vocab[start:end]
}
