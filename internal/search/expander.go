package search

// Expand augments normalized query tokens with domain synonyms for the
// lexical channel. Originals keep their positions and always precede their
// synonyms; duplicates are dropped on first-seen order. The dense channel
// never sees expanded queries since the embedding model already captures
// semantic neighborhoods.
func Expand(tokens []string) []string {
	if len(tokens) == 0 {
		return []string{}
	}

	expanded := make([]string, 0, len(tokens)*2)
	seen := make(map[string]struct{}, len(tokens)*2)

	appendToken := func(t string) {
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		expanded = append(expanded, t)
	}

	for _, t := range tokens {
		appendToken(t)
	}
	for _, t := range tokens {
		for _, syn := range SynonymsFor(t) {
			appendToken(syn)
		}
	}

	return expanded
}
