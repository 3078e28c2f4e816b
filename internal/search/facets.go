package search

// ComputeFacets counts results by source document, scope, and channel of
// origin. Counts cover the returned result page only, not the full
// candidate set.
func ComputeFacets(results []ScoredResult) Facets {
	f := Facets{
		BySource:  make(map[string]int),
		ByScope:   make(map[string]int),
		ByChannel: make(map[string]int),
	}
	for _, r := range results {
		f.BySource[r.Document.SourceID]++
		f.ByScope[r.Document.Scope.Key()]++
		f.ByChannel[string(r.Channel)]++
	}
	return f
}
