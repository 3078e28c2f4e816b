package text

import "strings"

// ItalianStopWords is the fixed closed-class stop word set: articles,
// prepositions (simple and articulated), conjunctions, common pronouns and
// auxiliaries, plus academic filler words frequent in course material.
var ItalianStopWords = []string{
	// articles
	"il", "lo", "la", "le", "gli", "un", "uno", "una",
	// simple prepositions
	"di", "da", "in", "con", "su", "per", "tra", "fra",
	// articulated prepositions
	"del", "dello", "della", "dei", "degli", "delle",
	"dal", "dallo", "dalla", "dai", "dagli", "dalle",
	"al", "allo", "alla", "ai", "agli", "alle",
	"nel", "nello", "nella", "nei", "negli", "nelle",
	"sul", "sullo", "sulla", "sui", "sugli", "sulle",
	// conjunctions and particles
	"ed", "od", "ma", "se", "che", "come", "quando", "mentre",
	"anche", "non", "già", "più", "meno", "quindi", "però", "perché",
	"cioè", "ovvero", "ossia", "inoltre", "infine", "dunque", "infatti",
	"allora", "oppure", "invece", "ancora",
	// pronouns and demonstratives
	"io", "tu", "lui", "lei", "noi", "voi", "loro",
	"mi", "ti", "si", "ci", "vi", "ne", "cui", "chi", "cosa",
	"questo", "questa", "questi", "queste",
	"quello", "quella", "quelli", "quelle",
	"stesso", "stessa", "stessi", "stesse",
	// common auxiliaries and copulas
	"è", "sono", "sei", "siamo", "siete", "era", "erano",
	"ho", "hai", "ha", "abbiamo", "avete", "hanno", "aveva",
	"essere", "avere", "fare", "può", "deve", "viene", "vengono",
	"stato", "stata", "stati", "state",
	// quantifiers
	"ogni", "tutto", "tutta", "tutti", "tutte", "molto", "molti", "molte",
	"alcuni", "alcune", "altro", "altra", "altri", "altre", "qualche",
	// academic filler common in course documents
	"capitolo", "paragrafo", "pagina", "esempio", "esercizio",
	"figura", "tabella", "nota", "punto", "parte", "caso",
}

// BuildStopWordMap converts a slice of stop words to a set for O(1) lookup.
// Entries are normalized with the same fold applied to corpus tokens so that
// accent variants in the list cannot drift from indexed content.
func BuildStopWordMap(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[foldString(strings.ToLower(w))] = struct{}{}
	}
	return m
}

// defaultStopWords is the shared lookup set built once at init.
var defaultStopWords = BuildStopWordMap(ItalianStopWords)
