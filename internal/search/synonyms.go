package search

// studySynonyms maps normalized Italian study-domain terms to related terms
// appended during lexical query expansion. Entries are already in normalized
// form (lowercase, grave accents) so lookups happen after tokenization.
var studySynonyms = map[string][]string{
	// Study and learning
	"studio":        {"apprendimento", "formazione", "educazione"},
	"studiare":      {"apprendere", "imparare", "memorizzare"},
	"apprendimento": {"studio", "formazione"},
	"imparare":      {"apprendere", "studiare"},
	"ripasso":       {"revisione", "ripetizione"},
	"memoria":       {"memorizzazione", "ricordo"},

	// Course material
	"corso":     {"insegnamento", "lezione", "modulo"},
	"lezione":   {"lezioni", "corso", "seminario"},
	"libro":     {"testo", "manuale", "volume"},
	"capitolo":  {"sezione", "parte", "unità"},
	"argomento": {"tema", "soggetto", "materia"},
	"materia":   {"disciplina", "argomento"},
	"appunti":   {"note", "annotazioni"},
	"riassunto": {"sintesi", "sommario", "compendio"},

	// Assessment
	"esame":     {"verifica", "prova", "test"},
	"verifica":  {"esame", "test", "valutazione"},
	"domanda":   {"quesito", "questione"},
	"risposta":  {"soluzione", "replica"},
	"esercizio": {"esercitazione", "attività", "compito"},
	"voto":      {"valutazione", "giudizio", "punteggio"},

	// Concepts and explanation
	"definizione": {"significato", "descrizione"},
	"concetto":    {"nozione", "idea", "principio"},
	"teoria":      {"modello", "ipotesi"},
	"spiegazione": {"chiarimento", "illustrazione"},
	"formula":     {"equazione", "espressione"},
	"regola":      {"norma", "principio", "legge"},
	"metodo":      {"procedimento", "tecnica", "approccio"},
	"analisi":     {"esame", "studio", "valutazione"},
}

// SynonymsFor returns the synonym list for a normalized term, or nil.
func SynonymsFor(term string) []string {
	return studySynonyms[term]
}
