package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHighlights_FirstOccurrenceCaseInsensitive(t *testing.T) {
	text := "La Velocità media si calcola dividendo lo spazio percorso per il tempo. La velocità istantanea è diversa."

	snippets := Highlights(text, []string{"velocità"})

	require.Len(t, snippets, 1)
	// Matches the first occurrence despite the capital V.
	assert.Contains(t, snippets[0], "Velocità media")
}

func TestHighlights_WindowAroundTerm(t *testing.T) {
	long := strings.Repeat("parola ", 40) + "attrito" + strings.Repeat(" parola", 40)

	snippets := Highlights(long, []string{"attrito"})

	require.Len(t, snippets, 1)
	assert.Contains(t, snippets[0], "attrito")
	assert.True(t, strings.HasPrefix(snippets[0], "…"))
	assert.True(t, strings.HasSuffix(snippets[0], "…"))
	assert.Less(t, len(snippets[0]), len(long))
}

func TestHighlights_MissingTermYieldsNothing(t *testing.T) {
	snippets := Highlights("il gatto corre", []string{"astronave"})
	assert.Empty(t, snippets)
}

func TestHighlights_OverlappingTermsMerge(t *testing.T) {
	text := "energia cinetica del corpo in movimento"

	snippets := Highlights(text, []string{"energia", "cinetica"})

	// Adjacent terms share one window.
	require.Len(t, snippets, 1)
	assert.Contains(t, snippets[0], "energia cinetica")
}

func TestHighlights_FoldedTermMatchesSurfaceForm(t *testing.T) {
	// Normalization folds acute accents to grave ("ventitré" becomes the
	// token "ventitrè"); the snippet must still find the surface spelling.
	text := "Il capitolo ventitré introduce le trasformazioni termodinamiche."

	snippets := Highlights(text, []string{"ventitrè"})

	require.Len(t, snippets, 1)
	assert.Contains(t, snippets[0], "ventitré")
}

func TestHighlights_EmptyInputs(t *testing.T) {
	assert.Empty(t, Highlights("", []string{"x"}))
	assert.Empty(t, Highlights("testo", nil))
}

func TestHighlights_AccentedTextSafeBoundaries(t *testing.T) {
	text := strings.Repeat("più ", 50) + "velocità" + strings.Repeat(" già", 50)

	snippets := Highlights(text, []string{"velocità"})

	require.Len(t, snippets, 1)
	// Window edges never split a multibyte rune.
	assert.True(t, strings.ContainsRune(snippets[0], 'à'))
	for _, r := range snippets[0] {
		assert.NotEqual(t, '�', r)
	}
}
