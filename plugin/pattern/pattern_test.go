package pattern

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fatha  = "َ"
	damma  = "ُ"
	sukun  = "ْ"
	shadda = "ّ"
)

func TestFind_ReportsRunePositions(t *testing.T) {
	m := NewMatcher()
	// ba-fatha alif ba-damma
	text := "ب" + fatha + "اب" + damma

	results := m.Find(text, 1)
	require.Len(t, results, 2)

	assert.Equal(t, "fatha", results[0].Pattern.ID)
	require.Len(t, results[0].Matches, 1)
	assert.Equal(t, 1, results[0].Matches[0].Position)
	assert.Equal(t, text, results[0].Matches[0].Context)

	assert.Equal(t, "damma", results[1].Pattern.ID)
	assert.Equal(t, 4, results[1].Matches[0].Position)
}

func TestFind_RespectsLevel(t *testing.T) {
	m := NewMatcher()
	text := "ر" + fatha + "ب" + shadda // rabb

	level1 := m.Find(text, 1)
	require.Len(t, level1, 1)
	assert.Equal(t, "fatha", level1[0].Pattern.ID)

	level2 := m.Find(text, 2)
	require.Len(t, level2, 2)
	assert.Equal(t, "shadda", level2[1].Pattern.ID)
}

func TestFind_MultipleMatchesAndContext(t *testing.T) {
	m := NewMatcher()
	prefix := strings.Repeat("ا", 15)
	text := prefix + "ب" + sukun + prefix + "م" + sukun

	results := m.Find(text, 2)
	require.Len(t, results, 1)
	matches := results[0].Matches
	require.Len(t, matches, 2)

	assert.Equal(t, 16, matches[0].Position)
	assert.Equal(t, 33, matches[1].Position)
	// 10 runes before, the match, 10 runes after
	assert.Len(t, []rune(matches[0].Context), 21)
	assert.Equal(t, sukun, matches[0].Text)
}

func TestFind_NoMatches(t *testing.T) {
	m := NewMatcher()
	assert.Empty(t, m.Find("plain text", 3))
	assert.Empty(t, m.Find("", 3))
	assert.Empty(t, m.Find("ب"+fatha, 0))
}

func TestCatalogLookups(t *testing.T) {
	m := NewMatcher()

	assert.Len(t, m.ByLevel(1), 3)
	assert.Len(t, m.ByLevel(2), 5)
	assert.Len(t, m.ByLevel(3), 8)

	p, ok := m.ByID("kasra")
	require.True(t, ok)
	assert.Equal(t, 1, p.Level)

	_, ok = m.ByID("madda")
	assert.False(t, ok)

	related := m.Related("fatha")
	require.Len(t, related, 2)
	for _, r := range related {
		assert.Equal(t, 1, r.Level)
		assert.NotEqual(t, "fatha", r.ID)
	}
	assert.Nil(t, m.Related("madda"))

	assert.Len(t, m.Examples("damma"), 3)
	assert.Nil(t, m.Examples("madda"))
}

func TestExamples_ReturnsCopy(t *testing.T) {
	m := NewMatcher()
	examples := m.Examples("fatha")
	examples[0] = "changed"
	assert.NotEqual(t, "changed", m.Examples("fatha")[0])
}

func TestContains(t *testing.T) {
	m := NewMatcher()
	assert.True(t, m.Contains("ب"+damma, "damma"))
	assert.False(t, m.Contains("ب"+damma, "fatha"))
	assert.False(t, m.Contains("ب"+damma, "unknown"))
}

func TestCustomCatalog(t *testing.T) {
	m := NewMatcherWithPatterns([]Pattern{{ID: "lam_alif", ArabicText: "لا", Level: 1}})
	results := m.Find("سلام", 1)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Matches[0].Position)
}
