// Package pattern finds Arabic diacritic patterns in text.
package pattern

import (
	"slices"
	"strings"
)

// contextRadius is the number of runes kept on each side of a match.
const contextRadius = 10

// Pattern is a diacritic mark taught at a curriculum level.
type Pattern struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ArabicText  string   `json:"arabic_text"`
	Description string   `json:"description"` // markdown
	Level       int      `json:"level"`
	Examples    []string `json:"examples"`
}

// Match is one occurrence of a pattern. Position counts runes, not bytes.
type Match struct {
	Text     string `json:"text"`
	Position int    `json:"position"`
	Context  string `json:"context"`
}

// MatchResult groups every occurrence of one pattern.
type MatchResult struct {
	Pattern Pattern `json:"pattern"`
	Matches []Match `json:"matches"`
}

var defaultPatterns = []Pattern{
	{
		ID:          "fatha",
		Name:        "Fatha",
		ArabicText:  "َ",
		Description: "Short vowel mark for the **a** sound, written above the letter.",
		Level:       1,
		Examples:    []string{"بَ", "تَ", "ثَ"},
	},
	{
		ID:          "kasra",
		Name:        "Kasra",
		ArabicText:  "ِ",
		Description: "Short vowel mark for the **i** sound, written below the letter.",
		Level:       1,
		Examples:    []string{"بِ", "تِ", "ثِ"},
	},
	{
		ID:          "damma",
		Name:        "Damma",
		ArabicText:  "ُ",
		Description: "Short vowel mark for the **u** sound, a small *waw* above the letter.",
		Level:       1,
		Examples:    []string{"بُ", "تُ", "ثُ"},
	},
	{
		ID:          "sukun",
		Name:        "Sukun",
		ArabicText:  "ْ",
		Description: "Marks a letter with **no vowel**; the letter is stopped on.",
		Level:       2,
		Examples:    []string{"بْ", "مِنْ", "قُلْ"},
	},
	{
		ID:          "shadda",
		Name:        "Shadda",
		ArabicText:  "ّ",
		Description: "Doubles the letter: read it once stopped, then again with its vowel.",
		Level:       2,
		Examples:    []string{"رَبّ", "ثُمَّ", "إِنَّ"},
	},
	{
		ID:          "tanween_fath",
		Name:        "Tanween Fath",
		ArabicText:  "ً",
		Description: "Double fatha, read as **an** at the end of a word.",
		Level:       3,
		Examples:    []string{"كِتَابًا", "بَابًا"},
	},
	{
		ID:          "tanween_kasr",
		Name:        "Tanween Kasr",
		ArabicText:  "ٍ",
		Description: "Double kasra, read as **in** at the end of a word.",
		Level:       3,
		Examples:    []string{"كِتَابٍ", "بَيْتٍ"},
	},
	{
		ID:          "tanween_damm",
		Name:        "Tanween Damm",
		ArabicText:  "ٌ",
		Description: "Double damma, read as **un** at the end of a word.",
		Level:       3,
		Examples:    []string{"كِتَابٌ", "قَلَمٌ"},
	},
}

// Matcher searches text for the patterns in its catalog.
type Matcher struct {
	patterns []Pattern
}

// NewMatcher returns a matcher over the built-in diacritic catalog.
func NewMatcher() *Matcher {
	return NewMatcherWithPatterns(defaultPatterns)
}

// NewMatcherWithPatterns returns a matcher over a custom catalog.
func NewMatcherWithPatterns(patterns []Pattern) *Matcher {
	return &Matcher{patterns: slices.Clone(patterns)}
}

// Find returns the occurrences in text of every pattern unlocked at userLevel.
// Patterns without occurrences are omitted.
func (m *Matcher) Find(text string, userLevel int) []MatchResult {
	var results []MatchResult
	runes := []rune(text)
	for _, p := range m.ByLevel(userLevel) {
		matches := findMatches(runes, []rune(p.ArabicText))
		if len(matches) > 0 {
			results = append(results, MatchResult{Pattern: p, Matches: matches})
		}
	}
	return results
}

func findMatches(text, pattern []rune) []Match {
	if len(pattern) == 0 {
		return nil
	}
	var matches []Match
	for pos := 0; pos+len(pattern) <= len(text); pos++ {
		if !slices.Equal(text[pos:pos+len(pattern)], pattern) {
			continue
		}
		start := max(0, pos-contextRadius)
		end := min(len(text), pos+len(pattern)+contextRadius)
		matches = append(matches, Match{
			Text:     string(pattern),
			Position: pos,
			Context:  string(text[start:end]),
		})
	}
	return matches
}

// ByLevel returns the patterns taught at or below level.
func (m *Matcher) ByLevel(level int) []Pattern {
	var patterns []Pattern
	for _, p := range m.patterns {
		if p.Level <= level {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// ByID looks up a pattern.
func (m *Matcher) ByID(id string) (Pattern, bool) {
	for _, p := range m.patterns {
		if p.ID == id {
			return p, true
		}
	}
	return Pattern{}, false
}

// Related returns the other patterns of the same level, which tend to be practiced together.
func (m *Matcher) Related(id string) []Pattern {
	p, ok := m.ByID(id)
	if !ok {
		return nil
	}
	var related []Pattern
	for _, other := range m.patterns {
		if other.Level == p.Level && other.ID != id {
			related = append(related, other)
		}
	}
	return related
}

// Examples returns practice examples for a pattern, or nil if the id is unknown.
func (m *Matcher) Examples(id string) []string {
	p, ok := m.ByID(id)
	if !ok {
		return nil
	}
	return slices.Clone(p.Examples)
}

// Contains reports whether text contains the pattern with the given id.
func (m *Matcher) Contains(text, id string) bool {
	p, ok := m.ByID(id)
	return ok && strings.Contains(text, p.ArabicText)
}
