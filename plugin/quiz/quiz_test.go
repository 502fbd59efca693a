package quiz

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fayaz1010/Iqra/internal/curriculum"
)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	c, err := curriculum.Default()
	require.NoError(t, err)
	return NewGenerator(c)
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func TestPoints(t *testing.T) {
	tests := []struct {
		qt   QuestionType
		want [3]int
	}{
		{MultipleChoice, [3]int{10, 20, 30}},
		{Matching, [3]int{15, 25, 35}},
		{Writing, [3]int{20, 30, 40}},
		{Audio, [3]int{15, 25, 35}},
	}
	for _, tt := range tests {
		t.Run(string(tt.qt), func(t *testing.T) {
			for i, d := range []Difficulty{Easy, Medium, Hard} {
				got, err := Points(tt.qt, d)
				require.NoError(t, err)
				assert.Equal(t, tt.want[i], got, d)
			}
		})
	}

	_, err := Points("essay", Easy)
	assert.ErrorIs(t, err, ErrUnsupportedQuestionType)
	_, err = Points(Writing, "extreme")
	assert.ErrorIs(t, err, ErrInvalidDifficulty)
}

func TestGenerate_CountAndTypes(t *testing.T) {
	g := newTestGenerator(t)
	questions, err := g.Generate(1, Config{
		TotalQuestions: 12,
		Types:          []QuestionType{MultipleChoice, Writing},
		Difficulty:     Medium,
	}, newRand())
	require.NoError(t, err)
	require.Len(t, questions, 12)

	ids := make(map[string]bool)
	for _, q := range questions {
		assert.Contains(t, []QuestionType{MultipleChoice, Writing}, q.Type)
		assert.Equal(t, Medium, q.Difficulty)
		assert.False(t, ids[q.ID], "duplicate id %s", q.ID)
		ids[q.ID] = true
		switch q.Type {
		case MultipleChoice:
			assert.True(t, strings.HasPrefix(q.ID, "mc-"))
			assert.Equal(t, 20, q.Points)
		case Writing:
			assert.True(t, strings.HasPrefix(q.ID, "write-"))
			assert.Equal(t, 30, q.Points)
			assert.Empty(t, q.Options)
		}
	}
}

func TestGenerate_OptionsContainAnswer(t *testing.T) {
	g := newTestGenerator(t)
	questions, err := g.Generate(1, Config{TotalQuestions: 40}, newRand())
	require.NoError(t, err)

	for _, q := range questions {
		if q.Type == Writing {
			continue
		}
		require.Len(t, q.Options, 4, q.ID)
		assert.Contains(t, q.Options, q.CorrectAnswer)

		seen := make(map[string]bool)
		for _, o := range q.Options {
			assert.False(t, seen[o], "duplicate option %q in %s", o, q.ID)
			seen[o] = true
		}
		if q.Type == Audio {
			assert.True(t, strings.HasPrefix(q.AudioURL, "/audio/letters/"))
		}
	}
}

func TestGenerate_UsesOnlyUnlockedLetters(t *testing.T) {
	c, err := curriculum.Default()
	require.NoError(t, err)
	g := NewGenerator(c)

	unlocked := make(map[string]bool)
	for _, l := range c.LettersUpTo(1) {
		unlocked[l.Glyph] = true
	}

	questions, err := g.Generate(1, Config{TotalQuestions: 30, Types: []QuestionType{Writing}}, newRand())
	require.NoError(t, err)
	for _, q := range questions {
		assert.True(t, unlocked[q.CorrectAnswer], q.CorrectAnswer)
	}
}

func TestGenerate_Errors(t *testing.T) {
	g := newTestGenerator(t)

	_, err := g.Generate(1, Config{TotalQuestions: 1, Types: []QuestionType{"essay"}}, newRand())
	assert.ErrorIs(t, err, ErrUnsupportedQuestionType)

	_, err = g.Generate(1, Config{TotalQuestions: 1, Difficulty: "extreme"}, newRand())
	assert.ErrorIs(t, err, ErrInvalidDifficulty)

	questions, err := g.Generate(1, Config{TotalQuestions: 0}, newRand())
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestScore(t *testing.T) {
	questions := []Question{
		{ID: "a", CorrectAnswer: "ب", Points: 10},
		{ID: "b", CorrectAnswer: "ta", Points: 25},
		{ID: "c", CorrectAnswer: "ث", Points: 40},
	}
	result := Score(questions, map[string]string{
		"a": "ب",
		"b": "tha",
	})

	assert.Equal(t, Result{
		Score:            10,
		TotalPossible:    75,
		CorrectAnswers:   1,
		IncorrectAnswers: 2,
	}, result)

	assert.Equal(t, Result{}, Score(nil, nil))
}
