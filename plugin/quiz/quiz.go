// Package quiz generates and scores letter recognition quizzes.
package quiz

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/lithammer/shortuuid/v4"

	"github.com/fayaz1010/Iqra/internal/curriculum"
)

// optionCount is the number of choices offered by multiple choice and audio questions.
const optionCount = 4

var (
	ErrUnsupportedQuestionType = errors.New("quiz: unsupported question type")
	ErrInvalidDifficulty       = errors.New("quiz: invalid difficulty")
	ErrEmptyLetterBank         = errors.New("quiz: no letters available for level")
)

// QuestionType is the kind of a quiz question.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	Matching       QuestionType = "matching"
	Writing        QuestionType = "writing"
	Audio          QuestionType = "audio"
)

// AllTypes lists every supported question type.
var AllTypes = []QuestionType{MultipleChoice, Matching, Writing, Audio}

// Difficulty scales the points a question is worth.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

func (d Difficulty) index() (int, bool) {
	switch d {
	case Easy:
		return 0, true
	case Medium:
		return 1, true
	case Hard:
		return 2, true
	}
	return 0, false
}

// points per difficulty (easy, medium, hard) for each question type.
var pointTable = map[QuestionType][3]int{
	MultipleChoice: {10, 20, 30},
	Matching:       {15, 25, 35},
	Writing:        {20, 30, 40},
	Audio:          {15, 25, 35},
}

var idPrefix = map[QuestionType]string{
	MultipleChoice: "mc",
	Matching:       "match",
	Writing:        "write",
	Audio:          "audio",
}

// Points returns the value of a question of type t at difficulty d.
func Points(t QuestionType, d Difficulty) (int, error) {
	row, ok := pointTable[t]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedQuestionType, t)
	}
	i, ok := d.index()
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDifficulty, d)
	}
	return row[i], nil
}

// Question is one generated quiz question.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"prompt"`
	CorrectAnswer string       `json:"correct_answer"`
	Options       []string     `json:"options,omitempty"`
	AudioURL      string       `json:"audio_url,omitempty"`
	ImageURL      string       `json:"image_url,omitempty"`
	Difficulty    Difficulty   `json:"difficulty"`
	Points        int          `json:"points"`
}

// Config controls quiz generation.
type Config struct {
	TotalQuestions int            `json:"total_questions"`
	Types          []QuestionType `json:"types"`
	Difficulty     Difficulty     `json:"difficulty"`
}

// Result is the outcome of scoring a set of answers.
type Result struct {
	Score            int `json:"score"`
	TotalPossible    int `json:"total_possible"`
	CorrectAnswers   int `json:"correct_answers"`
	IncorrectAnswers int `json:"incorrect_answers"`
}

// Generator builds questions from the letters unlocked at a curriculum level.
type Generator struct {
	curriculum *curriculum.Curriculum
}

func NewGenerator(c *curriculum.Curriculum) *Generator {
	return &Generator{curriculum: c}
}

// Generate returns cfg.TotalQuestions questions whose types are drawn uniformly from cfg.Types.
// An empty type list uses every type; an empty difficulty means easy.
func (g *Generator) Generate(level int, cfg Config, rng *rand.Rand) ([]Question, error) {
	types := cfg.Types
	if len(types) == 0 {
		types = AllTypes
	}
	difficulty := cfg.Difficulty
	if difficulty == "" {
		difficulty = Easy
	}
	if _, ok := difficulty.index(); !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDifficulty, difficulty)
	}
	for _, t := range types {
		if _, ok := pointTable[t]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedQuestionType, t)
		}
	}

	letters := g.curriculum.LettersUpTo(max(level, 1))
	if len(letters) == 0 {
		return nil, ErrEmptyLetterBank
	}

	questions := make([]Question, 0, cfg.TotalQuestions)
	for i := 0; i < cfg.TotalQuestions; i++ {
		t := types[rng.IntN(len(types))]
		q, err := g.question(t, difficulty, letters, rng)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (g *Generator) question(t QuestionType, d Difficulty, letters []curriculum.Letter, rng *rand.Rand) (Question, error) {
	points, err := Points(t, d)
	if err != nil {
		return Question{}, err
	}
	answer := letters[rng.IntN(len(letters))]
	q := Question{
		ID:         idPrefix[t] + "-" + shortuuid.New(),
		Type:       t,
		Difficulty: d,
		Points:     points,
		ImageURL:   "/letters/" + answer.ID + ".png",
	}

	switch t {
	case MultipleChoice:
		q.Prompt = "Which letter is this?"
		q.CorrectAnswer = answer.Glyph
		q.Options = options(answer, letters, rng, func(l curriculum.Letter) string { return l.Glyph })
	case Matching:
		q.Prompt = "Match the letter with its correct sound:"
		q.CorrectAnswer = answer.Sound
		q.Options = options(answer, letters, rng, func(l curriculum.Letter) string { return l.Sound })
	case Writing:
		q.Prompt = "Write this letter:"
		q.CorrectAnswer = answer.Glyph
	case Audio:
		q.Prompt = "Listen and select the correct letter:"
		q.CorrectAnswer = answer.Glyph
		q.Options = options(answer, letters, rng, func(l curriculum.Letter) string { return l.Glyph })
		q.AudioURL = "/audio/letters/" + answer.ID + ".mp3"
		q.ImageURL = ""
	}
	return q, nil
}

// options returns up to optionCount-1 distractors plus the answer, shuffled.
func options(answer curriculum.Letter, letters []curriculum.Letter, rng *rand.Rand, value func(curriculum.Letter) string) []string {
	var distractors []string
	for _, l := range letters {
		if l.ID != answer.ID {
			distractors = append(distractors, value(l))
		}
	}
	rng.Shuffle(len(distractors), func(i, j int) {
		distractors[i], distractors[j] = distractors[j], distractors[i]
	})
	if len(distractors) > optionCount-1 {
		distractors = distractors[:optionCount-1]
	}
	opts := append(distractors, value(answer))
	rng.Shuffle(len(opts), func(i, j int) {
		opts[i], opts[j] = opts[j], opts[i]
	})
	return opts
}

// Score compares answers, keyed by question id, against the questions. Missing answers count
// as incorrect.
func Score(questions []Question, answers map[string]string) Result {
	var r Result
	for _, q := range questions {
		r.TotalPossible += q.Points
		if answer, ok := answers[q.ID]; ok && answer == q.CorrectAnswer {
			r.Score += q.Points
			r.CorrectAnswers++
		} else {
			r.IncorrectAnswers++
		}
	}
	return r
}
