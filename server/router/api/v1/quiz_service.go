package v1

import (
	"fmt"
	"math/rand/v2"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/fayaz1010/Iqra/plugin/quiz"
	apierrors "github.com/fayaz1010/Iqra/server/internal/errors"
)

type createQuizRequest struct {
	Level          int                 `json:"level"`
	TotalQuestions int                 `json:"total_questions"`
	Types          []quiz.QuestionType `json:"types"`
	Difficulty     quiz.Difficulty     `json:"difficulty"`
}

// Quiz is a generated quiz. Correct answers stay on the server until it is scored.
type Quiz struct {
	ID            string          `json:"id"`
	Level         int             `json:"level"`
	Questions     []quiz.Question `json:"questions"`
	TotalPossible int             `json:"total_possible"`
}

type scoreQuizRequest struct {
	QuizID  string            `json:"quiz_id"`
	Answers map[string]string `json:"answers"`
}

type ScoreQuizResponse struct {
	quiz.Result
	// Answers maps question ids to the correct answers.
	Answers map[string]string `json:"answers"`
}

// CreateQuiz generates a quiz from the letters unlocked at a level.
// POST /api/v1/quizzes
func (s *APIV1Service) CreateQuiz(c echo.Context) error {
	request := &createQuizRequest{}
	if err := bindJSON(c, request); err != nil {
		return err
	}
	if request.Level <= 0 {
		request.Level = 1
	}
	if request.TotalQuestions == 0 {
		request.TotalQuestions = defaultQuizQuestions
	}
	if request.TotalQuestions < 0 || request.TotalQuestions > maxQuizQuestions {
		return apierrors.InvalidArgument(fmt.Sprintf("total_questions must be between 1 and %d", maxQuizQuestions))
	}

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	questions, err := s.QuizGenerator.Generate(request.Level, quiz.Config{
		TotalQuestions: request.TotalQuestions,
		Types:          request.Types,
		Difficulty:     request.Difficulty,
	}, rng)
	if err != nil {
		return err
	}

	id := shortuuid.New()
	s.quizzes.Set(c.Request().Context(), id, questions)

	response := &Quiz{
		ID:        id,
		Level:     request.Level,
		Questions: make([]quiz.Question, len(questions)),
	}
	for i, q := range questions {
		q.CorrectAnswer = ""
		response.Questions[i] = q
		response.TotalPossible += q.Points
	}
	return c.JSON(http.StatusOK, response)
}

// ScoreQuiz scores the answers to a generated quiz. A quiz can be scored once.
// POST /api/v1/quizzes/score
func (s *APIV1Service) ScoreQuiz(c echo.Context) error {
	request := &scoreQuizRequest{}
	if err := bindJSON(c, request); err != nil {
		return err
	}
	ctx := c.Request().Context()
	cached, ok := s.quizzes.Take(ctx, request.QuizID)
	if !ok {
		return apierrors.NotFound("quiz not found or expired").WithContext("quiz_id", request.QuizID)
	}

	questions := cached.([]quiz.Question)
	response := &ScoreQuizResponse{
		Result:  quiz.Score(questions, request.Answers),
		Answers: make(map[string]string, len(questions)),
	}
	for _, q := range questions {
		response.Answers[q.ID] = q.CorrectAnswer
	}
	return c.JSON(http.StatusOK, response)
}
