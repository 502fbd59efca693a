package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fayaz1010/Iqra/internal/curriculum"
	"github.com/fayaz1010/Iqra/internal/profile"
	"github.com/fayaz1010/Iqra/plugin/challenge"
	"github.com/fayaz1010/Iqra/plugin/srs"
	apierrors "github.com/fayaz1010/Iqra/server/internal/errors"
	"github.com/fayaz1010/Iqra/server/internal/observability"
	"github.com/fayaz1010/Iqra/server/service/progress"
	"github.com/fayaz1010/Iqra/server/service/review"
	teststore "github.com/fayaz1010/Iqra/store/test"
)

type testServer struct {
	echo    *echo.Echo
	service *APIV1Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	ts := teststore.NewTestingStore(ctx, t)
	c, err := curriculum.Default()
	require.NoError(t, err)

	progressService := progress.NewService(ts)
	reviewService := review.NewService(ts, c, review.WithProgressRecorder(progressService))
	metrics := observability.NewMetrics(100)
	service := NewAPIV1Service(&profile.Profile{InstanceURL: "https://iqra.example.com/"}, reviewService, progressService, c, metrics)

	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Use(observability.RequestLogger(nil, metrics))
	service.RegisterRoutes(e)
	return &testServer{echo: e, service: service}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func assertAPIError(t *testing.T, rec *httptest.ResponseRecorder, status int, code apierrors.ErrorCode) {
	t.Helper()
	assert.Equal(t, status, rec.Code, rec.Body.String())
	resp := decode[apierrors.Response](t, rec)
	assert.Equal(t, code, resp.Code)
	assert.NotEmpty(t, resp.Message)
}

func TestReviewFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/users/amina/items", map[string]any{
		"id": "alif", "type": "letter", "content": "ا", "level": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	item := decode[review.Item](t, rec)
	assert.Equal(t, "alif", item.ID)
	assert.Equal(t, srs.Letter, item.Type)
	assert.Equal(t, srs.PhaseNew, item.Phase)
	assert.Equal(t, srs.StatusDue, item.Status.Status)

	rec = s.do(t, http.MethodPost, "/api/v1/users/amina/items/alif/review", map[string]any{"quality": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[review.ReviewResult](t, rec)
	assert.Equal(t, 10, result.Points)
	assert.Equal(t, 1, result.Item.ConsecutiveCorrect)
	assert.Equal(t, srs.StatusUpcoming, result.Item.Status.Status)
	assert.Equal(t, 1, result.Item.Status.DaysUntilReview)

	rec = s.do(t, http.MethodGet, "/api/v1/users/amina/items/alif/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[review.Item](t, rec)
	assert.Equal(t, srs.PhaseLearning, status.Phase)
	assert.InDelta(t, 20.0, status.Status.Progress, 0.001)

	rec = s.do(t, http.MethodGet, "/api/v1/users/amina/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[progress.Progress](t, rec)
	assert.Equal(t, 10, p.XP)
	assert.Equal(t, 1, p.Level)

	overview := s.service.Metrics.Overview(time.Time{})
	assert.EqualValues(t, 1, overview.ReviewsByQuality[5])
}

func TestRecordReview_Errors(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/users/amina/items", map[string]any{
		"id": "ba", "type": "letter", "content": "ب", "level": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   apierrors.ErrorCode
	}{
		{"quality too high", "/api/v1/users/amina/items/ba/review", map[string]any{"quality": 6}, http.StatusBadRequest, apierrors.ErrCodeInvalidArgument},
		{"negative quality", "/api/v1/users/amina/items/ba/review", map[string]any{"quality": -1}, http.StatusBadRequest, apierrors.ErrCodeInvalidArgument},
		{"missing quality", "/api/v1/users/amina/items/ba/review", map[string]any{}, http.StatusBadRequest, apierrors.ErrCodeInvalidArgument},
		{"unknown item", "/api/v1/users/amina/items/ghost/review", map[string]any{"quality": 4}, http.StatusNotFound, apierrors.ErrCodeNotFound},
		{"other learner", "/api/v1/users/bilal/items/ba/review", map[string]any{"quality": 4}, http.StatusNotFound, apierrors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertAPIError(t, s.do(t, http.MethodPost, tt.path, tt.body), tt.status, tt.code)
		})
	}

	rec = s.do(t, http.MethodGet, "/api/v1/users/amina/items/ba/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[review.Item](t, rec).LastReviewed)
}

func TestEnrollItem_Invalid(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/users/amina/items", map[string]any{"id": "x", "type": "sentence", "content": "x"})
	assertAPIError(t, rec, http.StatusBadRequest, apierrors.ErrCodeInvalidArgument)

	rec = s.do(t, http.MethodPost, "/api/v1/users/amina/items", map[string]any{"type": "letter"})
	assertAPIError(t, rec, http.StatusBadRequest, apierrors.ErrCodeInvalidArgument)
}

func TestCurriculumAndDueReviews(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/users/amina/curriculum", map[string]any{"level": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 13, decode[loadCurriculumResponse](t, rec).Enrolled)

	rec = s.do(t, http.MethodPost, "/api/v1/users/amina/curriculum", map[string]any{"level": 0})
	assertAPIError(t, rec, http.StatusBadRequest, apierrors.ErrCodeInvalidArgument)

	rec = s.do(t, http.MethodGet, "/api/v1/users/amina/reviews/due?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	due := decode[review.DueReviews](t, rec)
	assert.Equal(t, 13, due.TotalDue)
	assert.Len(t, due.Items, 5)

	rec = s.do(t, http.MethodGet, "/api/v1/users/amina/reviews/due?limit=many", nil)
	assertAPIError(t, rec, http.StatusBadRequest, apierrors.ErrCodeInvalidArgument)

	rec = s.do(t, http.MethodGet, "/api/v1/users/amina/reviews/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[review.Stats](t, rec)
	assert.Equal(t, 13, stats.TotalItems)
	assert.Equal(t, 13, stats.DueItems)
	assert.Equal(t, 13, stats.NewItems)
	assert.Zero(t, stats.TotalReviews)

	rec = s.do(t, http.MethodGet, "/api/v1/users/amina/items?filter="+url.QueryEscape(`item_type == "pattern"`), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patterns := decode[[]review.Item](t, rec)
	assert.Len(t, patterns, 3)

	rec = s.do(t, http.MethodGet, "/api/v1/users/amina/items?filter="+url.QueryEscape(`level +`), nil)
	assertAPIError(t, rec, http.StatusBadRequest, apierrors.ErrCodeInvalidArgument)

	rec = s.do(t, http.MethodGet, "/api/v1/users/nobody/items", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestActivityAndNotifications(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/users/amina/activity", map[string]any{"counters": map[string]int{"pages_read": 1}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[progress.ActivityResult](t, rec)
	require.Len(t, result.Unlocked, 1)
	assert.Equal(t, "first_page", result.Unlocked[0].ID)

	rec = s.do(t, http.MethodPost, "/api/v1/users/amina/activity", map[string]any{"counters": map[string]int{}})
	assertAPIError(t, rec, http.StatusBadRequest, apierrors.ErrCodeInvalidArgument)
	rec = s.do(t, http.MethodPost, "/api/v1/users/amina/activity", map[string]any{"counters": map[string]int{"pages_read": -3}})
	assertAPIError(t, rec, http.StatusBadRequest, apierrors.ErrCodeInvalidArgument)

	rec = s.do(t, http.MethodGet, "/api/v1/users/amina/notifications?unread=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]progress.Notification](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "first_page", list[0].Payload.AchievementID)

	rec = s.do(t, http.MethodGet, "/api/v1/users/amina/notifications.atom", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, atomContentType, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Body.String(), "<feed")
	assert.Contains(t, rec.Body.String(), list[0].Title)
	assert.Contains(t, rec.Body.String(), "https://iqra.example.com/api/v1/users/amina/notifications")

	path := fmt.Sprintf("/api/v1/users/amina/notifications/%d/read", list[0].ID)
	assertAPIError(t, s.do(t, http.MethodPost, strings.Replace(path, "amina", "bilal", 1), nil), http.StatusNotFound, apierrors.ErrCodeNotFound)

	rec = s.do(t, http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[progress.Notification](t, rec).Read)

	rec = s.do(t, http.MethodGet, "/api/v1/users/amina/notifications?unread=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]progress.Notification](t, rec))

	assertAPIError(t, s.do(t, http.MethodPost, "/api/v1/users/amina/notifications/abc/read", nil), http.StatusBadRequest, apierrors.ErrCodeInvalidArgument)
	assertAPIError(t, s.do(t, http.MethodGet, "/api/v1/users/amina/notifications?limit=0", nil), http.StatusBadRequest, apierrors.ErrCodeInvalidArgument)
	assertAPIError(t, s.do(t, http.MethodGet, "/api/v1/users/amina/notifications?unread=maybe", nil), http.StatusBadRequest, apierrors.ErrCodeInvalidArgument)
}

func TestChallenges(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/users/amina/challenges", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	challenges := decode[progress.Challenges](t, rec)
	require.Len(t, challenges.Current, 4)

	var quizID string
	for _, c := range challenges.Current {
		if c.Type == challenge.Quiz {
			quizID = c.ID
		}
	}
	require.NotEmpty(t, quizID)

	rec = s.do(t, http.MethodPost, "/api/v1/users/amina/challenges/"+quizID+"/progress", map[string]any{"progress": 150})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 100, decode[challenge.Challenge](t, rec).Progress)

	rec = s.do(t, http.MethodPost, "/api/v1/users/amina/challenges/"+quizID+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	completed := decode[progress.ChallengeResult](t, rec)
	assert.Equal(t, 60, completed.EarnedXP)
	assert.Equal(t, 1, completed.Streak)
	assert.Equal(t, 60, completed.Progress.XP)

	assertAPIError(t, s.do(t, http.MethodPost, "/api/v1/users/amina/challenges/"+quizID+"/complete", nil), http.StatusNotFound, apierrors.ErrCodeNotFound)
	assertAPIError(t, s.do(t, http.MethodPost, "/api/v1/users/amina/challenges/nope/complete", nil), http.StatusNotFound, apierrors.ErrCodeNotFound)
}

func TestLeaderboard(t *testing.T) {
	s := newTestServer(t)
	for _, user := range []string{"amina", "bilal"} {
		rec := s.do(t, http.MethodPost, "/api/v1/users/"+user+"/items", map[string]any{"id": "alif", "type": "letter", "content": "ا", "level": 1})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/users/amina/items/alif/review", map[string]any{"quality": 3}).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/users/bilal/items/alif/review", map[string]any{"quality": 5}).Code)

	rec := s.do(t, http.MethodGet, "/api/v1/leaderboards/weekly", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	board := decode[struct {
		Period  string `json:"period"`
		Entries []struct {
			UserID string `json:"user_id"`
			Score  int    `json:"score"`
		} `json:"entries"`
	}](t, rec)
	require.Len(t, board.Entries, 2)
	assert.Equal(t, "bilal", board.Entries[0].UserID)
	assert.Equal(t, 10, board.Entries[0].Score)
	assert.Equal(t, 6, board.Entries[1].Score)

	rec = s.do(t, http.MethodGet, "/api/v1/leaderboards/all_time/users/amina", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rank := decode[progress.Rank](t, rec)
	assert.Equal(t, 2, rank.Rank)
	require.NotNil(t, rank.Entry)

	rec = s.do(t, http.MethodGet, "/api/v1/leaderboards/daily/users/nobody", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[progress.Rank](t, rec).Rank)

	assertAPIError(t, s.do(t, http.MethodGet, "/api/v1/leaderboards/yearly", nil), http.StatusBadRequest, apierrors.ErrCodeInvalidArgument)
}

func TestPatterns(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/patterns?level=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	patterns := decode[[]Pattern](t, rec)
	require.Len(t, patterns, 3)
	for _, p := range patterns {
		assert.Contains(t, p.DescriptionHTML, "<p>")
	}

	rec = s.do(t, http.MethodGet, "/api/v1/patterns", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]Pattern](t, rec), 8)

	rec = s.do(t, http.MethodGet, "/api/v1/patterns/fatha", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[PatternDetail](t, rec)
	assert.Equal(t, "fatha", detail.ID)
	assert.Contains(t, detail.DescriptionHTML, "<strong>a</strong>")
	assert.Len(t, detail.Related, 2)

	assertAPIError(t, s.do(t, http.MethodGet, "/api/v1/patterns/madda", nil), http.StatusNotFound, apierrors.ErrCodeNotFound)

	rec = s.do(t, http.MethodPost, "/api/v1/patterns/match", map[string]any{"text": "بَ", "level": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"fatha"`)

	assertAPIError(t, s.do(t, http.MethodPost, "/api/v1/patterns/match", map[string]any{"level": 1}), http.StatusBadRequest, apierrors.ErrCodeInvalidArgument)
}

func TestQuiz(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/quizzes", map[string]any{"level": 1, "total_questions": 5, "types": []string{"multiple_choice"}, "difficulty": "medium"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	generated := decode[Quiz](t, rec)
	require.Len(t, generated.Questions, 5)
	assert.Equal(t, 100, generated.TotalPossible)
	answers := map[string]string{}
	for _, q := range generated.Questions {
		assert.Empty(t, q.CorrectAnswer)
		answers[q.ID] = "wrong"
	}

	rec = s.do(t, http.MethodPost, "/api/v1/quizzes/score", map[string]any{"quiz_id": generated.ID, "answers": answers})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	scored := decode[ScoreQuizResponse](t, rec)
	assert.Zero(t, scored.Score)
	assert.Equal(t, 100, scored.TotalPossible)
	assert.Equal(t, 5, scored.IncorrectAnswers)
	assert.Len(t, scored.Answers, 5)

	rec = s.do(t, http.MethodPost, "/api/v1/quizzes/score", map[string]any{"quiz_id": generated.ID, "answers": answers})
	assertAPIError(t, rec, http.StatusNotFound, apierrors.ErrCodeNotFound)

	rec = s.do(t, http.MethodPost, "/api/v1/quizzes", map[string]any{"types": []string{"essay"}})
	assertAPIError(t, rec, http.StatusBadRequest, apierrors.ErrCodeInvalidArgument)
	rec = s.do(t, http.MethodPost, "/api/v1/quizzes", map[string]any{"total_questions": 500})
	assertAPIError(t, rec, http.StatusBadRequest, apierrors.ErrCodeInvalidArgument)
}

// race sends the same request n times in parallel and returns the status codes.
func (s *testServer) race(t *testing.T, n int, method, path string, body any) []int {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(method, path, bytes.NewReader(data))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			s.echo.ServeHTTP(rec, req)
			codes[i] = rec.Code
		}()
	}
	wg.Wait()
	return codes
}

func TestQuiz_ScoredOnceUnderRace(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/quizzes", map[string]any{"level": 1, "total_questions": 3, "types": []string{"multiple_choice"}, "difficulty": "easy"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	generated := decode[Quiz](t, rec)

	codes := s.race(t, 8, http.MethodPost, "/api/v1/quizzes/score", map[string]any{"quiz_id": generated.ID, "answers": map[string]string{}})
	var scored, missing int
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			scored++
		case http.StatusNotFound:
			missing++
		}
	}
	assert.Equal(t, 1, scored)
	assert.Equal(t, 7, missing)
}

func TestRecordReview_ParallelRequests(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/users/amina/items", map[string]any{
		"id": "ba", "type": "letter", "content": "ب", "level": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	codes := s.race(t, 8, http.MethodPost, "/api/v1/users/amina/items/ba/review", map[string]any{"quality": 5})
	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/users/amina/items/ba/status", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	item := decode[review.Item](t, rec)
	assert.Equal(t, 8, item.ConsecutiveCorrect)
	assert.Equal(t, srs.PhaseLearned, item.Phase)
}

func TestCurriculumLevels(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/curriculum/levels", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	levels := decode[[]CurriculumLevel](t, rec)
	require.Len(t, levels, len(s.service.Curriculum.Levels))
	assert.Equal(t, 1, levels[0].Level.Level)
	assert.Contains(t, levels[0].DescriptionHTML, "<strong>fatha</strong>")
}

func TestMetricsOverview(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/curriculum/levels", nil).Code)

	rec := s.do(t, http.MethodGet, "/api/v1/system/metrics/overview?range=1h", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	overview := decode[MetricsOverviewResponse](t, rec)
	assert.Equal(t, "1h", overview.TimeRange)
	assert.EqualValues(t, 1, overview.TotalRequests)
	assert.EqualValues(t, 1, overview.Routes["GET /api/v1/curriculum/levels"])

	assertAPIError(t, s.do(t, http.MethodGet, "/api/v1/system/metrics/overview?range=1y", nil), http.StatusBadRequest, apierrors.ErrCodeInvalidArgument)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	assertAPIError(t, s.do(t, http.MethodGet, "/api/v1/nothing", nil), http.StatusNotFound, apierrors.ErrCodeNotFound)
}

func TestToAPIError(t *testing.T) {
	tests := []struct {
		err  error
		code apierrors.ErrorCode
	}{
		{fmt.Errorf("wrapped: %w", srs.ErrInvalidQuality), apierrors.ErrCodeInvalidArgument},
		{review.ErrItemNotFound, apierrors.ErrCodeNotFound},
		{challenge.ErrNotFound, apierrors.ErrCodeNotFound},
		{apierrors.RateLimitExceeded("slow down"), apierrors.ErrCodeRateLimitExceeded},
		{echo.NewHTTPError(http.StatusBadRequest, "bad"), apierrors.ErrCodeInvalidArgument},
		{context.Canceled, apierrors.ErrCodeContextCanceled},
		{context.DeadlineExceeded, apierrors.ErrCodeTimeout},
		{errors.New("disk on fire"), apierrors.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.code, toAPIError(tt.err).Code)
		})
	}

	internal := toAPIError(errors.New("secret detail")).Response()
	assert.NotContains(t, internal.Message, "secret")
}
