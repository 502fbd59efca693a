package v1

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fayaz1010/Iqra/internal/curriculum"
	"github.com/fayaz1010/Iqra/internal/profile"
	"github.com/fayaz1010/Iqra/plugin/challenge"
	"github.com/fayaz1010/Iqra/plugin/filter"
	"github.com/fayaz1010/Iqra/plugin/leaderboard"
	"github.com/fayaz1010/Iqra/plugin/pattern"
	"github.com/fayaz1010/Iqra/plugin/quiz"
	"github.com/fayaz1010/Iqra/plugin/srs"
	apierrors "github.com/fayaz1010/Iqra/server/internal/errors"
	"github.com/fayaz1010/Iqra/server/internal/observability"
	"github.com/fayaz1010/Iqra/server/service/progress"
	"github.com/fayaz1010/Iqra/server/service/review"
	"github.com/fayaz1010/Iqra/store/cache"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
	defaultQuizQuestions     = 10
	maxQuizQuestions         = 50
	quizTTL                  = time.Hour
	maxPendingQuizzes        = 10000
)

type APIV1Service struct {
	Profile         *profile.Profile
	ReviewService   review.Service
	ProgressService progress.Service
	Curriculum      *curriculum.Curriculum
	Matcher         *pattern.Matcher
	QuizGenerator   *quiz.Generator
	Metrics         *observability.Metrics

	// quizzes holds generated quizzes until they are scored.
	quizzes *cache.Cache
}

func NewAPIV1Service(profile *profile.Profile, reviewService review.Service, progressService progress.Service, c *curriculum.Curriculum, metrics *observability.Metrics) *APIV1Service {
	return &APIV1Service{
		Profile:         profile,
		ReviewService:   reviewService,
		ProgressService: progressService,
		Curriculum:      c,
		Matcher:         pattern.NewMatcher(),
		QuizGenerator:   quiz.NewGenerator(c),
		Metrics:         metrics,
		quizzes: cache.New(cache.Config{
			DefaultTTL: quizTTL,
			MaxItems:   maxPendingQuizzes,
		}),
	}
}

// RegisterRoutes registers the v1 JSON API on the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	api := echoServer.Group("/api/v1")

	users := api.Group("/users/:user")
	users.POST("/items", s.EnrollItem)
	users.GET("/items", s.ListItems)
	users.GET("/items/:item/status", s.GetItemStatus)
	users.POST("/items/:item/review", s.RecordReview)
	users.GET("/reviews/due", s.GetDueReviews)
	users.GET("/reviews/stats", s.GetReviewStats)
	users.POST("/curriculum", s.LoadCurriculum)

	users.GET("/progress", s.GetProgress)
	users.POST("/activity", s.RecordActivity)
	users.GET("/challenges", s.GetChallenges)
	users.POST("/challenges/:challenge/complete", s.CompleteChallenge)
	users.POST("/challenges/:challenge/progress", s.UpdateChallengeProgress)

	users.GET("/notifications", s.ListNotifications)
	users.GET("/notifications.atom", s.GetNotificationFeed)
	users.POST("/notifications/:id/read", s.MarkNotificationRead)

	api.GET("/leaderboards/:period", s.GetLeaderboard)
	api.GET("/leaderboards/:period/users/:user", s.GetRank)

	api.GET("/patterns", s.ListPatterns)
	api.GET("/patterns/:pattern", s.GetPattern)
	api.POST("/patterns/match", s.MatchPatterns)

	api.POST("/quizzes", s.CreateQuiz)
	api.POST("/quizzes/score", s.ScoreQuiz)

	api.GET("/curriculum/levels", s.ListCurriculumLevels)

	api.GET("/system/metrics/overview", s.GetMetricsOverview)
}

// HTTPErrorHandler renders errors as {"code","message"} JSON.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	apiErr := toAPIError(err)
	if apiErr.Code == apierrors.ErrCodeInternal {
		if rc, ok := observability.FromContext(c.Request().Context()); ok {
			rc.Error("internal error", err)
		} else {
			slog.Error("internal error", slog.String("error", err.Error()))
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(apiErr.HTTPStatus())
	} else {
		err = c.JSON(apiErr.HTTPStatus(), apiErr.Response())
	}
	if err != nil {
		slog.Error("failed to write error response", slog.String("error", err.Error()))
	}
}

// toAPIError classifies service and plugin errors.
func toAPIError(err error) *apierrors.APIError {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg := http.StatusText(httpErr.Code)
		if m, ok := httpErr.Message.(string); ok {
			msg = m
		}
		switch {
		case httpErr.Code == http.StatusNotFound:
			return apierrors.NotFound(msg)
		case httpErr.Code == http.StatusServiceUnavailable:
			return apierrors.Wrap(err, apierrors.ErrCodeServiceUnavailable, msg)
		case httpErr.Code == http.StatusMethodNotAllowed:
			return apierrors.Wrap(err, apierrors.ErrCodeNotFound, msg)
		case httpErr.Code >= http.StatusBadRequest && httpErr.Code < http.StatusInternalServerError:
			return apierrors.Wrap(err, apierrors.ErrCodeInvalidArgument, msg)
		default:
			return apierrors.Internal(err)
		}
	}

	switch {
	case errors.Is(err, srs.ErrInvalidQuality),
		errors.Is(err, srs.ErrInvalidItemType),
		errors.Is(err, filter.ErrInvalidFilter),
		errors.Is(err, review.ErrInvalidLevel),
		errors.Is(err, review.ErrInvalidItem),
		errors.Is(err, progress.ErrInvalidActivity),
		errors.Is(err, leaderboard.ErrInvalidPeriod),
		errors.Is(err, quiz.ErrUnsupportedQuestionType),
		errors.Is(err, quiz.ErrInvalidDifficulty),
		errors.Is(err, quiz.ErrEmptyLetterBank):
		return apierrors.Wrap(err, apierrors.ErrCodeInvalidArgument, err.Error())
	case errors.Is(err, review.ErrItemNotFound),
		errors.Is(err, challenge.ErrNotFound),
		errors.Is(err, progress.ErrNotificationNotFound):
		return apierrors.Wrap(err, apierrors.ErrCodeNotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return apierrors.ContextCanceled(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apierrors.Timeout("request timed out")
	default:
		return apierrors.Internal(err)
	}
}

// bindJSON decodes the request body into v.
func bindJSON(c echo.Context, v any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, v); err != nil {
		return apierrors.Wrap(err, apierrors.ErrCodeInvalidArgument, "invalid request body")
	}
	return nil
}

// userID returns the learner named by the :user path segment.
func userID(c echo.Context) (string, error) {
	id := strings.TrimSpace(c.Param("user"))
	if id == "" {
		return "", apierrors.InvalidArgument("user is required")
	}
	return id, nil
}

// intQueryParam parses an optional integer query parameter.
func intQueryParam(c echo.Context, name string, defaultValue int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierrors.InvalidArgument("invalid " + name).WithContext(name, raw)
	}
	return n, nil
}
