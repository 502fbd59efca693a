package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fayaz1010/Iqra/plugin/srs"
	apierrors "github.com/fayaz1010/Iqra/server/internal/errors"
	"github.com/fayaz1010/Iqra/server/service/review"
)

type recordReviewRequest struct {
	Quality *int `json:"quality"`
}

type loadCurriculumRequest struct {
	Level int `json:"level"`
}

type loadCurriculumResponse struct {
	Level    int `json:"level"`
	Enrolled int `json:"enrolled"`
}

// EnrollItem adds an item to the learner's review deck.
// POST /api/v1/users/:user/items
func (s *APIV1Service) EnrollItem(c echo.Context) error {
	user, err := userID(c)
	if err != nil {
		return err
	}
	request := &review.EnrollRequest{}
	if err := bindJSON(c, request); err != nil {
		return err
	}

	item, err := s.ReviewService.EnrollItem(c.Request().Context(), user, request)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// ListItems returns the learner's items, optionally narrowed by a CEL filter.
// GET /api/v1/users/:user/items?filter=
func (s *APIV1Service) ListItems(c echo.Context) error {
	user, err := userID(c)
	if err != nil {
		return err
	}
	items, err := s.ReviewService.ListItems(c.Request().Context(), user, c.QueryParam("filter"))
	if err != nil {
		return err
	}
	if items == nil {
		items = []*review.Item{}
	}
	return c.JSON(http.StatusOK, items)
}

// GET /api/v1/users/:user/items/:item/status
func (s *APIV1Service) GetItemStatus(c echo.Context) error {
	user, err := userID(c)
	if err != nil {
		return err
	}
	item, err := s.ReviewService.GetItemStatus(c.Request().Context(), user, c.Param("item"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// RecordReview grades one review of an item.
// POST /api/v1/users/:user/items/:item/review
func (s *APIV1Service) RecordReview(c echo.Context) error {
	user, err := userID(c)
	if err != nil {
		return err
	}
	request := &recordReviewRequest{}
	if err := bindJSON(c, request); err != nil {
		return err
	}
	if request.Quality == nil {
		return apierrors.InvalidArgument("quality is required")
	}

	quality := srs.Quality(*request.Quality)
	result, err := s.ReviewService.RecordReview(c.Request().Context(), user, c.Param("item"), quality)
	if err != nil {
		return err
	}
	if s.Metrics != nil {
		s.Metrics.RecordReview(int(quality))
	}
	return c.JSON(http.StatusOK, result)
}

// GetDueReviews returns the review queue, most overdue first.
// GET /api/v1/users/:user/reviews/due?limit=
func (s *APIV1Service) GetDueReviews(c echo.Context) error {
	user, err := userID(c)
	if err != nil {
		return err
	}
	limit, err := intQueryParam(c, "limit", 0)
	if err != nil {
		return err
	}
	due, err := s.ReviewService.GetDueReviews(c.Request().Context(), user, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, due)
}

// GET /api/v1/users/:user/reviews/stats
func (s *APIV1Service) GetReviewStats(c echo.Context) error {
	user, err := userID(c)
	if err != nil {
		return err
	}
	stats, err := s.ReviewService.GetReviewStats(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// LoadCurriculum enrolls every item of the curriculum up to a level.
// POST /api/v1/users/:user/curriculum
func (s *APIV1Service) LoadCurriculum(c echo.Context) error {
	user, err := userID(c)
	if err != nil {
		return err
	}
	request := &loadCurriculumRequest{}
	if err := bindJSON(c, request); err != nil {
		return err
	}

	enrolled, err := s.ReviewService.LoadCurriculum(c.Request().Context(), user, request.Level)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loadCurriculumResponse{Level: request.Level, Enrolled: enrolled})
}
