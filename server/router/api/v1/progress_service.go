package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apierrors "github.com/fayaz1010/Iqra/server/internal/errors"
)

type recordActivityRequest struct {
	Counters map[string]int `json:"counters"`
}

type updateChallengeProgressRequest struct {
	Progress int `json:"progress"`
}

// GET /api/v1/users/:user/progress
func (s *APIV1Service) GetProgress(c echo.Context) error {
	user, err := userID(c)
	if err != nil {
		return err
	}
	p, err := s.ProgressService.GetProgress(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// RecordActivity adds reading and practice counters for the learner.
// POST /api/v1/users/:user/activity
func (s *APIV1Service) RecordActivity(c echo.Context) error {
	user, err := userID(c)
	if err != nil {
		return err
	}
	request := &recordActivityRequest{}
	if err := bindJSON(c, request); err != nil {
		return err
	}
	if len(request.Counters) == 0 {
		return apierrors.InvalidArgument("counters are required")
	}

	result, err := s.ProgressService.RecordActivity(c.Request().Context(), user, request.Counters)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// GET /api/v1/users/:user/challenges
func (s *APIV1Service) GetChallenges(c echo.Context) error {
	user, err := userID(c)
	if err != nil {
		return err
	}
	challenges, err := s.ProgressService.GetChallenges(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, challenges)
}

// POST /api/v1/users/:user/challenges/:challenge/complete
func (s *APIV1Service) CompleteChallenge(c echo.Context) error {
	user, err := userID(c)
	if err != nil {
		return err
	}
	result, err := s.ProgressService.CompleteChallenge(c.Request().Context(), user, c.Param("challenge"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// POST /api/v1/users/:user/challenges/:challenge/progress
func (s *APIV1Service) UpdateChallengeProgress(c echo.Context) error {
	user, err := userID(c)
	if err != nil {
		return err
	}
	request := &updateChallengeProgressRequest{}
	if err := bindJSON(c, request); err != nil {
		return err
	}

	updated, err := s.ProgressService.UpdateChallengeProgress(c.Request().Context(), user, c.Param("challenge"), request.Progress)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}
