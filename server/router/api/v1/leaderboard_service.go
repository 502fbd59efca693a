package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fayaz1010/Iqra/plugin/leaderboard"
)

// GET /api/v1/leaderboards/:period
func (s *APIV1Service) GetLeaderboard(c echo.Context) error {
	period, err := leaderboard.ParsePeriod(c.Param("period"))
	if err != nil {
		return err
	}
	board, err := s.ProgressService.GetLeaderboard(c.Request().Context(), period)
	if err != nil {
		return err
	}
	if board.Entries == nil {
		board.Entries = []leaderboard.Entry{}
	}
	return c.JSON(http.StatusOK, board)
}

// GET /api/v1/leaderboards/:period/users/:user
func (s *APIV1Service) GetRank(c echo.Context) error {
	period, err := leaderboard.ParsePeriod(c.Param("period"))
	if err != nil {
		return err
	}
	user, err := userID(c)
	if err != nil {
		return err
	}
	rank, err := s.ProgressService.GetRank(c.Request().Context(), period, user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rank)
}
