package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fayaz1010/Iqra/internal/curriculum"
	"github.com/fayaz1010/Iqra/plugin/markdown"
)

type CurriculumLevel struct {
	curriculum.Level
	DescriptionHTML string `json:"description_html"`
}

// GET /api/v1/curriculum/levels
func (s *APIV1Service) ListCurriculumLevels(c echo.Context) error {
	levels := make([]CurriculumLevel, 0, len(s.Curriculum.Levels))
	for _, level := range s.Curriculum.Levels {
		html, err := markdown.RenderHTML(level.Description)
		if err != nil {
			return err
		}
		levels = append(levels, CurriculumLevel{Level: level, DescriptionHTML: html})
	}
	return c.JSON(http.StatusOK, levels)
}
