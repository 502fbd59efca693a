package v1

import (
	"math"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fayaz1010/Iqra/plugin/markdown"
	"github.com/fayaz1010/Iqra/plugin/pattern"
	apierrors "github.com/fayaz1010/Iqra/server/internal/errors"
)

// Pattern is a pattern with its description rendered to HTML.
type Pattern struct {
	pattern.Pattern
	DescriptionHTML string `json:"description_html"`
}

type PatternDetail struct {
	Pattern
	Related []Pattern `json:"related"`
}

type matchPatternsRequest struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// ListPatterns lists the patterns unlocked at a level, or every pattern when no level is given.
// GET /api/v1/patterns?level=
func (s *APIV1Service) ListPatterns(c echo.Context) error {
	level, err := intQueryParam(c, "level", math.MaxInt)
	if err != nil {
		return err
	}
	patterns, err := convertPatterns(s.Matcher.ByLevel(level))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, patterns)
}

// GET /api/v1/patterns/:pattern
func (s *APIV1Service) GetPattern(c echo.Context) error {
	p, ok := s.Matcher.ByID(c.Param("pattern"))
	if !ok {
		return apierrors.NotFound("pattern not found").WithContext("pattern", c.Param("pattern"))
	}
	converted, err := convertPattern(p)
	if err != nil {
		return err
	}
	related, err := convertPatterns(s.Matcher.Related(p.ID))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, PatternDetail{Pattern: converted, Related: related})
}

// MatchPatterns finds every unlocked pattern occurrence in a text.
// POST /api/v1/patterns/match
func (s *APIV1Service) MatchPatterns(c echo.Context) error {
	request := &matchPatternsRequest{}
	if err := bindJSON(c, request); err != nil {
		return err
	}
	if request.Text == "" {
		return apierrors.InvalidArgument("text is required")
	}
	if request.Level <= 0 {
		request.Level = 1
	}

	results := s.Matcher.Find(request.Text, request.Level)
	if results == nil {
		results = []pattern.MatchResult{}
	}
	return c.JSON(http.StatusOK, results)
}

func convertPattern(p pattern.Pattern) (Pattern, error) {
	html, err := markdown.RenderHTML(p.Description)
	if err != nil {
		return Pattern{}, err
	}
	return Pattern{Pattern: p, DescriptionHTML: html}, nil
}

func convertPatterns(list []pattern.Pattern) ([]Pattern, error) {
	result := make([]Pattern, 0, len(list))
	for _, p := range list {
		converted, err := convertPattern(p)
		if err != nil {
			return nil, err
		}
		result = append(result, converted)
	}
	return result, nil
}
