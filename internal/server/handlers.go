package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dshills/portfolio-search/internal/pipeline"
	"github.com/dshills/portfolio-search/internal/searcher"
	"github.com/dshills/portfolio-search/pkg/types"
)

// MaxLimit caps the limit query parameter
const MaxLimit = 100

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(c echo.Context) error {
	if err := s.search.Warm(c.Request().Context()); err != nil {
		s.logger.Warn("readiness check failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleSearch(c echo.Context) error {
	filter, err := parseFilter(c)
	if err != nil {
		return err
	}
	limit, err := parseLimit(c.QueryParam("limit"))
	if err != nil {
		return err
	}

	results, err := s.search.Search(c.Request().Context(), c.QueryParam("q"), searcher.Options{Limit: limit, Filter: filter})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, results)
}

func (s *Server) handleSuggest(c echo.Context) error {
	suggestions, err := s.search.Suggest(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, suggestions)
}

func (s *Server) handleRecords(c echo.Context) error {
	filter, err := parseFilter(c)
	if err != nil {
		return err
	}
	records, err := s.search.Filter(c.Request().Context(), filter)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.search.Status())
}

func (s *Server) handleInvalidate(c echo.Context) error {
	s.search.Invalidate()
	return c.NoContent(http.StatusNoContent)
}

func parseFilter(c echo.Context) (searcher.Filter, error) {
	var f searcher.Filter
	if v := c.QueryParam("type"); v != "" {
		t, err := types.ParseRecordType(v)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		f.Type = t
	}
	f.Category = strings.TrimSpace(c.QueryParam("category"))
	f.Platform = strings.TrimSpace(c.QueryParam("platform"))
	if v := c.QueryParam("featured"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "featured must be true or false")
		}
		f.Featured = &b
	}
	for _, tag := range c.QueryParams()["tag"] {
		if tag = strings.TrimSpace(tag); tag != "" {
			f.Tags = append(f.Tags, tag)
		}
	}
	return f, nil
}

func parseLimit(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
	}
	return min(n, MaxLimit), nil
}

// Sessions

type sessionResponse struct {
	ID    string         `json:"id"`
	State pipeline.State `json:"state"`
}

type queryRequest struct {
	Text string `json:"text"`
}

type clickRequest struct {
	ResultID   string `json:"resultId"`
	Suggestion string `json:"suggestion"`
}

func (s *Server) session(c echo.Context) (*pipeline.Pipeline, error) {
	p, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return p, nil
}

func (s *Server) handleCreateSession(c echo.Context) error {
	id, p := s.sessions.Create()
	return c.JSON(http.StatusCreated, sessionResponse{ID: id, State: p.State()})
}

func (s *Server) handleGetSession(c echo.Context) error {
	p, err := s.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p.State())
}

func (s *Server) handleSetQuery(c echo.Context) error {
	p, err := s.session(c)
	if err != nil {
		return err
	}
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p.OnQueryChange(req.Text)
	return c.JSON(http.StatusAccepted, p.State())
}

func (s *Server) handleClearQuery(c echo.Context) error {
	p, err := s.session(c)
	if err != nil {
		return err
	}
	p.Clear()
	return c.JSON(http.StatusOK, p.State())
}

func (s *Server) handleClick(c echo.Context) error {
	p, err := s.session(c)
	if err != nil {
		return err
	}
	var req clickRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	switch {
	case req.ResultID != "":
		p.ResultClicked(req.ResultID)
	case req.Suggestion != "":
		p.SuggestionClicked(req.Suggestion)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "resultId or suggestion is required")
	}
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) handleDeleteSession(c echo.Context) error {
	if !s.sessions.Remove(c.Param("id")) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.NoContent(http.StatusNoContent)
}
