// Package server exposes the searcher and query sessions over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/dshills/portfolio-search/internal/pipeline"
	"github.com/dshills/portfolio-search/internal/searcher"
	"github.com/dshills/portfolio-search/pkg/types"
)

// SearchService is the query surface the HTTP API serves
type SearchService interface {
	Search(ctx context.Context, q string, opts searcher.Options) ([]types.SearchResult, error)
	Suggest(ctx context.Context, q string) ([]string, error)
	Filter(ctx context.Context, f searcher.Filter) ([]types.SearchableRecord, error)
	Warm(ctx context.Context) error
	Invalidate()
	Status() searcher.Status
}

// Default per-IP limits applied when Config leaves them unset
const (
	DefaultRateLimit = 10
	DefaultRateBurst = 20
)

// Config holds the HTTP settings. Zero values take the defaults.
type Config struct {
	RateLimit float64 // requests per second per client IP
	RateBurst int
}

// Server is the HTTP front end
type Server struct {
	echo     *echo.Echo
	search   SearchService
	sessions *pipeline.Registry
	limiter  *RateLimiter
	logger   *slog.Logger
}

// New wires routes and middleware. sessions may be nil, in which case the
// session routes are not registered.
func New(search SearchService, sessions *pipeline.Registry, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.RateBurst < 1 {
		cfg.RateBurst = DefaultRateBurst
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		search:   search,
		sessions: sessions,
		limiter:  NewRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		logger:   logger,
	}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			}
			if v.Error != nil {
				logger.ErrorContext(c.Request().Context(), "request failed", append(attrs, "error", v.Error.Error())...)
				return nil
			}
			logger.InfoContext(c.Request().Context(), "request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo
	limit := s.limiter.Middleware()

	e.GET("/healthz", s.handleHealth)
	e.GET("/readyz", s.handleReady)

	e.GET("/search", s.handleSearch, limit)
	e.GET("/suggest", s.handleSuggest, limit)
	e.GET("/records", s.handleRecords, limit)
	e.GET("/status", s.handleStatus)
	e.POST("/cache/invalidate", s.handleInvalidate, limit)

	if s.sessions == nil {
		return
	}
	e.POST("/sessions", s.handleCreateSession, limit)
	e.GET("/sessions/:id", s.handleGetSession)
	e.PUT("/sessions/:id/query", s.handleSetQuery, limit)
	e.DELETE("/sessions/:id/query", s.handleClearQuery)
	e.POST("/sessions/:id/clicks", s.handleClick)
	e.DELETE("/sessions/:id", s.handleDeleteSession)
}

// Handler returns the root http.Handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the rate limiter
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.limiter.Stop()
	return s.echo.Shutdown(ctx)
}

// handleError renders every error as {"error": message}
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		he = mapError(err)
	}
	msg, ok := he.Message.(string)
	if !ok {
		msg = http.StatusText(he.Code)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(he.Code)
	} else {
		err = c.JSON(he.Code, errorResponse{Error: msg})
	}
	if err != nil {
		s.logger.Error("failed to write error response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// mapError converts a service error into an echo.HTTPError
func mapError(err error) *echo.HTTPError {
	var verr *types.ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Reason)
	case errors.Is(err, types.ErrInvalidQuery):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	case errors.Is(err, types.ErrSearchUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "request cancelled")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
