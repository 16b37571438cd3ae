package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/elonfeng/pulse/pkg/source"
	"github.com/elonfeng/pulse/pkg/trend"
)

// Engine is the aggregation surface the API serves.
type Engine interface {
	Aggregate(ctx context.Context, req trend.PageRequest) (*trend.Response, error)
	Enabled() []source.SourceID
	Timeout(id source.SourceID) time.Duration
	FetchSource(ctx context.Context, id source.SourceID) (*source.Batch, error)
}

// Server provides the HTTP API.
type Server struct {
	engine Engine
	port   int
	logger zerolog.Logger
	echo   *echo.Echo
}

// New creates a new HTTP server.
func New(engine Engine, port int, logger zerolog.Logger) *Server {
	if port == 0 {
		port = 8080
	}
	s := &Server{
		engine: engine,
		port:   port,
		logger: logger,
	}
	s.echo = s.routes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := s.logger.Info()
			if v.Error != nil {
				ev = s.logger.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Int64("latency_ms", v.Latency.Milliseconds()).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	e.GET("/health", s.handleHealth)
	e.GET("/api/aggregate", s.handleAggregate)
	e.GET("/api/sources", s.handleSources)
	e.GET("/api/sources/:id", s.handleSource)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return e
}

// ListenAndServe starts the HTTP server and shuts it down when ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("pulse server listening")
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAggregate(c echo.Context) error {
	req := trend.ParsePage(c.QueryParam("page"), c.QueryParam("limit"))

	resp, err := s.engine.Aggregate(c.Request().Context(), req)
	if err != nil {
		body := map[string]any{
			"success": false,
			"error":   err.Error(),
		}
		if resp != nil {
			body["debug"] = resp.Debug
		}
		return c.JSON(http.StatusInternalServerError, body)
	}
	return c.JSON(http.StatusOK, resp)
}

type sourceInfo struct {
	ID        source.SourceID `json:"id"`
	Enabled   bool            `json:"enabled"`
	TimeoutMs int64           `json:"timeoutMs,omitempty"`
}

func (s *Server) handleSources(c echo.Context) error {
	enabled := make(map[source.SourceID]bool)
	for _, id := range s.engine.Enabled() {
		enabled[id] = true
	}

	infos := make([]sourceInfo, 0, len(trend.SourceOrder))
	for _, id := range trend.SourceOrder {
		info := sourceInfo{ID: id, Enabled: enabled[id]}
		if info.Enabled {
			info.TimeoutMs = s.engine.Timeout(id).Milliseconds()
		}
		infos = append(infos, info)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data":  infos,
		"count": len(infos),
	})
}

// sourceResponse is one source's raw batch, before merging and scoring.
type sourceResponse struct {
	Success    bool               `json:"success"`
	Source     source.SourceID    `json:"source"`
	Timestamp  string             `json:"timestamp"`
	Count      int                `json:"count"`
	Candidates []source.Candidate `json:"candidates"`
	Items      []source.RawItem   `json:"items,omitempty"`
	Warnings   []string           `json:"warnings,omitempty"`
	Error      string             `json:"error,omitempty"`
}

func (s *Server) handleSource(c echo.Context) error {
	id, ok := source.ParseSourceID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]any{
			"success": false,
			"error":   fmt.Sprintf("unknown source %q", c.Param("id")),
		})
	}

	resp := sourceResponse{
		Source:     id,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Candidates: []source.Candidate{},
	}

	batch, err := s.engine.FetchSource(c.Request().Context(), id)
	switch {
	case errors.Is(err, trend.ErrSourceNotConfigured):
		resp.Error = "source not enabled"
		return c.JSON(http.StatusNotFound, resp)
	case err != nil:
		resp.Error = err.Error()
		return c.JSON(http.StatusBadGateway, resp)
	}

	resp.Success = true
	if batch.Candidates != nil {
		resp.Candidates = batch.Candidates
	}
	resp.Count = len(resp.Candidates)
	resp.Items = batch.Items
	resp.Warnings = batch.Warnings
	return c.JSON(http.StatusOK, resp)
}
