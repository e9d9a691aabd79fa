package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const readinessProbeTimeout = 5 * time.Second

// HealthCheck is a named readiness check, typically a Postgres or Redis ping.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/healthz/live", s.handleLiveness)
	s.echo.GET("/healthz/ready", s.handleReadiness)
}

func (s *Server) handleLiveness(c echo.Context) error {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}
	return nil
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessProbeTimeout)
	defer cancel()

	for _, hc := range s.healthChecks {
		if err := hc.Check(ctx); err != nil {
			response := map[string]any{
				"status":       "unhealthy",
				"failed_check": hc.Name,
				"error":        err.Error(),
			}
			if err := c.JSON(http.StatusServiceUnavailable, response); err != nil {
				return fmt.Errorf("failed to write readiness response: %w", err)
			}
			return nil
		}
	}

	if err := c.JSON(http.StatusOK, map[string]string{"status": "ready"}); err != nil {
		return fmt.Errorf("failed to write readiness response: %w", err)
	}
	return nil
}
