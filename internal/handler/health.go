package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/deppfellow/contentfilter/internal/middleware"
	"github.com/deppfellow/contentfilter/internal/server"
	"github.com/labstack/echo/v4"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	Handler
	checks map[string]HealthCheck
}

// NewHealthHandler probes the dependencies named in
// observability.health_checks.checks.
func NewHealthHandler(s *server.Server) *HealthHandler {
	available := map[string]HealthCheck{}
	if s.DB != nil {
		available["database"] = func(ctx context.Context) error { return s.DB.Pool.Ping(ctx) }
	}
	if s.Redis != nil {
		available["redis"] = func(ctx context.Context) error { return s.Redis.Ping(ctx).Err() }
	}

	checks := map[string]HealthCheck{}
	if s.Config.Observability.HealthChecks.Enabled {
		for _, name := range s.Config.Observability.HealthChecks.Checks {
			if check, ok := available[name]; ok {
				checks[name] = check
			}
		}
	}

	return &HealthHandler{
		Handler: NewHandler(s),
		checks:  checks,
	}
}

// CheckHealth answers 200 when every configured check passes and 503
// otherwise.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().Str("operation", "health_check").Logger()

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.server.Config.Observability.HealthChecks.Timeout)
	defer cancel()

	checks := make(map[string]any, len(h.checks))
	healthy := true

	for name, check := range h.checks {
		checkStart := time.Now()
		err := check(ctx)
		elapsed := time.Since(checkStart)

		if err != nil {
			healthy = false
			checks[name] = map[string]any{
				"status":        "unhealthy",
				"response_time": elapsed.String(),
				"error":         err.Error(),
			}
			logger.Error().Err(err).Str("check", name).Dur("response_time", elapsed).Msg("health check failed")
			h.recordFailure(name, elapsed, err)
			continue
		}

		checks[name] = map[string]any{
			"status":        "healthy",
			"response_time": elapsed.String(),
		}
	}

	response := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	if !healthy {
		response["status"] = "unhealthy"
		logger.Warn().Dur("total_duration", time.Since(start)).Msg("service unhealthy")
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().Dur("total_duration", time.Since(start)).Msg("health check passed")
	return c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) recordFailure(check string, elapsed time.Duration, err error) {
	app := h.server.LoggerService.GetApplication()
	if app == nil {
		return
	}
	app.RecordCustomEvent("HealthCheckError", map[string]any{
		"check_type":       check,
		"operation":        "health_check",
		"error_type":       check + "_unhealthy",
		"response_time_ms": elapsed.Milliseconds(),
		"error_message":    err.Error(),
	})
}
