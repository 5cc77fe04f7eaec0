package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sahilchouksey/curriculum-tracker/database"
	"github.com/sahilchouksey/curriculum-tracker/utils/metrics"
	"github.com/sahilchouksey/curriculum-tracker/utils/response"
)

// Pinger is an optional dependency reported by /health
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the operational endpoints
type HealthHandler struct {
	store   database.Storage
	cache   Pinger
	version string
}

// NewHealthHandler builds the handler. cache may be nil.
func NewHealthHandler(store database.Storage, cache Pinger, version string) *HealthHandler {
	return &HealthHandler{store: store, cache: cache, version: version}
}

// Root handles GET /
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "curriculum-tracker",
		"version": h.version,
		"status":  "running",
	})
}

// Health handles GET /health. The database is required; a failing cache only
// degrades the report.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	start := time.Now()
	err := h.store.HealthCheck(ctx)
	metrics.ObserveDBPing(time.Since(start))
	if err != nil {
		return response.ServiceUnavailable(c, "Database unavailable")
	}

	status := fiber.Map{"status": "ok", "database": "ok", "cache": "disabled"}
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			status["status"] = "degraded"
			status["cache"] = "unavailable"
		} else {
			status["cache"] = "ok"
		}
	}
	return c.JSON(status)
}

// Metrics exposes the prometheus registry
func Metrics() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
