package analytics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/curriculum-tracker/services"
	"github.com/sahilchouksey/curriculum-tracker/utils/middleware"
	"github.com/sahilchouksey/curriculum-tracker/utils/response"
)

// AnalyticsHandler handles analytics and reporting requests
type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// GetDashboard handles GET /api/v1/analytics/dashboard
func (h *AnalyticsHandler) GetDashboard(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	stats, err := h.analyticsService.Dashboard(c.UserContext(), user)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, stats)
}

// GetMentorStats handles GET /api/v1/analytics/mentor/stats
func (h *AnalyticsHandler) GetMentorStats(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	stats, err := h.analyticsService.MentorStats(c.UserContext(), user)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, stats)
}
