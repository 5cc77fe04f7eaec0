package notification

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/curriculum-tracker/services"
	"github.com/sahilchouksey/curriculum-tracker/utils/middleware"
	"github.com/sahilchouksey/curriculum-tracker/utils/response"
)

// NotificationHandler handles notification-related API endpoints
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// GetNotifications handles GET /api/v1/notifications
// Returns the caller's derived notifications, newest first
func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	notifications, err := h.notificationService.List(c.UserContext(), user)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, notifications)
}

// GetPending handles GET /api/v1/notifications/pending
// Returns the raw approvals and messages a reviewer still has to act on
func (h *NotificationHandler) GetPending(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	items, err := h.notificationService.Pending(c.UserContext(), user)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, items)
}
