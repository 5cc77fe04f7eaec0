package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/curriculum-tracker/utils/middleware"
	"github.com/sahilchouksey/curriculum-tracker/utils/response"
)

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	return response.Success(c, user)
}
