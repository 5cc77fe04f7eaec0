package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/curriculum-tracker/utils/middleware"
	"github.com/sahilchouksey/curriculum-tracker/utils/response"
)

// Logout handles POST /api/v1/auth/logout. The presented token is revoked
// until it expires.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	if err := h.authService.Logout(c.UserContext(), claims); err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Logged out successfully", nil)
}
