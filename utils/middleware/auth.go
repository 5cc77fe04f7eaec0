package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"github.com/sahilchouksey/curriculum-tracker/services"
	"github.com/sahilchouksey/curriculum-tracker/utils/auth"
	"github.com/sahilchouksey/curriculum-tracker/utils/response"
)

const (
	localsUser   = "user"
	localsClaims = "claims"
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager  *auth.JWTManager
	authService *services.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, authService *services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:  jwtManager,
		authService: authService,
	}
}

// Required is middleware that requires a valid JWT token. The token's user is
// reloaded from the directory on every request.
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return response.Unauthorized(c, "Missing authorization token")
		}

		// Extract token from "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return response.Unauthorized(c, "Invalid authorization format")
		}

		claims, err := m.jwtManager.ValidateToken(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				return response.Unauthorized(c, "Token has expired")
			}
			return response.Unauthorized(c, "Invalid token")
		}

		user, err := m.authService.Authorize(c.UserContext(), claims)
		if err != nil {
			return response.FromError(c, err)
		}

		c.Locals(localsClaims, claims)
		c.Locals(localsUser, user)
		return c.Next()
	}
}

// RequireCapability rejects callers whose role cannot perform action. Must run
// after Required.
func RequireCapability(action model.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := GetUser(c)
		if !ok {
			return response.Unauthorized(c, "Authentication required")
		}
		if !user.Role.Can(action) {
			return response.Forbidden(c, "Not enough permissions")
		}
		return c.Next()
	}
}

// GetUser extracts full user object from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	u, ok := c.Locals(localsUser).(*model.User)
	return u, ok && u != nil
}

// GetClaims extracts full claims from context
func GetClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals(localsClaims).(*auth.Claims)
	return claims, ok && claims != nil
}
