package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"github.com/sahilchouksey/curriculum-tracker/services"
	"github.com/sahilchouksey/curriculum-tracker/utils/middleware"
	"github.com/sahilchouksey/curriculum-tracker/utils/response"
	"github.com/sahilchouksey/curriculum-tracker/utils/validation"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService          *services.AuthService
	bruteForceProtection *middleware.BruteForceProtection
	validator            *validation.Validator
}

// NewAuthHandler creates a new auth handler. bruteForceProtection may be nil.
func NewAuthHandler(authService *services.AuthService, bruteForceProtection *middleware.BruteForceProtection) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		bruteForceProtection: bruteForceProtection,
		validator:            validation.NewValidator(),
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	Role           string `json:"role" validate:"required"`
	ProfilePicture string `json:"profile_picture"`
	Phone          string `json:"phone"`
	Specialization string `json:"specialization"`
	Bio            string `json:"bio"`
}

// CreateAdminRequest bootstraps the first administrator
type CreateAdminRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// AuthResponse is returned by register, login and create-admin
type AuthResponse struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func newAuthResponse(result *services.AuthResult) AuthResponse {
	return AuthResponse{
		User:      result.User,
		Token:     result.Token.Token,
		TokenType: "bearer",
		ExpiresAt: result.Token.ExpiresAt,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	role, err := model.ParseRole(req.Role)
	if err != nil || !role.SelfRegistrable() {
		return response.BadRequest(c, "Invalid role. Must be 'mentee', 'mentor', or 'parent'")
	}

	result, err := h.authService.Register(c.UserContext(), services.CreateUserInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		Role:           role,
		ProfilePicture: req.ProfilePicture,
		Phone:          req.Phone,
		Specialization: req.Specialization,
		Bio:            req.Bio,
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, newAuthResponse(result))
}

// CreateAdmin handles POST /api/v1/auth/create-admin. It only works while no
// admin exists.
func (h *AuthHandler) CreateAdmin(c *fiber.Ctx) error {
	var req CreateAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	result, err := h.authService.CreateAdmin(c.UserContext(), services.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, newAuthResponse(result))
}
