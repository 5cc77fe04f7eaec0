package user

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"github.com/sahilchouksey/curriculum-tracker/services"
	"github.com/sahilchouksey/curriculum-tracker/services/storage"
	"github.com/sahilchouksey/curriculum-tracker/utils/middleware"
	"github.com/sahilchouksey/curriculum-tracker/utils/response"
	"github.com/sahilchouksey/curriculum-tracker/utils/validation"
)

// UserHandler serves the user directory
type UserHandler struct {
	users     *services.UserService
	export    *services.ExportService
	uploader  storage.Uploader
	validator *validation.Validator
}

// NewUserHandler creates a new user handler. uploader may be nil when object
// storage is not configured.
func NewUserHandler(users *services.UserService, export *services.ExportService, uploader storage.Uploader) *UserHandler {
	return &UserHandler{
		users:     users,
		export:    export,
		uploader:  uploader,
		validator: validation.NewValidator(),
	}
}

// CreateUserRequest is the admin payload for any role. Fields that do not apply
// to the role in the path are ignored.
type CreateUserRequest struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	ProfilePicture string `json:"profile_picture"`
	Phone          string `json:"phone"`

	MenteeNumber   string `json:"mentee_number"`
	CurrentWeek    int    `json:"current_week" validate:"omitempty,gte=1,lte=37"`
	CompletedWeeks []int  `json:"completed_weeks" validate:"omitempty,dive,gte=1,lte=36"`
	MentorID       string `json:"mentor_id" validate:"omitempty,uuid"`
	ParentEmail    string `json:"parent_email" validate:"omitempty,email"`
	ParentName     string `json:"parent_name"`
	ParentPhone    string `json:"parent_phone"`

	MembershipNumber string `json:"membership_number"`
	Specialization   string `json:"specialization"`
	Bio              string `json:"bio"`

	Children []string `json:"children"`
}

// UpdateUserRequest only changes the fields that are present
type UpdateUserRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1"`
	Email          *string `json:"email" validate:"omitempty,email"`
	ProfilePicture *string `json:"profile_picture"`
	ParentEmail    *string `json:"parent_email" validate:"omitempty,email"`
	ParentName     *string `json:"parent_name"`
	ParentPhone    *string `json:"parent_phone"`
	Specialization *string `json:"specialization"`
	Bio            *string `json:"bio"`
	Phone          *string `json:"phone"`
	CurrentWeek    *int    `json:"current_week"`
	CompletedWeeks *[]int  `json:"completed_weeks"`
}

// ListUsers handles GET /api/v1/users with an optional ?role= filter
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	var role model.Role
	if raw := c.Query("role"); raw != "" {
		parsed, err := model.ParseRole(raw)
		if err != nil {
			return response.BadRequest(c, "Invalid role")
		}
		role = parsed
	}
	return h.list(c, role)
}

// ListByRole returns a handler listing users of one role
func (h *UserHandler) ListByRole(role model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.list(c, role)
	}
}

func (h *UserHandler) list(c *fiber.Ctx, role model.Role) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	users, err := h.users.List(c.UserContext(), actor, role)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, users)
}

// CreateWithRole returns a handler creating a user of one role (admin only)
func (h *UserHandler) CreateWithRole(role model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := middleware.GetUser(c)
		if !ok {
			return response.Unauthorized(c, "User not authenticated")
		}

		var req CreateUserRequest
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
		if err := h.validator.ValidateStruct(&req); err != nil {
			return response.ValidationError(c, err)
		}

		user, err := h.users.Create(c.UserContext(), actor, services.CreateUserInput{
			Name:             req.Name,
			Email:            req.Email,
			Password:         req.Password,
			Role:             role,
			ProfilePicture:   req.ProfilePicture,
			Phone:            req.Phone,
			MenteeNumber:     req.MenteeNumber,
			CurrentWeek:      req.CurrentWeek,
			CompletedWeeks:   req.CompletedWeeks,
			MentorID:         req.MentorID,
			ParentEmail:      req.ParentEmail,
			ParentName:       req.ParentName,
			ParentPhone:      req.ParentPhone,
			MembershipNumber: req.MembershipNumber,
			Specialization:   req.Specialization,
			Bio:              req.Bio,
			Children:         req.Children,
		})
		if err != nil {
			return response.FromError(c, err)
		}
		return response.Created(c, user)
	}
}

// GetUser handles GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	user, err := h.users.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, user)
}

// UpdateUser handles PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	user, err := h.users.Update(c.UserContext(), actor, c.Params("id"), services.UpdateUserInput{
		Name:           req.Name,
		Email:          req.Email,
		ProfilePicture: req.ProfilePicture,
		ParentEmail:    req.ParentEmail,
		ParentName:     req.ParentName,
		ParentPhone:    req.ParentPhone,
		Specialization: req.Specialization,
		Bio:            req.Bio,
		Phone:          req.Phone,
		CurrentWeek:    req.CurrentWeek,
		CompletedWeeks: req.CompletedWeeks,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, user)
}

// DeleteUser handles DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	if err := h.users.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return response.FromError(c, err)
	}
	return response.NoContent(c)
}

// MyMentees handles GET /api/v1/users/mentor/mentees
func (h *UserHandler) MyMentees(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	users, err := h.users.MyMentees(c.UserContext(), actor)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, users)
}

// MyChildren handles GET /api/v1/users/parent/children
func (h *UserHandler) MyChildren(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	users, err := h.users.MyChildren(c.UserContext(), actor)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, users)
}

// AssignMentor handles POST /api/v1/users/assign/:mentee_id/:mentor_id
func (h *UserHandler) AssignMentor(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	if err := h.users.Assign(c.UserContext(), actor, c.Params("mentee_id"), c.Params("mentor_id")); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Mentee assigned to mentor successfully", nil)
}
