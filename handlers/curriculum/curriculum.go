package curriculum

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/curriculum-tracker/services"
	"github.com/sahilchouksey/curriculum-tracker/utils/middleware"
	"github.com/sahilchouksey/curriculum-tracker/utils/response"
	"github.com/sahilchouksey/curriculum-tracker/utils/validation"
)

// CurriculumHandler serves the week catalog
type CurriculumHandler struct {
	curriculum *services.CurriculumService
	validator  *validation.Validator
}

func NewCurriculumHandler(curriculum *services.CurriculumService) *CurriculumHandler {
	return &CurriculumHandler{curriculum: curriculum, validator: validation.NewValidator()}
}

// WeekRequest is the body of create and update
type WeekRequest struct {
	Week             int      `json:"week"`
	BlocNumber       int      `json:"bloc_number"`
	SubTheme         string   `json:"sub_theme" validate:"required"`
	ActivityName     string   `json:"activity_name" validate:"required"`
	LearningOutcome  string   `json:"learning_outcome"`
	Description      string   `json:"description"`
	Digitization     string   `json:"digitization"`
	TalentIndicators []string `json:"talent_indicators"`
}

func (r WeekRequest) input() services.WeekInput {
	return services.WeekInput{
		Week:             r.Week,
		BlocNumber:       r.BlocNumber,
		SubTheme:         r.SubTheme,
		ActivityName:     r.ActivityName,
		LearningOutcome:  r.LearningOutcome,
		Description:      r.Description,
		Digitization:     r.Digitization,
		TalentIndicators: r.TalentIndicators,
	}
}

// ListWeeks handles GET /api/v1/curriculum/weeks
func (h *CurriculumHandler) ListWeeks(c *fiber.Ctx) error {
	weeks, err := h.curriculum.ListWeeks(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, weeks)
}

// GetWeek handles GET /api/v1/curriculum/weeks/:week
func (h *CurriculumHandler) GetWeek(c *fiber.Ctx) error {
	week, err := c.ParamsInt("week")
	if err != nil {
		return response.BadRequest(c, "Invalid week number")
	}
	activity, err := h.curriculum.GetWeek(c.UserContext(), week)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, activity)
}

// ListBloc handles GET /api/v1/curriculum/bloc/:bloc
func (h *CurriculumHandler) ListBloc(c *fiber.Ctx) error {
	bloc, err := c.ParamsInt("bloc")
	if err != nil {
		return response.BadRequest(c, "Bloc number must be 1, 2, or 3")
	}
	weeks, err := h.curriculum.ListBloc(c.UserContext(), bloc)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, weeks)
}

// CreateWeek handles POST /api/v1/curriculum/weeks
func (h *CurriculumHandler) CreateWeek(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	var req WeekRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	activity, err := h.curriculum.CreateWeek(c.UserContext(), actor, req.input())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, activity)
}

// UpdateWeek handles PUT /api/v1/curriculum/weeks/:week
func (h *CurriculumHandler) UpdateWeek(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	week, err := c.ParamsInt("week")
	if err != nil {
		return response.BadRequest(c, "Invalid week number")
	}
	var req WeekRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	activity, err := h.curriculum.UpdateWeek(c.UserContext(), actor, week, req.input())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, activity)
}

// DeleteWeek handles DELETE /api/v1/curriculum/weeks/:week
func (h *CurriculumHandler) DeleteWeek(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	week, err := c.ParamsInt("week")
	if err != nil {
		return response.BadRequest(c, "Invalid week number")
	}
	if err := h.curriculum.DeleteWeek(c.UserContext(), actor, week); err != nil {
		return response.FromError(c, err)
	}
	return response.NoContent(c)
}
