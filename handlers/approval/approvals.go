package approval

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"github.com/sahilchouksey/curriculum-tracker/services"
	"github.com/sahilchouksey/curriculum-tracker/utils/middleware"
	"github.com/sahilchouksey/curriculum-tracker/utils/response"
	"github.com/sahilchouksey/curriculum-tracker/utils/validation"
)

// ApprovalHandler exposes the week sign-off workflow
type ApprovalHandler struct {
	approvals *services.ApprovalService
	validator *validation.Validator
}

func NewApprovalHandler(approvals *services.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals, validator: validation.NewValidator()}
}

// SubmitRequest asks the mentee's mentor to sign off a week. mentee_id defaults
// to the caller.
type SubmitRequest struct {
	MenteeID      string  `json:"mentee_id" validate:"omitempty,uuid"`
	WeekNumber    int     `json:"week_number" validate:"required,gte=1,lte=36"`
	MenteeComment *string `json:"mentee_comment"`
}

// DecisionRequest carries the mentor's optional feedback
type DecisionRequest struct {
	MentorFeedback *string `json:"mentor_feedback"`
}

// Submit handles POST /api/v1/approvals
func (h *ApprovalHandler) Submit(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	approval, err := h.approvals.Submit(c.UserContext(), actor, services.SubmitInput{
		MenteeID:   req.MenteeID,
		WeekNumber: req.WeekNumber,
		Comment:    req.MenteeComment,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, approval)
}

// List handles GET /api/v1/approvals?status=
func (h *ApprovalHandler) List(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	var status model.ApprovalStatus
	if raw := c.Query("status"); raw != "" {
		parsed, valid := model.ParseApprovalStatus(raw)
		if !valid {
			return response.BadRequest(c, "Status must be pending, approved or rejected")
		}
		status = parsed
	}

	approvals, err := h.approvals.List(c.UserContext(), actor, status)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, approvals)
}

// Pending handles GET /api/v1/approvals/pending
func (h *ApprovalHandler) Pending(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	approvals, err := h.approvals.Pending(c.UserContext(), actor)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, approvals)
}

// Completed handles GET /api/v1/approvals/completed
func (h *ApprovalHandler) Completed(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	approvals, err := h.approvals.Completed(c.UserContext(), actor)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, approvals)
}

// Get handles GET /api/v1/approvals/:id
func (h *ApprovalHandler) Get(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	approval, err := h.approvals.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, approval)
}

// Approve handles PUT /api/v1/approvals/:id/approve
func (h *ApprovalHandler) Approve(c *fiber.Ctx) error {
	return h.decide(c, h.approvals.Approve)
}

// Reject handles PUT /api/v1/approvals/:id/reject
func (h *ApprovalHandler) Reject(c *fiber.Ctx) error {
	return h.decide(c, h.approvals.Reject)
}

type decision func(ctx context.Context, actor *model.User, id string, feedback *string) (*model.WeekApproval, error)

func (h *ApprovalHandler) decide(c *fiber.Ctx, fn decision) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	var req DecisionRequest
	// feedback is optional, so an empty body is fine
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	approval, err := fn(c.UserContext(), actor, c.Params("id"), req.MentorFeedback)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, approval)
}
