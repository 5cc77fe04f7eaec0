package message

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"github.com/sahilchouksey/curriculum-tracker/services"
	"github.com/sahilchouksey/curriculum-tracker/utils/middleware"
	"github.com/sahilchouksey/curriculum-tracker/utils/response"
	"github.com/sahilchouksey/curriculum-tracker/utils/validation"
)

// MessageHandler serves direct messages between users
type MessageHandler struct {
	messages  *services.MessageService
	validator *validation.Validator
}

func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages, validator: validation.NewValidator()}
}

// SendRequest is the body of POST /messages
type SendRequest struct {
	ToID       string `json:"to_id" validate:"required"`
	Subject    string `json:"subject" validate:"required"`
	Content    string `json:"content" validate:"required"`
	Type       string `json:"type" validate:"required"`
	WeekNumber *int   `json:"week_number" validate:"omitempty,gte=1,lte=36"`
}

// RespondRequest is the body of POST /messages/:id/respond
type RespondRequest struct {
	Response string `json:"response" validate:"required"`
}

// Send handles POST /api/v1/messages
func (h *MessageHandler) Send(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	var req SendRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	msg, err := h.messages.Send(c.UserContext(), actor, services.SendInput{
		ToID:       req.ToID,
		Subject:    req.Subject,
		Content:    req.Content,
		Type:       req.Type,
		WeekNumber: req.WeekNumber,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, msg)
}

// List handles GET /api/v1/messages?status=
func (h *MessageHandler) List(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	status := model.MessageStatus(c.Query("status"))
	switch status {
	case "", model.MessageStatusAwaitingResponse, model.MessageStatusResponded, model.MessageStatusSent:
	default:
		return response.BadRequest(c, "Status must be awaiting_response, responded or sent")
	}

	messages, err := h.messages.ListAll(c.UserContext(), actor, status)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, messages)
}

// Sent handles GET /api/v1/messages/sent
func (h *MessageHandler) Sent(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	messages, err := h.messages.ListSent(c.UserContext(), actor)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, messages)
}

// Received handles GET /api/v1/messages/received
func (h *MessageHandler) Received(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	messages, err := h.messages.ListReceived(c.UserContext(), actor)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, messages)
}

// Get handles GET /api/v1/messages/:id
func (h *MessageHandler) Get(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	msg, err := h.messages.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, msg)
}

// Respond handles POST /api/v1/messages/:id/respond
func (h *MessageHandler) Respond(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	var req RespondRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	msg, err := h.messages.Respond(c.UserContext(), actor, c.Params("id"), req.Response)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, msg)
}
