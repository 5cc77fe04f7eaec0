package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/curriculum-tracker/services"
	"github.com/sahilchouksey/curriculum-tracker/utils/observability"
	"github.com/sahilchouksey/curriculum-tracker/utils/validation"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// failure is the status, machine code and fallback message for one error class
type failure struct {
	status   int
	code     string
	fallback string
}

var (
	badRequest   = failure{fiber.StatusBadRequest, "BAD_REQUEST", "Bad request"}
	unauthorized = failure{fiber.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized access"}
	forbidden    = failure{fiber.StatusForbidden, "FORBIDDEN", "Access forbidden"}
	notFound     = failure{fiber.StatusNotFound, "NOT_FOUND", "Resource not found"}
	conflict     = failure{fiber.StatusConflict, "CONFLICT", "Resource already exists"}
	tooMany      = failure{fiber.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many requests"}
	unavailable  = failure{fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable"}
	internal     = failure{fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"}
)

// byKind maps service error kinds onto HTTP failures, checked in order
var byKind = []struct {
	kind error
	f    failure
}{
	{services.ErrNotFound, notFound},
	{services.ErrForbidden, forbidden},
	{services.ErrConflict, conflict},
	{services.ErrUnauthorized, unauthorized},
	{services.ErrValidation, badRequest},
	{services.ErrUnavailable, unavailable},
}

func write(c *fiber.Ctx, f failure, message string) error {
	if message == "" {
		message = f.fallback
	}
	return Error(c, f.status, message, f.code)
}

func Success(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{Success: true, Data: data})
}

func SuccessWithMessage(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{Success: true, Message: message, Data: data})
}

// Created answers 201 with the new resource
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: "Resource created successfully",
		Data:    data,
	})
}

func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// Error writes a failed envelope with an explicit status and code
func Error(c *fiber.Ctx, statusCode int, message string, code string) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Error:   &ErrorDetail{Code: code, Message: message},
	})
}

func BadRequest(c *fiber.Ctx, message string) error   { return write(c, badRequest, message) }
func Unauthorized(c *fiber.Ctx, message string) error { return write(c, unauthorized, message) }
func Forbidden(c *fiber.Ctx, message string) error    { return write(c, forbidden, message) }
func NotFound(c *fiber.Ctx, message string) error     { return write(c, notFound, message) }

func TooManyRequests(c *fiber.Ctx, message string) error {
	return write(c, tooMany, message)
}

func ServiceUnavailable(c *fiber.Ctx, message string) error {
	return write(c, unavailable, message)
}

// ValidationError answers 400 and lists the failing fields under data
func ValidationError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(Response{
		Success: false,
		Error: &ErrorDetail{
			Code:    "VALIDATION_ERROR",
			Message: "Validation failed",
			Details: err.Error(),
		},
		Data: validation.FormatValidationErrors(err),
	})
}

// FromError writes the response matching a service error kind. Anything that is
// not a typed service error is reported and answered with a generic 500.
func FromError(c *fiber.Ctx, err error) error {
	message := ""
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}

	for _, k := range byKind {
		if errors.Is(err, k.kind) {
			return write(c, k.f, message)
		}
	}

	requestID, _ := c.Locals("requestid").(string)
	observability.CaptureRequestErr(err, c.Method(), c.Route().Path, requestID)
	return write(c, internal, "")
}
