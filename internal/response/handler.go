package response

import (
	"log/slog"

	"github.com/Kyz7/sitecms/internal/apperr"
	"github.com/Kyz7/sitecms/internal/config"
	"github.com/gofiber/fiber/v2"
)

type StandardResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

type Meta struct {
	Page       int   `json:"page,omitempty"`
	Limit      int   `json:"limit,omitempty"`
	Total      int64 `json:"total,omitempty"`
	TotalPages int64 `json:"total_pages,omitempty"`
}

func Success(c *fiber.Ctx, data interface{}, message string) error {
	return c.JSON(StandardResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func SuccessWithMeta(c *fiber.Ctx, data interface{}, meta *Meta, message string) error {
	return c.JSON(StandardResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	})
}

func Created(c *fiber.Ctx, data interface{}, message string) error {
	return c.Status(fiber.StatusCreated).JSON(StandardResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Error(c *fiber.Ctx, statusCode int, errorCode string, message string, details interface{}) error {
	return c.Status(statusCode).JSON(StandardResponse{
		Success: false,
		Error:   message,
		Code:    errorCode,
		Details: details,
	})
}

func BadRequest(c *fiber.Ctx, message string, details interface{}) error {
	return Error(c, fiber.StatusBadRequest, string(apperr.KindValidation), message, details)
}

func ValidationError(c *fiber.Ctx, errors map[string]string) error {
	return Error(c, fiber.StatusBadRequest, string(apperr.KindValidation), "Validation failed", errors)
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, string(apperr.KindAuth), message, nil)
}

func NotFound(c *fiber.Ctx, resource string) error {
	return Error(c, fiber.StatusNotFound, string(apperr.KindNotFound), resource+" not found", nil)
}

func InternalError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, string(apperr.KindUpstream), message, nil)
}

// FromError writes err using the apperr taxonomy. Upstream failures are
// sanitised in production; integrity failures always keep their diagnostics.
func FromError(c *fiber.Ctx, err error) error {
	e := apperr.As(err)

	message := e.Message
	var details interface{}
	if len(e.Details) > 0 {
		details = e.Details
	}

	if e.Kind == apperr.KindUpstream {
		slog.Error("upstream storage error", "path", c.Path(), "method", c.Method(), "err", e.Cause)
		if config.Current.IsProduction() {
			message = "Database temporarily unavailable, please retry"
		} else if e.Cause != nil {
			message = e.Message + ": " + e.Cause.Error()
		}
	}

	if e.Kind == apperr.KindDataIntegrity {
		slog.Error("data integrity error", "path", c.Path(), "message", e.Message, "details", e.Details)
	}

	return Error(c, e.Kind.Status(), string(e.Kind), message, details)
}

func CalculateMeta(page, limit int, total int64) *Meta {
	if limit <= 0 {
		limit = 1
	}
	totalPages := total / int64(limit)
	if total%int64(limit) > 0 {
		totalPages++
	}

	return &Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Pagination reads page/limit query values with the defaults used across list routes.
func Pagination(c *fiber.Ctx, defaultLimit, maxLimit int) (page, limit, offset int) {
	page = c.QueryInt("page", 1)
	limit = c.QueryInt("limit", defaultLimit)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit, (page - 1) * limit
}
