package server

import (
	"context"
	"errors"

	"bike-rental-go/internal/auth"
	"bike-rental-go/internal/models"
	"bike-rental-go/internal/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, store.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, store.ErrBusy):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, store.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, store.ErrStorage):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusRequestTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// errorHandler writes every handler error as an ErrorResponse. Storage and
// unexpected failures are logged and their details withheld.
func errorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	message := err.Error()

	switch {
	case code >= fiber.StatusInternalServerError && errors.Is(err, store.ErrStorage):
		zap.L().Error("Request failed on storage",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		message = "storage temporarily unavailable, retry later"
	case code == fiber.StatusInternalServerError:
		zap.L().Error("Request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		message = "internal server error"
	}

	if store.IsRetryable(err) {
		c.Set(fiber.HeaderRetryAfter, "1")
	}
	return c.Status(code).JSON(models.ErrorResponse{
		Status:  "error",
		Message: message,
	})
}
