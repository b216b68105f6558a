package serverutils

import (
	"docchat-be/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

// ErrorHandlerMiddleware converts classified service errors that escape a
// controller into the standard response envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		switch {
		case errors.Is(err, apperr.ErrValidation):
			code = fiber.StatusBadRequest
		case errors.Is(err, apperr.ErrNotFound):
			code = fiber.StatusNotFound
		case errors.Is(err, apperr.ErrForbidden):
			code = fiber.StatusForbidden
		case errors.Is(err, apperr.ErrConflict):
			code = fiber.StatusConflict
		case errors.Is(err, apperr.ErrBackendTimeout):
			code = fiber.StatusGatewayTimeout
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		}

		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}
