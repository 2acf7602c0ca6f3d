package serverutils

import (
	"errors"

	"soulscript-chat-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the standard
// error envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		status, body := MapError(err)
		return ctx.Status(status).JSON(body)
	}
}

// MapError resolves the HTTP status and response body for an error.
func MapError(err error) (int, *BaseResponse[any]) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, ErrorResponse(fiberErr.Code, fiberErr.Message)
	}

	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError, ErrorResponse(fiber.StatusInternalServerError, "Internal server error")
	}

	status := StatusOf(appErr.Kind)
	body := ErrorResponse(status, appErr.Message)
	body.ErrorCode = string(appErr.Kind)
	body.Retryable = appErr.Retryable
	return status, body
}

func StatusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindForbidden:
		return fiber.StatusForbidden
	case apperror.KindTurnInProgress, apperror.KindConflict:
		return fiber.StatusConflict
	case apperror.KindInvariantViolation:
		return fiber.StatusLocked
	case apperror.KindQuotaExceeded:
		return fiber.StatusTooManyRequests
	case apperror.KindUpstreamFailure:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
