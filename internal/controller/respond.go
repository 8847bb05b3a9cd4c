package controller

import (
	"errors"

	"github.com/eduline/liveclass/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SuccessResponse структура для успешных ответов
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorResponse структура для ошибок. Code — машиночитаемый код для
// фронтенда, Message — человекочитаемое описание.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondSuccess создаёт успешный JSON-ответ
func respondSuccess(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(SuccessResponse{
		Success: true,
		Data:    data,
	})
}

// respondError переводит ошибку сервисного слоя в HTTP-ответ
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	status, code := classifyError(err)

	if status == fiber.StatusInternalServerError {
		logger.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(status).JSON(ErrorResponse{
			Success: false,
			Code:    code,
			Message: "internal server error",
		})
	}

	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Code:    code,
		Message: err.Error(),
	})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return fiber.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrAccessDenied):
		return fiber.StatusForbidden, "access_denied"
	case errors.Is(err, service.ErrChildSelectionRequired):
		return fiber.StatusUnprocessableEntity, "child_selection_required"
	case errors.Is(err, service.ErrSessionNotActive):
		return fiber.StatusConflict, "session_not_active"
	case errors.Is(err, service.ErrInvalidTransition):
		return fiber.StatusConflict, "invalid_transition"
	case errors.Is(err, service.ErrEditNotAllowed):
		return fiber.StatusConflict, "edit_not_allowed"
	case errors.Is(err, service.ErrDeleteNotAllowed):
		return fiber.StatusConflict, "delete_not_allowed"
	case errors.Is(err, service.ErrValidation):
		return fiber.StatusUnprocessableEntity, "validation_error"
	default:
		return fiber.StatusInternalServerError, "internal_error"
	}
}

// respondBadRequest — ошибка разбора запроса (тело, параметры пути)
func respondBadRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Success: false,
		Code:    "bad_request",
		Message: message,
	})
}
