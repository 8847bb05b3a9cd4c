package controller

import (
	"github.com/eduline/liveclass/internal/model"
	"github.com/eduline/liveclass/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MessageController обслуживает HTTP-эндпоинты вопросов и комментариев
type MessageController struct {
	messages *service.MessageService
	logger   *zap.Logger
}

func NewMessageController(messages *service.MessageService, logger *zap.Logger) *MessageController {
	return &MessageController{messages: messages, logger: logger}
}

type postMessageRequest struct {
	ChildID int64  `json:"child_id"`
	Type    string `json:"type"`
	Text    string `json:"text"`
}

// Post — POST /api/v1/sessions/:id/messages
func (mc *MessageController) Post(c *fiber.Ctx) error {
	sessionID, err := pathID(c, "id")
	if err != nil {
		return respondBadRequest(c, "invalid session id")
	}

	var req postMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "invalid request body")
	}

	message, err := mc.messages.Post(c.Context(), requestActor(c), sessionID, req.ChildID, model.MessageType(req.Type), req.Text)
	if err != nil {
		return respondError(c, mc.logger, err)
	}

	return respondSuccess(c, fiber.StatusCreated, message)
}

// List — GET /api/v1/sessions/:id/messages
func (mc *MessageController) List(c *fiber.Ctx) error {
	sessionID, err := pathID(c, "id")
	if err != nil {
		return respondBadRequest(c, "invalid session id")
	}

	messages, err := mc.messages.List(c.Context(), requestActor(c), sessionID)
	if err != nil {
		return respondError(c, mc.logger, err)
	}

	return respondSuccess(c, fiber.StatusOK, messages)
}

type answerRequest struct {
	Answer string `json:"answer"`
}

// Answer — POST /api/v1/messages/:id/answer
func (mc *MessageController) Answer(c *fiber.Ctx) error {
	messageID, err := pathID(c, "id")
	if err != nil {
		return respondBadRequest(c, "invalid message id")
	}

	var req answerRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "invalid request body")
	}

	message, err := mc.messages.Answer(c.Context(), requestActor(c), messageID, req.Answer)
	if err != nil {
		return respondError(c, mc.logger, err)
	}

	return respondSuccess(c, fiber.StatusOK, message)
}
