package controller

import (
	"strconv"

	"github.com/eduline/liveclass/internal/auth"
	"github.com/eduline/liveclass/internal/broadcast"
	"github.com/eduline/liveclass/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

// WSController поднимает websocket-подключения к занятию. Браузер не
// умеет ставить заголовки на websocket, поэтому токен принимается
// query-параметром.
type WSController struct {
	hub          *broadcast.Hub
	tokens       *auth.TokenManager
	participants *service.ParticipantService
	logger       *zap.Logger
}

func NewWSController(hub *broadcast.Hub, tokens *auth.TokenManager, participants *service.ParticipantService, logger *zap.Logger) *WSController {
	return &WSController{
		hub:          hub,
		tokens:       tokens,
		participants: participants,
		logger:       logger,
	}
}

// Handler — GET /api/v1/sessions/:id/ws?token=...&child_id=...
func (wc *WSController) Handler(c *fiber.Ctx) error {
	sessionID, err := pathID(c, "id")
	if err != nil {
		return respondBadRequest(c, "invalid session id")
	}

	token := c.Query("token")
	if token == "" {
		token = c.Get("Authorization")
	}
	actor, err := wc.tokens.Parse(token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Success: false,
			Code:    "unauthenticated",
			Message: "invalid token",
		})
	}

	childID, _ := strconv.ParseInt(c.Query("child_id"), 10, 64)

	clientID, err := wc.participants.ResolveClientKey(c.Context(), actor, sessionID, childID)
	if err != nil {
		return respondError(c, wc.logger, err)
	}

	handler := websocket.Handler(func(conn *websocket.Conn) {
		wc.hub.Serve(conn, sessionID, clientID)
	})

	return adaptor.HTTPHandler(handler)(c)
}
