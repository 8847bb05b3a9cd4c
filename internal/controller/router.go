package controller

import (
	"github.com/eduline/liveclass/internal/auth"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Router собирает маршруты приложения
type Router struct {
	tokens       *auth.TokenManager
	sessions     *SessionController
	participants *ParticipantController
	messages     *MessageController
	ws           *WSController
}

func NewRouter(
	tokens *auth.TokenManager,
	sessions *SessionController,
	participants *ParticipantController,
	messages *MessageController,
	ws *WSController,
) *Router {
	return &Router{
		tokens:       tokens,
		sessions:     sessions,
		participants: participants,
		messages:     messages,
		ws:           ws,
	}
}

// Register навешивает маршруты на приложение
func (r *Router) Register(app *fiber.App) {
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Websocket аутентифицируется сам (токен в query), остальное — через
	// заголовок Authorization
	api.Get("/sessions/:id/ws", r.ws.Handler)

	authorized := api.Group("", AuthMiddleware(r.tokens))

	sessions := authorized.Group("/sessions")
	sessions.Post("", r.sessions.Create)
	sessions.Get("", r.sessions.List)
	sessions.Get("/:id", r.sessions.Get)
	sessions.Patch("/:id", r.sessions.Update)
	sessions.Delete("/:id", r.sessions.Delete)
	sessions.Post("/:id/start", r.sessions.Start)
	sessions.Post("/:id/state", r.sessions.ChangeState)
	sessions.Post("/:id/slide", r.sessions.ChangeSlide)
	sessions.Post("/:id/navigation-lock", r.sessions.SetNavigationLock)
	sessions.Post("/:id/highlight", r.sessions.HighlightBlock)
	sessions.Post("/:id/room-token", r.sessions.RoomToken)

	sessions.Post("/:id/join", r.participants.Join)
	sessions.Post("/:id/leave", r.participants.Leave)
	sessions.Get("/:id/participants", r.participants.List)
	sessions.Post("/:id/hand", r.participants.RaiseHand)
	sessions.Post("/:id/mute-all", r.participants.MuteAll)
	sessions.Post("/:id/participants/:participantID/lower-hand", r.participants.LowerHand)
	sessions.Post("/:id/participants/:participantID/mute", r.participants.Mute)
	sessions.Post("/:id/participants/:participantID/disable-camera", r.participants.DisableCamera)
	sessions.Post("/:id/participants/:participantID/kick", r.participants.Kick)

	sessions.Post("/:id/messages", r.messages.Post)
	sessions.Get("/:id/messages", r.messages.List)
	authorized.Post("/messages/:id/answer", r.messages.Answer)
}
