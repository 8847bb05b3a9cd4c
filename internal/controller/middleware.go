package controller

import (
	"strconv"

	"github.com/eduline/liveclass/internal/auth"
	"github.com/eduline/liveclass/internal/model"
	"github.com/gofiber/fiber/v2"
)

const actorKey = "actor"

// AuthMiddleware разбирает JWT из заголовка Authorization и кладёт
// идентичность вызывающего в контекст запроса
func AuthMiddleware(tokens *auth.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Success: false,
				Code:    "unauthenticated",
				Message: "missing authorization token",
			})
		}

		actor, err := tokens.Parse(header)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Success: false,
				Code:    "unauthenticated",
				Message: "invalid token",
			})
		}

		c.Locals(actorKey, actor)
		return c.Next()
	}
}

// requestActor достаёт идентичность вызывающего из контекста запроса
func requestActor(c *fiber.Ctx) model.Actor {
	actor, _ := c.Locals(actorKey).(model.Actor)
	return actor
}

// requestOrgID определяет организацию запроса: своя у обычных
// пользователей, у суперадмина — из заголовка X-Organization-ID
func requestOrgID(c *fiber.Ctx) int64 {
	actor := requestActor(c)
	if actor.IsSuperAdmin() {
		if header := c.Get("X-Organization-ID"); header != "" {
			if id, err := strconv.ParseInt(header, 10, 64); err == nil {
				return id
			}
		}
	}
	return actor.OrganizationID
}

// pathID разбирает числовой параметр пути
func pathID(c *fiber.Ctx, name string) (int64, error) {
	return strconv.ParseInt(c.Params(name), 10, 64)
}
