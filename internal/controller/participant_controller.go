package controller

import (
	"github.com/eduline/liveclass/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ParticipantController обслуживает HTTP-эндпоинты реестра участников
type ParticipantController struct {
	participants *service.ParticipantService
	logger       *zap.Logger
}

func NewParticipantController(participants *service.ParticipantService, logger *zap.Logger) *ParticipantController {
	return &ParticipantController{participants: participants, logger: logger}
}

type joinRequest struct {
	ChildID int64 `json:"child_id"`
}

// Join — POST /api/v1/sessions/:id/join
func (pc *ParticipantController) Join(c *fiber.Ctx) error {
	sessionID, err := pathID(c, "id")
	if err != nil {
		return respondBadRequest(c, "invalid session id")
	}

	var req joinRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return respondBadRequest(c, "invalid request body")
	}

	result, err := pc.participants.Join(c.Context(), requestActor(c), sessionID, req.ChildID)
	if err != nil {
		return respondError(c, pc.logger, err)
	}

	return respondSuccess(c, fiber.StatusOK, result)
}

// Leave — POST /api/v1/sessions/:id/leave
func (pc *ParticipantController) Leave(c *fiber.Ctx) error {
	sessionID, err := pathID(c, "id")
	if err != nil {
		return respondBadRequest(c, "invalid session id")
	}

	var req joinRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return respondBadRequest(c, "invalid request body")
	}

	if err := pc.participants.Leave(c.Context(), requestActor(c), sessionID, req.ChildID); err != nil {
		return respondError(c, pc.logger, err)
	}

	return respondSuccess(c, fiber.StatusOK, nil)
}

// List — GET /api/v1/sessions/:id/participants
func (pc *ParticipantController) List(c *fiber.Ctx) error {
	sessionID, err := pathID(c, "id")
	if err != nil {
		return respondBadRequest(c, "invalid session id")
	}

	participants, err := pc.participants.List(c.Context(), requestActor(c), sessionID)
	if err != nil {
		return respondError(c, pc.logger, err)
	}

	return respondSuccess(c, fiber.StatusOK, participants)
}

type raiseHandRequest struct {
	ChildID int64 `json:"child_id"`
	Raised  bool  `json:"raised"`
}

// RaiseHand — POST /api/v1/sessions/:id/hand
func (pc *ParticipantController) RaiseHand(c *fiber.Ctx) error {
	sessionID, err := pathID(c, "id")
	if err != nil {
		return respondBadRequest(c, "invalid session id")
	}

	var req raiseHandRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "invalid request body")
	}

	if err := pc.participants.RaiseHand(c.Context(), requestActor(c), sessionID, req.ChildID, req.Raised); err != nil {
		return respondError(c, pc.logger, err)
	}

	return respondSuccess(c, fiber.StatusOK, nil)
}

// LowerHand — POST /api/v1/sessions/:id/participants/:participantID/lower-hand
func (pc *ParticipantController) LowerHand(c *fiber.Ctx) error {
	sessionID, participantID, err := sessionParticipantIDs(c)
	if err != nil {
		return respondBadRequest(c, err.Error())
	}

	if err := pc.participants.LowerHand(c.Context(), requestActor(c), sessionID, participantID); err != nil {
		return respondError(c, pc.logger, err)
	}

	return respondSuccess(c, fiber.StatusOK, nil)
}

// Mute — POST /api/v1/sessions/:id/participants/:participantID/mute
func (pc *ParticipantController) Mute(c *fiber.Ctx) error {
	sessionID, participantID, err := sessionParticipantIDs(c)
	if err != nil {
		return respondBadRequest(c, err.Error())
	}

	if err := pc.participants.Mute(c.Context(), requestActor(c), sessionID, participantID); err != nil {
		return respondError(c, pc.logger, err)
	}

	return respondSuccess(c, fiber.StatusOK, nil)
}

type muteAllRequest struct {
	Muted bool `json:"muted"`
}

// MuteAll — POST /api/v1/sessions/:id/mute-all
func (pc *ParticipantController) MuteAll(c *fiber.Ctx) error {
	sessionID, err := pathID(c, "id")
	if err != nil {
		return respondBadRequest(c, "invalid session id")
	}

	req := muteAllRequest{Muted: true}
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return respondBadRequest(c, "invalid request body")
	}

	if err := pc.participants.MuteAll(c.Context(), requestActor(c), sessionID, req.Muted); err != nil {
		return respondError(c, pc.logger, err)
	}

	return respondSuccess(c, fiber.StatusOK, nil)
}

// DisableCamera — POST /api/v1/sessions/:id/participants/:participantID/disable-camera
func (pc *ParticipantController) DisableCamera(c *fiber.Ctx) error {
	sessionID, participantID, err := sessionParticipantIDs(c)
	if err != nil {
		return respondBadRequest(c, err.Error())
	}

	if err := pc.participants.DisableCamera(c.Context(), requestActor(c), sessionID, participantID); err != nil {
		return respondError(c, pc.logger, err)
	}

	return respondSuccess(c, fiber.StatusOK, nil)
}

type kickRequest struct {
	Reason string `json:"reason"`
}

// Kick — POST /api/v1/sessions/:id/participants/:participantID/kick
func (pc *ParticipantController) Kick(c *fiber.Ctx) error {
	sessionID, participantID, err := sessionParticipantIDs(c)
	if err != nil {
		return respondBadRequest(c, err.Error())
	}

	var req kickRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return respondBadRequest(c, "invalid request body")
	}

	if err := pc.participants.Kick(c.Context(), requestActor(c), sessionID, participantID, req.Reason); err != nil {
		return respondError(c, pc.logger, err)
	}

	return respondSuccess(c, fiber.StatusOK, nil)
}

func sessionParticipantIDs(c *fiber.Ctx) (int64, int64, error) {
	sessionID, err := pathID(c, "id")
	if err != nil {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}
	participantID, err := pathID(c, "participantID")
	if err != nil {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "invalid participant id")
	}
	return sessionID, participantID, nil
}
