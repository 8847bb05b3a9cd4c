package controller

import (
	"time"

	"github.com/eduline/liveclass/internal/model"
	"github.com/eduline/liveclass/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SessionController обслуживает HTTP-эндпоинты жизненного цикла занятия
type SessionController struct {
	sessions *service.SessionService
	logger   *zap.Logger
}

func NewSessionController(sessions *service.SessionService, logger *zap.Logger) *SessionController {
	return &SessionController{sessions: sessions, logger: logger}
}

type createSessionRequest struct {
	TeacherID          int64     `json:"teacher_id"`
	LessonID           int64     `json:"lesson_id"`
	CourseID           *int64    `json:"course_id"`
	ScheduledStartTime time.Time `json:"scheduled_start_time"`
	StartNow           bool      `json:"start_now"`
	PacingMode         string    `json:"pacing_mode"`
	AudioEnabled       bool      `json:"audio_enabled"`
	VideoEnabled       bool      `json:"video_enabled"`
	WhiteboardEnabled  bool      `json:"whiteboard_enabled"`
	AllowQuestions     bool      `json:"allow_student_questions"`
	RecordSession      bool      `json:"record_session"`
}

// Create — POST /api/v1/sessions
func (sc *SessionController) Create(c *fiber.Ctx) error {
	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "invalid request body")
	}

	session, err := sc.sessions.Create(c.Context(), requestActor(c), service.CreateSessionInput{
		OrganizationID:     requestOrgID(c),
		TeacherID:          req.TeacherID,
		LessonID:           req.LessonID,
		CourseID:           req.CourseID,
		ScheduledStartTime: req.ScheduledStartTime,
		StartNow:           req.StartNow,
		PacingMode:         model.PacingMode(req.PacingMode),
		AudioEnabled:       req.AudioEnabled,
		VideoEnabled:       req.VideoEnabled,
		WhiteboardEnabled:  req.WhiteboardEnabled,
		AllowQuestions:     req.AllowQuestions,
		RecordSession:      req.RecordSession,
	})
	if err != nil {
		return respondError(c, sc.logger, err)
	}

	return respondSuccess(c, fiber.StatusCreated, session)
}

// List — GET /api/v1/sessions
func (sc *SessionController) List(c *fiber.Ctx) error {
	sessions, err := sc.sessions.List(c.Context(), requestActor(c), requestOrgID(c))
	if err != nil {
		return respondError(c, sc.logger, err)
	}

	return respondSuccess(c, fiber.StatusOK, sessions)
}

// Get — GET /api/v1/sessions/:id
func (sc *SessionController) Get(c *fiber.Ctx) error {
	sessionID, err := pathID(c, "id")
	if err != nil {
		return respondBadRequest(c, "invalid session id")
	}

	session, err := sc.sessions.Get(c.Context(), requestActor(c), sessionID)
	if err != nil {
		return respondError(c, sc.logger, err)
	}

	return respondSuccess(c, fiber.StatusOK, session)
}

type updateSessionRequest struct {
	LessonID           *int64     `json:"lesson_id"`
	CourseID           *int64     `json:"course_id"`
	ScheduledStartTime *time.Time `json:"scheduled_start_time"`
	PacingMode         *string    `json:"pacing_mode"`
	AudioEnabled       *bool      `json:"audio_enabled"`
	VideoEnabled       *bool      `json:"video_enabled"`
	WhiteboardEnabled  *bool      `json:"whiteboard_enabled"`
	AllowQuestions     *bool      `json:"allow_student_questions"`
	RecordSession      *bool      `json:"record_session"`
}

// Update — PATCH /api/v1/sessions/:id
func (sc *SessionController) Update(c *fiber.Ctx) error {
	sessionID, err := pathID(c, "id")
	if err != nil {
		return respondBadRequest(c, "invalid session id")
	}

	var req updateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "invalid request body")
	}

	in := service.UpdateSessionInput{
		LessonID:           req.LessonID,
		CourseID:           req.CourseID,
		ScheduledStartTime: req.ScheduledStartTime,
		AudioEnabled:       req.AudioEnabled,
		VideoEnabled:       req.VideoEnabled,
		WhiteboardEnabled:  req.WhiteboardEnabled,
		AllowQuestions:     req.AllowQuestions,
		RecordSession:      req.RecordSession,
	}
	if req.PacingMode != nil {
		mode := model.PacingMode(*req.PacingMode)
		in.PacingMode = &mode
	}

	session, err := sc.sessions.Update(c.Context(), requestActor(c), sessionID, in)
	if err != nil {
		return respondError(c, sc.logger, err)
	}

	return respondSuccess(c, fiber.StatusOK, session)
}

// Delete — DELETE /api/v1/sessions/:id
func (sc *SessionController) Delete(c *fiber.Ctx) error {
	sessionID, err := pathID(c, "id")
	if err != nil {
		return respondBadRequest(c, "invalid session id")
	}

	if err := sc.sessions.Delete(c.Context(), requestActor(c), sessionID); err != nil {
		return respondError(c, sc.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Start — POST /api/v1/sessions/:id/start
func (sc *SessionController) Start(c *fiber.Ctx) error {
	sessionID, err := pathID(c, "id")
	if err != nil {
		return respondBadRequest(c, "invalid session id")
	}

	session, err := sc.sessions.Start(c.Context(), requestActor(c), sessionID)
	if err != nil {
		return respondError(c, sc.logger, err)
	}

	return respondSuccess(c, fiber.StatusOK, session)
}

type changeStateRequest struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ChangeState — POST /api/v1/sessions/:id/state
func (sc *SessionController) ChangeState(c *fiber.Ctx) error {
	sessionID, err := pathID(c, "id")
	if err != nil {
		return respondBadRequest(c, "invalid session id")
	}

	var req changeStateRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "invalid request body")
	}

	session, err := sc.sessions.ChangeState(c.Context(), requestActor(c), sessionID, model.SessionStatus(req.Status), req.Message)
	if err != nil {
		return respondError(c, sc.logger, err)
	}

	return respondSuccess(c, fiber.StatusOK, session)
}

type changeSlideRequest struct {
	SlideID int64 `json:"slide_id"`
}

// ChangeSlide — POST /api/v1/sessions/:id/slide
func (sc *SessionController) ChangeSlide(c *fiber.Ctx) error {
	sessionID, err := pathID(c, "id")
	if err != nil {
		return respondBadRequest(c, "invalid session id")
	}

	var req changeSlideRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "invalid request body")
	}

	if err := sc.sessions.ChangeSlide(c.Context(), requestActor(c), sessionID, req.SlideID); err != nil {
		return respondError(c, sc.logger, err)
	}

	return respondSuccess(c, fiber.StatusOK, nil)
}

type navigationLockRequest struct {
	Locked bool `json:"locked"`
}

// SetNavigationLock — POST /api/v1/sessions/:id/navigation-lock
func (sc *SessionController) SetNavigationLock(c *fiber.Ctx) error {
	sessionID, err := pathID(c, "id")
	if err != nil {
		return respondBadRequest(c, "invalid session id")
	}

	var req navigationLockRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "invalid request body")
	}

	if err := sc.sessions.SetNavigationLock(c.Context(), requestActor(c), sessionID, req.Locked); err != nil {
		return respondError(c, sc.logger, err)
	}

	return respondSuccess(c, fiber.StatusOK, nil)
}

type highlightBlockRequest struct {
	SlideID     int64  `json:"slide_id"`
	BlockID     string `json:"block_id"`
	Highlighted bool   `json:"highlighted"`
}

// HighlightBlock — POST /api/v1/sessions/:id/highlight
func (sc *SessionController) HighlightBlock(c *fiber.Ctx) error {
	sessionID, err := pathID(c, "id")
	if err != nil {
		return respondBadRequest(c, "invalid session id")
	}

	var req highlightBlockRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadRequest(c, "invalid request body")
	}

	if err := sc.sessions.HighlightBlock(c.Context(), requestActor(c), sessionID, req.SlideID, req.BlockID, req.Highlighted); err != nil {
		return respondError(c, sc.logger, err)
	}

	return respondSuccess(c, fiber.StatusOK, nil)
}

// RoomToken — POST /api/v1/sessions/:id/room-token
func (sc *SessionController) RoomToken(c *fiber.Ctx) error {
	sessionID, err := pathID(c, "id")
	if err != nil {
		return respondBadRequest(c, "invalid session id")
	}

	token, err := sc.sessions.RoomToken(c.Context(), requestActor(c), sessionID)
	if err != nil {
		return respondError(c, sc.logger, err)
	}

	return respondSuccess(c, fiber.StatusOK, fiber.Map{"token": token})
}
