package service

import (
	"context"
	"fmt"
	"time"

	"github.com/eduline/liveclass/internal/broadcast"
	"github.com/eduline/liveclass/internal/model"
	"go.uber.org/zap"
)

// RoomTokenIssuer выпускает токены для медиа-слоя (внешний коллаборатор)
type RoomTokenIssuer interface {
	IssueRoomToken(session *model.LiveSession, actor model.Actor, permissions []string, metadata map[string]any) (string, error)
}

// CreateSessionInput — параметры создания занятия
type CreateSessionInput struct {
	OrganizationID     int64
	TeacherID          int64 // 0 = сам вызывающий (для учителей)
	LessonID           int64
	CourseID           *int64
	ScheduledStartTime time.Time
	StartNow           bool
	PacingMode         model.PacingMode
	AudioEnabled       bool
	VideoEnabled       bool
	WhiteboardEnabled  bool
	AllowQuestions     bool
	RecordSession      bool
}

// UpdateSessionInput — редактируемые поля занятия; nil = не менять
type UpdateSessionInput struct {
	LessonID           *int64
	CourseID           *int64
	ScheduledStartTime *time.Time
	PacingMode         *model.PacingMode
	AudioEnabled       *bool
	VideoEnabled       *bool
	WhiteboardEnabled  *bool
	AllowQuestions     *bool
	RecordSession      *bool
}

// SessionService владеет жизненным циклом занятия: конечный автомат
// статусов, пейсинг (слайды, блокировка навигации) и выпуск токенов комнаты.
type SessionService struct {
	sessionGuard
	sessionRepo SessionRepository
	lessonRepo  LessonRepository
	userRepo    UserRepository
	broadcaster broadcast.Broadcaster
	tokens      RoomTokenIssuer
	logger      *zap.Logger
}

func NewSessionService(
	sessionRepo SessionRepository,
	lessonRepo LessonRepository,
	userRepo UserRepository,
	broadcaster broadcast.Broadcaster,
	tokens RoomTokenIssuer,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		sessionGuard: sessionGuard{sessions: sessionRepo},
		sessionRepo:  sessionRepo,
		lessonRepo:   lessonRepo,
		userRepo:     userRepo,
		broadcaster:  broadcaster,
		tokens:       tokens,
		logger:       logger,
	}
}

// Create создаёт занятие в статусе scheduled, либо сразу live при StartNow
func (s *SessionService) Create(ctx context.Context, actor model.Actor, in CreateSessionInput) (*model.LiveSession, error) {
	if actor.ID == 0 {
		return nil, ErrUnauthenticated
	}
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}

	teacherID := in.TeacherID
	if teacherID == 0 {
		teacherID = actor.ID
	}
	// Учитель создаёт занятия только себе
	if actor.Role == model.RoleTeacher && teacherID != actor.ID {
		return nil, ErrForbidden
	}

	teacher, err := s.userRepo.GetByID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	if teacher == nil || teacher.Role != model.RoleTeacher {
		return nil, fmt.Errorf("%w: teacher not found in organization", ErrValidation)
	}
	if teacher.OrganizationID != in.OrganizationID {
		return nil, fmt.Errorf("%w: teacher belongs to another organization", ErrValidation)
	}

	lesson, err := s.lessonRepo.GetByID(ctx, in.LessonID)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	if lesson == nil || lesson.OrganizationID != in.OrganizationID {
		return nil, fmt.Errorf("%w: lesson not found in organization", ErrValidation)
	}

	pacing := in.PacingMode
	if pacing == "" {
		pacing = model.PacingModeTeacher
	}

	session := &model.LiveSession{
		OrganizationID:        in.OrganizationID,
		TeacherID:             teacherID,
		LessonID:              in.LessonID,
		CourseID:              in.CourseID,
		ScheduledStartTime:    in.ScheduledStartTime,
		Status:                model.SessionStatusScheduled,
		PacingMode:            pacing,
		AudioEnabled:          in.AudioEnabled,
		VideoEnabled:          in.VideoEnabled,
		WhiteboardEnabled:     in.WhiteboardEnabled,
		AllowStudentQuestions: in.AllowQuestions,
		RecordSession:         in.RecordSession,
	}

	// "Начать сейчас": занятие рождается сразу живым
	if in.StartNow {
		now := time.Now().UTC()
		session.Status = model.SessionStatusLive
		session.ActualStartTime = &now
		if session.ScheduledStartTime.IsZero() {
			session.ScheduledStartTime = now
		}
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("Live session created",
		zap.Int64("session_id", session.ID),
		zap.Int64("organization_id", session.OrganizationID),
		zap.Int64("teacher_id", session.TeacherID),
		zap.String("status", string(session.Status)),
	)

	return session, nil
}

// Get возвращает занятие; scope организации проверяется как для любого действия
func (s *SessionService) Get(ctx context.Context, actor model.Actor, sessionID int64) (*model.LiveSession, error) {
	return s.authorizeSession(ctx, actor, sessionID, false)
}

// List возвращает занятия организации
func (s *SessionService) List(ctx context.Context, actor model.Actor, orgID int64) ([]*model.LiveSession, error) {
	if actor.ID == 0 {
		return nil, ErrUnauthenticated
	}
	if !actor.IsSuperAdmin() && actor.OrganizationID != orgID {
		return nil, ErrNotFound
	}

	return s.sessionRepo.ListByOrganization(ctx, orgID)
}

// Start запускает занятие: строго scheduled → live, с фиксацией
// фактического времени старта
func (s *SessionService) Start(ctx context.Context, actor model.Actor, sessionID int64) (*model.LiveSession, error) {
	session, err := s.authorizeSession(ctx, actor, sessionID, true)
	if err != nil {
		return nil, err
	}

	started, err := s.sessionRepo.MarkStarted(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !started {
		return nil, fmt.Errorf("%w: session is %s, not scheduled", ErrInvalidTransition, session.Status)
	}

	session, err = s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.broadcaster.Publish(sessionID, broadcast.NewEvent(broadcast.EventSessionStateChanged, map[string]any{
		"status":  string(model.SessionStatusLive),
		"message": "Занятие началось",
	}).Exclude(broadcast.StaffClientID(actor.ID)))

	s.logger.Info("Live session started",
		zap.Int64("session_id", sessionID),
		zap.Int64("teacher_id", actor.ID),
	)

	return session, nil
}

// ChangeState переводит занятие в новый статус. Проверка нестрогая:
// отклоняется только переход из терминального статуса (наблюдаемое
// поведение исходной системы; строгая схема — model.CanTransitionTo).
func (s *SessionService) ChangeState(ctx context.Context, actor model.Actor, sessionID int64, target model.SessionStatus, message string) (*model.LiveSession, error) {
	switch target {
	case model.SessionStatusLive, model.SessionStatusPaused, model.SessionStatusEnded, model.SessionStatusCancelled:
	default:
		return nil, fmt.Errorf("%w: invalid target status %q", ErrValidation, target)
	}

	if _, err := s.authorizeSession(ctx, actor, sessionID, true); err != nil {
		return nil, err
	}

	changed, err := s.sessionRepo.ChangeStatus(ctx, sessionID, target)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("%w: session is already finished", ErrInvalidTransition)
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.broadcaster.Publish(sessionID, broadcast.NewEvent(broadcast.EventSessionStateChanged, map[string]any{
		"status":  string(target),
		"message": message,
	}).Exclude(broadcast.StaffClientID(actor.ID)))

	s.logger.Info("Session state changed",
		zap.Int64("session_id", sessionID),
		zap.String("status", string(target)),
		zap.Int64("actor_id", actor.ID),
	)

	return session, nil
}

// Update редактирует занятие; живое или завершённое редактировать нельзя
func (s *SessionService) Update(ctx context.Context, actor model.Actor, sessionID int64, in UpdateSessionInput) (*model.LiveSession, error) {
	session, err := s.authorizeSession(ctx, actor, sessionID, true)
	if err != nil {
		return nil, err
	}

	if !session.CanEdit() {
		return nil, fmt.Errorf("%w: session is %s", ErrEditNotAllowed, session.Status)
	}

	if in.LessonID != nil {
		lesson, err := s.lessonRepo.GetByID(ctx, *in.LessonID)
		if err != nil {
			return nil, fmt.Errorf("get lesson: %w", err)
		}
		if lesson == nil || lesson.OrganizationID != session.OrganizationID {
			return nil, fmt.Errorf("%w: lesson not found in organization", ErrValidation)
		}
		session.LessonID = *in.LessonID
	}
	if in.CourseID != nil {
		session.CourseID = in.CourseID
	}
	if in.ScheduledStartTime != nil {
		session.ScheduledStartTime = *in.ScheduledStartTime
	}
	if in.PacingMode != nil {
		session.PacingMode = *in.PacingMode
	}
	if in.AudioEnabled != nil {
		session.AudioEnabled = *in.AudioEnabled
	}
	if in.VideoEnabled != nil {
		session.VideoEnabled = *in.VideoEnabled
	}
	if in.WhiteboardEnabled != nil {
		session.WhiteboardEnabled = *in.WhiteboardEnabled
	}
	if in.AllowQuestions != nil {
		session.AllowStudentQuestions = *in.AllowQuestions
	}
	if in.RecordSession != nil {
		session.RecordSession = *in.RecordSession
	}

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// Delete удаляет занятие; живое занятие удалить нельзя
func (s *SessionService) Delete(ctx context.Context, actor model.Actor, sessionID int64) error {
	session, err := s.authorizeSession(ctx, actor, sessionID, true)
	if err != nil {
		return err
	}

	if !session.CanDelete() {
		return ErrDeleteNotAllowed
	}

	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return err
	}

	s.logger.Info("Live session deleted",
		zap.Int64("session_id", sessionID),
		zap.Int64("actor_id", actor.ID),
	)

	return nil
}

// ChangeSlide устанавливает текущий слайд. Слайд обязан принадлежать уроку
// занятия. Событие уходит всем, кроме самого учителя.
func (s *SessionService) ChangeSlide(ctx context.Context, actor model.Actor, sessionID, slideID int64) error {
	session, err := s.authorizeSession(ctx, actor, sessionID, true)
	if err != nil {
		return err
	}

	belongs, err := s.lessonRepo.SlideBelongsToLesson(ctx, slideID, session.LessonID)
	if err != nil {
		return fmt.Errorf("check slide: %w", err)
	}
	if !belongs {
		return fmt.Errorf("%w: slide does not belong to the session lesson", ErrValidation)
	}

	set, err := s.sessionRepo.SetCurrentSlide(ctx, sessionID, slideID)
	if err != nil {
		return err
	}
	if !set {
		return fmt.Errorf("%w: session is already finished", ErrInvalidTransition)
	}

	s.broadcaster.Publish(sessionID, broadcast.NewEvent(broadcast.EventSlideChanged, map[string]any{
		"slide_id": slideID,
		"actor_id": actor.ID,
	}).Exclude(broadcast.StaffClientID(actor.ID)))

	return nil
}

// SetNavigationLock блокирует или отпускает самостоятельную навигацию учеников
func (s *SessionService) SetNavigationLock(ctx context.Context, actor model.Actor, sessionID int64, locked bool) error {
	if _, err := s.authorizeSession(ctx, actor, sessionID, true); err != nil {
		return err
	}

	if err := s.sessionRepo.SetNavigationLock(ctx, sessionID, locked); err != nil {
		return err
	}

	message := "Учитель разрешил свободную навигацию по слайдам"
	if locked {
		message = "Учитель заблокировал навигацию по слайдам"
	}

	s.broadcaster.Publish(sessionID, broadcast.NewEvent(broadcast.EventSessionStateChanged, map[string]any{
		"navigation_locked": locked,
		"message":           message,
	}).Exclude(broadcast.StaffClientID(actor.ID)))

	return nil
}

// HighlightBlock подсвечивает блок на слайде. Ничего не сохраняем —
// только рассылка.
func (s *SessionService) HighlightBlock(ctx context.Context, actor model.Actor, sessionID, slideID int64, blockID string, highlighted bool) error {
	if _, err := s.authorizeSession(ctx, actor, sessionID, true); err != nil {
		return err
	}

	s.broadcaster.Publish(sessionID, broadcast.NewEvent(broadcast.EventBlockHighlighted, map[string]any{
		"slide_id":    slideID,
		"block_id":    blockID,
		"highlighted": highlighted,
	}).Exclude(broadcast.StaffClientID(actor.ID)))

	return nil
}

// RoomToken выпускает токен медиа-комнаты для вызывающего
func (s *SessionService) RoomToken(ctx context.Context, actor model.Actor, sessionID int64) (string, error) {
	session, err := s.authorizeSession(ctx, actor, sessionID, false)
	if err != nil {
		return "", err
	}

	permissions := []string{"subscribe"}
	if actor.IsStaff() {
		permissions = []string{"subscribe", "publish", "moderate"}
	} else if session.AudioEnabled {
		permissions = append(permissions, "publish")
	}

	token, err := s.tokens.IssueRoomToken(session, actor, permissions, map[string]any{
		"record": session.RecordSession,
	})
	if err != nil {
		return "", fmt.Errorf("issue room token: %w", err)
	}

	return token, nil
}

// EndStaleSessions завершает живые занятия, плановый старт которых был
// раньше чем staleAfter назад. Вызывается фоновым обработчиком.
func (s *SessionService) EndStaleSessions(ctx context.Context, staleAfter time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-staleAfter)
	return s.sessionRepo.EndStale(ctx, cutoff)
}
