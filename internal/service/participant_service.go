package service

import (
	"context"
	"fmt"

	"github.com/eduline/liveclass/internal/broadcast"
	"github.com/eduline/liveclass/internal/model"
	"go.uber.org/zap"
)

// JoinResult — результат входа в занятие. Participant == nil у сотрудников,
// заходящих без выбора ребёнка (наблюдение без записи участия).
type JoinResult struct {
	Session        *model.LiveSession    `json:"session"`
	Participant    *model.Participant    `json:"participant,omitempty"`
	PurchaseSource *model.PurchaseSource `json:"purchase_source,omitempty"`
}

// ParticipantService управляет реестром участников занятия: вход, выход,
// поднятие руки и модераторские действия учителя.
type ParticipantService struct {
	sessionGuard
	participantRepo ParticipantRepository
	childRepo       ChildRepository
	access          *AccessService
	broadcaster     broadcast.Broadcaster
	logger          *zap.Logger
}

func NewParticipantService(
	sessionRepo SessionRepository,
	participantRepo ParticipantRepository,
	childRepo ChildRepository,
	access *AccessService,
	broadcaster broadcast.Broadcaster,
	logger *zap.Logger,
) *ParticipantService {
	return &ParticipantService{
		sessionGuard:    sessionGuard{sessions: sessionRepo},
		participantRepo: participantRepo,
		childRepo:       childRepo,
		access:          access,
		broadcaster:     broadcaster,
		logger:          logger,
	}
}

// resolveChild определяет, от имени какого ребёнка действует вызывающий.
// Сотрудники детей не выбирают (возвращается 0). У родителя с одним
// ребёнком выбор автоматический; с несколькими — childID обязателен и
// должен принадлежать ему.
func (s *ParticipantService) resolveChild(ctx context.Context, actor model.Actor, childID int64) (int64, error) {
	if actor.IsStaff() {
		return 0, nil
	}

	children, err := s.childRepo.GetByParentID(ctx, actor.ID)
	if err != nil {
		return 0, fmt.Errorf("get children: %w", err)
	}

	if len(children) == 0 {
		return 0, fmt.Errorf("%w: no children registered", ErrAccessDenied)
	}

	if childID == 0 {
		if len(children) == 1 {
			return children[0].ID, nil
		}
		return 0, ErrChildSelectionRequired
	}

	for _, child := range children {
		if child.ID == childID {
			return childID, nil
		}
	}

	return 0, fmt.Errorf("%w: child belongs to another parent", ErrForbidden)
}

// Join вводит ребёнка в занятие. Занятие должно идти; для детей
// проверяется покупка, покрывающая это занятие. Повторный вход после
// выхода или обрыва связи — тот же участник (upsert).
func (s *ParticipantService) Join(ctx context.Context, actor model.Actor, sessionID, childID int64) (*JoinResult, error) {
	session, err := s.authorizeSession(ctx, actor, sessionID, false)
	if err != nil {
		return nil, err
	}

	if !session.IsLive() {
		return nil, fmt.Errorf("%w: session is %s", ErrSessionNotActive, session.Status)
	}

	resolvedChildID, err := s.resolveChild(ctx, actor, childID)
	if err != nil {
		return nil, err
	}

	// Сотрудник без ребёнка наблюдает занятие, не становясь участником
	if resolvedChildID == 0 {
		return &JoinResult{Session: session}, nil
	}

	var source *model.PurchaseSource
	if !actor.IsStaff() {
		source, err = s.access.ResolvePurchaseSource(ctx, resolvedChildID, sessionID)
		if err != nil {
			return nil, err
		}
		if source == nil {
			return nil, fmt.Errorf("%w: no purchase covers this session", ErrAccessDenied)
		}
	}

	participant, err := s.participantRepo.Upsert(ctx, sessionID, resolvedChildID)
	if err != nil {
		return nil, err
	}

	s.broadcaster.Publish(sessionID, broadcast.NewEvent(broadcast.EventParticipantJoined, map[string]any{
		"participant_id": participant.ID,
		"child_id":       participant.ChildID,
	}).Exclude(participant.ChildID))

	s.logger.Info("Participant joined session",
		zap.Int64("session_id", sessionID),
		zap.Int64("child_id", resolvedChildID),
	)

	return &JoinResult{Session: session, Participant: participant, PurchaseSource: source}, nil
}

// Leave выводит ребёнка из занятия. Идемпотентно: повторный выход и выход
// никогда не заходившего — не ошибка.
func (s *ParticipantService) Leave(ctx context.Context, actor model.Actor, sessionID, childID int64) error {
	if _, err := s.authorizeSession(ctx, actor, sessionID, false); err != nil {
		return err
	}

	resolvedChildID, err := s.resolveChild(ctx, actor, childID)
	if err != nil {
		return err
	}
	if resolvedChildID == 0 {
		return nil
	}

	if _, err := s.participantRepo.MarkLeft(ctx, sessionID, resolvedChildID); err != nil {
		return err
	}

	return nil
}

// List возвращает участников занятия вместе с данными детей
func (s *ParticipantService) List(ctx context.Context, actor model.Actor, sessionID int64) ([]*model.Participant, error) {
	if _, err := s.authorizeSession(ctx, actor, sessionID, false); err != nil {
		return nil, err
	}

	return s.participantRepo.ListBySession(ctx, sessionID)
}

// RaiseHand поднимает или опускает руку ребёнка
func (s *ParticipantService) RaiseHand(ctx context.Context, actor model.Actor, sessionID, childID int64, raised bool) error {
	session, err := s.authorizeSession(ctx, actor, sessionID, false)
	if err != nil {
		return err
	}

	if !session.IsLive() {
		return fmt.Errorf("%w: session is %s", ErrSessionNotActive, session.Status)
	}

	resolvedChildID, err := s.resolveChild(ctx, actor, childID)
	if err != nil {
		return err
	}
	if resolvedChildID == 0 {
		return fmt.Errorf("%w: only participants can raise a hand", ErrValidation)
	}

	// Доступ проверяется как при входе: отозванная покупка закрывает
	// и поднятие руки, даже если участник уже в занятии
	hasAccess, err := s.access.HasAccess(ctx, resolvedChildID, sessionID)
	if err != nil {
		return err
	}
	if !hasAccess {
		return fmt.Errorf("%w: no purchase covers this session", ErrAccessDenied)
	}

	ok, err := s.participantRepo.SetHandRaised(ctx, sessionID, resolvedChildID, raised)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: participant is not in the session", ErrValidation)
	}

	s.broadcaster.Publish(sessionID, broadcast.NewEvent(broadcast.EventHandRaised, map[string]any{
		"child_id": resolvedChildID,
		"raised":   raised,
	}).Exclude(resolvedChildID))

	return nil
}

// LowerHand опускает руку участника (действие учителя)
func (s *ParticipantService) LowerHand(ctx context.Context, actor model.Actor, sessionID, participantID int64) error {
	if _, err := s.authorizeSession(ctx, actor, sessionID, true); err != nil {
		return err
	}

	participant, err := s.requireParticipant(ctx, sessionID, participantID)
	if err != nil {
		return err
	}

	if _, err := s.participantRepo.LowerHandByID(ctx, participantID); err != nil {
		return err
	}

	s.broadcaster.Publish(sessionID, broadcast.NewEvent(broadcast.EventHandRaised, map[string]any{
		"child_id": participant.ChildID,
		"raised":   false,
	}).Exclude(broadcast.StaffClientID(actor.ID)))

	return nil
}

// Mute выключает микрофон участника (действие учителя). Состояние живёт
// в медиа-слое, здесь только адресная рассылка команды.
func (s *ParticipantService) Mute(ctx context.Context, actor model.Actor, sessionID, participantID int64) error {
	if _, err := s.authorizeSession(ctx, actor, sessionID, true); err != nil {
		return err
	}

	participant, err := s.requireParticipant(ctx, sessionID, participantID)
	if err != nil {
		return err
	}

	s.broadcaster.Publish(sessionID, broadcast.NewEvent(broadcast.EventParticipantMuted, map[string]any{
		"participant_id": participant.ID,
		"child_id":       participant.ChildID,
		"muted":          true,
	}).Exclude(broadcast.StaffClientID(actor.ID)))

	return nil
}

// MuteAll выключает (или включает обратно) микрофоны всех активных
// участников. Рассылается по событию на участника, не одним батчем:
// клиентам проще фильтровать адресные события.
func (s *ParticipantService) MuteAll(ctx context.Context, actor model.Actor, sessionID int64, muted bool) error {
	if _, err := s.authorizeSession(ctx, actor, sessionID, true); err != nil {
		return err
	}

	participants, err := s.participantRepo.ListActiveBySession(ctx, sessionID)
	if err != nil {
		return err
	}

	for _, participant := range participants {
		s.broadcaster.Publish(sessionID, broadcast.NewEvent(broadcast.EventParticipantMuted, map[string]any{
			"participant_id": participant.ID,
			"child_id":       participant.ChildID,
			"muted":          muted,
		}).Exclude(broadcast.StaffClientID(actor.ID)))
	}

	return nil
}

// DisableCamera выключает камеру участника (действие учителя)
func (s *ParticipantService) DisableCamera(ctx context.Context, actor model.Actor, sessionID, participantID int64) error {
	if _, err := s.authorizeSession(ctx, actor, sessionID, true); err != nil {
		return err
	}

	participant, err := s.requireParticipant(ctx, sessionID, participantID)
	if err != nil {
		return err
	}

	s.broadcaster.Publish(sessionID, broadcast.NewEvent(broadcast.EventCameraDisabled, map[string]any{
		"participant_id": participant.ID,
		"child_id":       participant.ChildID,
	}).Exclude(broadcast.StaffClientID(actor.ID)))

	return nil
}

// Kick исключает участника из занятия. Событие уходит остальным, самому
// исключённому отдельно отправляется причина.
func (s *ParticipantService) Kick(ctx context.Context, actor model.Actor, sessionID, participantID int64, reason string) error {
	if _, err := s.authorizeSession(ctx, actor, sessionID, true); err != nil {
		return err
	}

	participant, err := s.requireParticipant(ctx, sessionID, participantID)
	if err != nil {
		return err
	}

	kicked, err := s.participantRepo.MarkKicked(ctx, participantID)
	if err != nil {
		return err
	}
	if !kicked {
		return fmt.Errorf("%w: participant already left the session", ErrValidation)
	}

	s.broadcaster.Publish(sessionID, broadcast.NewEvent(broadcast.EventParticipantKicked, map[string]any{
		"participant_id": participant.ID,
		"child_id":       participant.ChildID,
		"reason":         reason,
	}).Exclude(participant.ChildID))

	s.logger.Info("Participant kicked from session",
		zap.Int64("session_id", sessionID),
		zap.Int64("participant_id", participantID),
		zap.Int64("actor_id", actor.ID),
	)

	return nil
}

// SetConnectionStatus фиксирует состояние соединения участника.
// Вызывается хабом рассылки при подключении и отключении клиентов.
func (s *ParticipantService) SetConnectionStatus(ctx context.Context, sessionID, childID int64, status model.ConnectionStatus) error {
	return s.participantRepo.SetConnectionStatus(ctx, sessionID, childID, status)
}

// ResolveClientKey определяет ключ клиента рассылки для вызывающего:
// у детей это childID, у сотрудников — отрицательный ключ от userID,
// чтобы не пересекаться с детьми.
func (s *ParticipantService) ResolveClientKey(ctx context.Context, actor model.Actor, sessionID, childID int64) (int64, error) {
	if _, err := s.authorizeSession(ctx, actor, sessionID, false); err != nil {
		return 0, err
	}

	if actor.IsStaff() {
		return broadcast.StaffClientID(actor.ID), nil
	}

	resolvedChildID, err := s.resolveChild(ctx, actor, childID)
	if err != nil {
		return 0, err
	}

	return resolvedChildID, nil
}

func (s *ParticipantService) requireParticipant(ctx context.Context, sessionID, participantID int64) (*model.Participant, error) {
	participant, err := s.participantRepo.GetByID(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	if participant == nil || participant.SessionID != sessionID {
		return nil, ErrNotFound
	}
	return participant, nil
}
