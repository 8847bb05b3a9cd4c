package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/eduline/liveclass/internal/broadcast"
	"github.com/eduline/liveclass/internal/model"
	"go.uber.org/zap"
)

const maxMessageLength = 2000

// MessageService управляет вопросами и комментариями внутри занятия
type MessageService struct {
	sessionGuard
	messageRepo MessageRepository
	childRepo   ChildRepository
	access      *AccessService
	broadcaster broadcast.Broadcaster
	logger      *zap.Logger
}

func NewMessageService(
	sessionRepo SessionRepository,
	messageRepo MessageRepository,
	childRepo ChildRepository,
	access *AccessService,
	broadcaster broadcast.Broadcaster,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		sessionGuard: sessionGuard{sessions: sessionRepo},
		messageRepo:  messageRepo,
		childRepo:    childRepo,
		access:       access,
		broadcaster:  broadcaster,
		logger:       logger,
	}
}

// Post публикует вопрос или комментарий от имени ребёнка. Вопросы
// разрешены только если занятие их допускает; доступ проверяется как при
// входе.
func (s *MessageService) Post(ctx context.Context, actor model.Actor, sessionID, childID int64, messageType model.MessageType, text string) (*model.SessionMessage, error) {
	session, err := s.authorizeSession(ctx, actor, sessionID, false)
	if err != nil {
		return nil, err
	}

	if !session.IsLive() {
		return nil, fmt.Errorf("%w: session is %s", ErrSessionNotActive, session.Status)
	}

	if !model.ValidMessageType(string(messageType)) {
		return nil, fmt.Errorf("%w: invalid message type %q", ErrValidation, messageType)
	}
	if messageType == model.MessageTypeQuestion && !session.AllowStudentQuestions {
		return nil, fmt.Errorf("%w: questions are disabled for this session", ErrValidation)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message text is empty", ErrValidation)
	}
	if len(text) > maxMessageLength {
		return nil, fmt.Errorf("%w: message text is too long", ErrValidation)
	}

	resolvedChildID, err := s.resolveAuthor(ctx, actor, childID, sessionID)
	if err != nil {
		return nil, err
	}

	message := &model.SessionMessage{
		SessionID: sessionID,
		ChildID:   resolvedChildID,
		Text:      text,
		Type:      messageType,
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	s.broadcaster.Publish(sessionID, broadcast.NewEvent(broadcast.EventMessagePosted, map[string]any{
		"message_id": message.ID,
		"child_id":   message.ChildID,
		"type":       string(message.Type),
		"text":       message.Text,
	}).Exclude(resolvedChildID))

	return message, nil
}

// Answer отвечает на вопрос участника. Отвечает ровно один сотрудник:
// повторный ответ на уже отвеченный вопрос отклоняется.
func (s *MessageService) Answer(ctx context.Context, actor model.Actor, messageID int64, answer string) (*model.SessionMessage, error) {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	if message == nil {
		return nil, ErrNotFound
	}

	if _, err := s.authorizeSession(ctx, actor, message.SessionID, true); err != nil {
		return nil, err
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, fmt.Errorf("%w: answer text is empty", ErrValidation)
	}

	answered, err := s.messageRepo.MarkAnswered(ctx, messageID, answer, actor.ID)
	if err != nil {
		return nil, err
	}
	if !answered {
		return nil, fmt.Errorf("%w: message is already answered", ErrValidation)
	}

	message, err = s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}

	s.broadcaster.Publish(message.SessionID, broadcast.NewEvent(broadcast.EventMessageAnswered, map[string]any{
		"message_id":  message.ID,
		"answer":      message.Answer,
		"answered_by": actor.ID,
	}).Exclude(broadcast.StaffClientID(actor.ID)))

	s.logger.Info("Message answered",
		zap.Int64("message_id", messageID),
		zap.Int64("actor_id", actor.ID),
	)

	return message, nil
}

// List возвращает ленту сообщений занятия
func (s *MessageService) List(ctx context.Context, actor model.Actor, sessionID int64) ([]*model.SessionMessage, error) {
	if _, err := s.authorizeSession(ctx, actor, sessionID, false); err != nil {
		return nil, err
	}

	return s.messageRepo.ListBySession(ctx, sessionID)
}

// resolveAuthor повторяет логику выбора ребёнка при входе и дополнительно
// проверяет покупку
func (s *MessageService) resolveAuthor(ctx context.Context, actor model.Actor, childID, sessionID int64) (int64, error) {
	if actor.IsStaff() {
		return 0, fmt.Errorf("%w: staff posts answers, not messages", ErrValidation)
	}

	children, err := s.childRepo.GetByParentID(ctx, actor.ID)
	if err != nil {
		return 0, fmt.Errorf("get children: %w", err)
	}
	if len(children) == 0 {
		return 0, fmt.Errorf("%w: no children registered", ErrAccessDenied)
	}

	resolved := childID
	if resolved == 0 {
		if len(children) != 1 {
			return 0, ErrChildSelectionRequired
		}
		resolved = children[0].ID
	} else {
		owned := false
		for _, child := range children {
			if child.ID == resolved {
				owned = true
				break
			}
		}
		if !owned {
			return 0, fmt.Errorf("%w: child belongs to another parent", ErrForbidden)
		}
	}

	hasAccess, err := s.access.HasAccess(ctx, resolved, sessionID)
	if err != nil {
		return 0, err
	}
	if !hasAccess {
		return 0, fmt.Errorf("%w: no purchase covers this session", ErrAccessDenied)
	}

	return resolved, nil
}
