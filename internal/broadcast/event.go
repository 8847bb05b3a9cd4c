package broadcast

import "github.com/google/uuid"

// Имена событий, уходящих подключённым клиентам занятия
const (
	EventSessionStateChanged = "session.state_changed"
	EventSlideChanged        = "session.slide_changed"
	EventBlockHighlighted    = "session.block_highlighted"
	EventParticipantJoined   = "participant.joined"
	EventParticipantKicked   = "participant.kicked"
	EventParticipantMuted    = "participant.muted"
	EventCameraDisabled      = "participant.camera_disabled"
	EventHandRaised          = "participant.hand_raised"
	EventMessagePosted       = "message.posted"
	EventMessageAnswered     = "message.answered"
)

// Event — событие занятия для рассылки подключённым клиентам.
// ExcludeClientID исключает одного получателя: инициатор применяет своё
// изменение оптимистично и эха не ждёт (а при kick исключается сам
// исключённый). Ключи клиентов: для ребёнка — его id, для сотрудника —
// id пользователя со знаком минус (см. Hub).
type Event struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Payload         map[string]any `json:"payload"`
	ExcludeClientID int64          `json:"-"`
}

// NewEvent создаёт событие с уникальным id
func NewEvent(name string, payload map[string]any) Event {
	return Event{
		ID:      uuid.NewString(),
		Name:    name,
		Payload: payload,
	}
}

// Exclude возвращает копию события, которая не будет доставлена данному клиенту
func (e Event) Exclude(clientID int64) Event {
	e.ExcludeClientID = clientID
	return e
}

// StaffClientID возвращает ключ клиента для сотрудника (учитель, админ).
// Отрицательное значение не пересекается с id детей.
func StaffClientID(userID int64) int64 {
	return -userID
}

// Broadcaster — способность разослать событие клиентам занятия.
// Доставка fire-and-forget, не более одного раза на клиента; сбой доставки
// не влияет на результат мутации и до HTTP-вызывающего не доходит.
type Broadcaster interface {
	Publish(sessionID int64, event Event)
}
