package model

import "time"

type ParticipantStatus string

const (
	ParticipantStatusJoined ParticipantStatus = "joined"
	ParticipantStatusLeft   ParticipantStatus = "left"
	ParticipantStatusKicked ParticipantStatus = "kicked"
)

type ConnectionStatus string

const (
	ConnectionStatusConnected    ConnectionStatus = "connected"
	ConnectionStatusReconnecting ConnectionStatus = "reconnecting"
	ConnectionStatusDisconnected ConnectionStatus = "disconnected"
)

// Participant представляет участие ребёнка в занятии.
// Пара (session_id, child_id) уникальна: повторный вход переиспользует
// ту же запись. Записи никогда не удаляются — это история посещений.
type Participant struct {
	ID               int64             `json:"id"`
	SessionID        int64             `json:"session_id"`
	ChildID          int64             `json:"child_id"`
	Status           ParticipantStatus `json:"status"`
	ConnectionStatus ConnectionStatus  `json:"connection_status"`
	HandRaised       bool              `json:"hand_raised"`
	HandRaisedAt     *time.Time        `json:"hand_raised_at"`
	JoinedAt         time.Time         `json:"joined_at"`
	LeftAt           *time.Time        `json:"left_at"`

	// Заполняется при выдаче списка участников (не из таблицы)
	Child *Child `json:"child,omitempty"`
}

// IsActive проверяет, что участник сейчас в занятии
func (p *Participant) IsActive() bool {
	return p.Status == ParticipantStatusJoined
}

// WasKicked проверяет, был ли участник исключён учителем
func (p *Participant) WasKicked() bool {
	return p.Status == ParticipantStatusKicked
}
