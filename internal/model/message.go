package model

import "time"

type MessageType string

const (
	MessageTypeQuestion MessageType = "question"
	MessageTypeComment  MessageType = "comment"
)

// SessionMessage представляет вопрос или комментарий участника в занятии
type SessionMessage struct {
	ID         int64       `json:"id"`
	SessionID  int64       `json:"session_id"`
	ChildID    int64       `json:"child_id"`
	Text       string      `json:"text"`
	Type       MessageType `json:"type"`
	IsAnswered bool        `json:"is_answered"`
	Answer     string      `json:"answer"`
	AnsweredBy *int64      `json:"answered_by"`
	AnsweredAt *time.Time  `json:"answered_at"`
	CreatedAt  time.Time   `json:"created_at"`
}

// ValidMessageType проверяет, что строка является допустимым типом сообщения
func ValidMessageType(t string) bool {
	return MessageType(t) == MessageTypeQuestion || MessageType(t) == MessageTypeComment
}
