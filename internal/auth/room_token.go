package auth

import (
	"fmt"
	"time"

	"github.com/eduline/liveclass/internal/model"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const roomTokenTTL = 4 * time.Hour

// RoomTokenManager выпускает короткоживущие токены медиа-комнаты.
// Токен описывает комнату занятия, пользователя и его права в ней;
// валидирует его медиа-шлюз, не мы.
type RoomTokenManager struct {
	secret []byte
}

func NewRoomTokenManager(secret string) *RoomTokenManager {
	return &RoomTokenManager{secret: []byte(secret)}
}

// IssueRoomToken выпускает токен комнаты для вызывающего
func (m *RoomTokenManager) IssueRoomToken(session *model.LiveSession, actor model.Actor, permissions []string, metadata map[string]any) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"jti":         uuid.NewString(),
		"room":        fmt.Sprintf("session-%d", session.ID),
		"user_id":     actor.ID,
		"role":        string(actor.Role),
		"permissions": permissions,
		"metadata":    metadata,
		"iat":         now.Unix(),
		"exp":         now.Add(roomTokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}
