package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/eduline/liveclass/internal/model"
	"github.com/golang-jwt/jwt/v4"
)

const tokenTTL = 72 * time.Hour

// TokenManager выпускает и разбирает JWT-токены платформы (HS256)
type TokenManager struct {
	secret []byte
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// Generate выпускает токен платформы для пользователя
func (m *TokenManager) Generate(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":         user.ID,
		"role":            string(user.Role),
		"organization_id": user.OrganizationID,
		"exp":             time.Now().Add(tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse разбирает токен платформы и возвращает идентичность вызывающего
func (m *TokenManager) Parse(tokenString string) (model.Actor, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return model.Actor{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return model.Actor{}, fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return model.Actor{}, fmt.Errorf("invalid user_id claim")
	}

	role, ok := claims["role"].(string)
	if !ok || !model.ValidRole(role) {
		return model.Actor{}, fmt.Errorf("invalid role claim")
	}

	orgID, ok := claims["organization_id"].(float64)
	if !ok {
		return model.Actor{}, fmt.Errorf("invalid organization_id claim")
	}

	return model.Actor{
		ID:             int64(userID),
		OrganizationID: int64(orgID),
		Role:           model.Role(role),
	}, nil
}
