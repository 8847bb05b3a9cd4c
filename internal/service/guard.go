package service

import (
	"context"
	"fmt"

	"github.com/eduline/liveclass/internal/model"
)

// sessionGuard — общая двухступенчатая проверка доступа к занятию.
// Встраивается в сервисы, работающие с занятиями.
type sessionGuard struct {
	sessions SessionRepository
}

// authorizeSession применяет проверки в строгом порядке:
//  1. scope организации: не суперадмин видит только занятия своей
//     организации; несовпадение маскируется под ErrNotFound;
//  2. scope роли (только для учительских действий): суперадмин, админ
//     или учитель самого занятия; иначе ErrForbidden.
func (g sessionGuard) authorizeSession(ctx context.Context, actor model.Actor, sessionID int64, teacherOnly bool) (*model.LiveSession, error) {
	if actor.ID == 0 {
		return nil, ErrUnauthenticated
	}

	session, err := g.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session == nil {
		return nil, ErrNotFound
	}

	if !actor.IsSuperAdmin() && actor.OrganizationID != session.OrganizationID {
		return nil, ErrNotFound
	}

	if teacherOnly {
		allowed := actor.Role == model.RoleSuperAdmin ||
			actor.Role == model.RoleAdmin ||
			(actor.Role == model.RoleTeacher && session.TeacherID == actor.ID)
		if !allowed {
			return nil, ErrForbidden
		}
	}

	return session, nil
}
