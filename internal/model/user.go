package model

import "time"

type Role string

const (
	RoleGuestParent Role = "guest_parent"
	RoleParent      Role = "parent"
	RoleTeacher     Role = "teacher"
	RoleAdmin       Role = "admin"
	RoleSuperAdmin  Role = "super_admin"
)

// User представляет учётную запись платформы (родитель, учитель, админ)
type User struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organization_id"`
	Role           Role      `json:"role"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	CreatedAt      time.Time `json:"created_at"`
}

// Actor — идентичность вызывающего, извлечённая из JWT-токена запроса
type Actor struct {
	ID             int64 `json:"id"`
	OrganizationID int64 `json:"organization_id"`
	Role           Role  `json:"role"`
}

// IsSuperAdmin проверяет, является ли вызывающий суперадмином
func (a Actor) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}

// IsStaff проверяет, является ли вызывающий сотрудником организации
// (учитель, админ или суперадмин). Сотрудники заходят в занятие без
// проверки покупок.
func (a Actor) IsStaff() bool {
	return a.Role == RoleTeacher || a.Role == RoleAdmin || a.Role == RoleSuperAdmin
}

// ValidRole проверяет, что строка является допустимой ролью
func ValidRole(r string) bool {
	switch Role(r) {
	case RoleGuestParent, RoleParent, RoleTeacher, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Child представляет ребёнка, привязанного к родителю
type Child struct {
	ID        int64     `json:"id"`
	ParentID  int64     `json:"parent_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
