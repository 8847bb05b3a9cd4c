package model

import "time"

// Статусы оплаты гранта
const (
	PaymentStatusPaid    = "paid"
	PaymentStatusPending = "pending"
	PaymentStatusFailed  = "failed"
)

type GrantKind string

const (
	GrantKindCourse  GrantKind = "course"  // Покупка курса целиком
	GrantKindService GrantKind = "service" // Разовая услуга / пакет занятий
)

// metadataSessionIDsKey — ключ в metadata, под которым исторически лежит
// список id занятий, купленных "гибким выбором".
const metadataSessionIDsKey = "live_lesson_session_ids"

// AccessGrant представляет купленный доступ ребёнка к занятиям.
// Занятия, которые покрывает грант, исторически закодированы тремя способами:
// скалярный lesson_id, массив lesson_ids и список в metadata. При чтении
// всё это нормализуется в одно множество, см. CoversSession.
type AccessGrant struct {
	ID            int64          `json:"id"`
	ChildID       int64          `json:"child_id"`
	Kind          GrantKind      `json:"kind"`
	SourceID      int64          `json:"source_id"`
	SourceName    string         `json:"source_name"`
	PaymentStatus string         `json:"payment_status"`
	Access        bool           `json:"access"`
	LessonID      *int64         `json:"lesson_id"`
	LessonIDs     []int64        `json:"lesson_ids"`
	Metadata      map[string]any `json:"metadata"`
	CreatedAt     time.Time      `json:"created_at"`

	// Нормализованное множество покрытых id, строится один раз
	covered map[int64]struct{}
}

// IsUsable проверяет, что грант оплачен и доступ не отозван
func (g *AccessGrant) IsUsable() bool {
	return g.Access && g.PaymentStatus == PaymentStatusPaid
}

// CoversSession проверяет, покрывает ли грант занятие с данным id.
// Единственная точка, где три legacy-кодировки сведены вместе.
func (g *AccessGrant) CoversSession(sessionID int64) bool {
	if g.covered == nil {
		g.covered = g.buildCoveredSet()
	}
	_, ok := g.covered[sessionID]
	return ok
}

// buildCoveredSet собирает множество покрытых id из всех трёх кодировок
func (g *AccessGrant) buildCoveredSet() map[int64]struct{} {
	covered := make(map[int64]struct{}, len(g.LessonIDs)+1)

	if g.LessonID != nil {
		covered[*g.LessonID] = struct{}{}
	}

	for _, id := range g.LessonIDs {
		covered[id] = struct{}{}
	}

	// metadata приходит из jsonb: числа декодируются как float64,
	// но при ручном конструировании могут быть и int/int64
	if raw, ok := g.Metadata[metadataSessionIDsKey]; ok {
		if list, ok := raw.([]any); ok {
			for _, v := range list {
				switch n := v.(type) {
				case float64:
					covered[int64(n)] = struct{}{}
				case int64:
					covered[n] = struct{}{}
				case int:
					covered[int64(n)] = struct{}{}
				}
			}
		}
	}

	return covered
}

// PurchaseSource описывает, откуда у ребёнка доступ к занятию.
// Используется только для отображения, не для авторизации.
type PurchaseSource struct {
	Kind GrantKind `json:"kind"`
	ID   int64     `json:"id"`
	Name string    `json:"name"`
}
