package repository

import (
	"context"
	"fmt"

	"github.com/eduline/liveclass/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccessGrantRepository struct {
	pool *pgxpool.Pool
}

func NewAccessGrantRepository(pool *pgxpool.Pool) *AccessGrantRepository {
	return &AccessGrantRepository{pool: pool}
}

// GetUsableByChild получает оплаченные и не отозванные гранты ребёнка.
// Гранты пишет биллинг; здесь таблица только читается.
func (r *AccessGrantRepository) GetUsableByChild(ctx context.Context, childID int64) ([]*model.AccessGrant, error) {
	query := `
		SELECT id, child_id, kind, source_id, source_name,
		       payment_status, access, lesson_id, lesson_ids, metadata, created_at
		FROM access_grants
		WHERE child_id = $1 AND access = TRUE AND payment_status = 'paid'
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, childID)
	if err != nil {
		return nil, fmt.Errorf("get grants by child: %w", err)
	}
	defer rows.Close()

	var grants []*model.AccessGrant
	for rows.Next() {
		var g model.AccessGrant
		err := rows.Scan(
			&g.ID,
			&g.ChildID,
			&g.Kind,
			&g.SourceID,
			&g.SourceName,
			&g.PaymentStatus,
			&g.Access,
			&g.LessonID,
			&g.LessonIDs,
			&g.Metadata,
			&g.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, &g)
	}

	return grants, nil
}
