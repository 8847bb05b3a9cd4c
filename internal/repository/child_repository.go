package repository

import (
	"context"
	"fmt"

	"github.com/eduline/liveclass/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChildRepository struct {
	pool *pgxpool.Pool
}

func NewChildRepository(pool *pgxpool.Pool) *ChildRepository {
	return &ChildRepository{pool: pool}
}

// GetByID получает ребёнка по ID
func (r *ChildRepository) GetByID(ctx context.Context, id int64) (*model.Child, error) {
	query := `SELECT id, parent_id, name, created_at FROM children WHERE id = $1`

	var c model.Child
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.ParentID, &c.Name, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get child by id: %w", err)
	}

	return &c, nil
}

// GetByParentID получает всех детей родителя
func (r *ChildRepository) GetByParentID(ctx context.Context, parentID int64) ([]*model.Child, error) {
	query := `
		SELECT id, parent_id, name, created_at
		FROM children
		WHERE parent_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("get children by parent: %w", err)
	}
	defer rows.Close()

	var children []*model.Child
	for rows.Next() {
		var c model.Child
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		children = append(children, &c)
	}

	return children, nil
}
