package repository

import (
	"context"
	"fmt"

	"github.com/eduline/liveclass/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const messageColumns = `
	id, session_id, child_id, text, type,
	is_answered, answer, answered_by, answered_at, created_at
`

type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// scanMessage сканирует одну строку сообщения
func scanMessage(row pgx.Row) (*model.SessionMessage, error) {
	var m model.SessionMessage
	err := row.Scan(
		&m.ID,
		&m.SessionID,
		&m.ChildID,
		&m.Text,
		&m.Type,
		&m.IsAnswered,
		&m.Answer,
		&m.AnsweredBy,
		&m.AnsweredAt,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create создаёт новое сообщение
func (r *MessageRepository) Create(ctx context.Context, m *model.SessionMessage) error {
	query := `
		INSERT INTO session_messages (session_id, child_id, text, type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, m.SessionID, m.ChildID, m.Text, m.Type).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}

	return nil
}

// GetByID получает сообщение по ID
func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*model.SessionMessage, error) {
	query := `SELECT ` + messageColumns + ` FROM session_messages WHERE id = $1`

	m, err := scanMessage(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get message by id: %w", err)
	}

	return m, nil
}

// ListBySession получает все сообщения занятия
func (r *MessageRepository) ListBySession(ctx context.Context, sessionID int64) ([]*model.SessionMessage, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM session_messages
		WHERE session_id = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []*model.SessionMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, nil
}

// MarkAnswered атомарно отмечает сообщение отвеченным. Условие
// is_answered = FALSE гарантирует ровно один переход; повторная попытка
// вернёт false.
func (r *MessageRepository) MarkAnswered(ctx context.Context, id int64, answer string, answeredBy int64) (bool, error) {
	query := `
		UPDATE session_messages
		SET is_answered = TRUE, answer = $2, answered_by = $3, answered_at = now()
		WHERE id = $1 AND is_answered = FALSE
	`

	result, err := r.pool.Exec(ctx, query, id, answer, answeredBy)
	if err != nil {
		return false, fmt.Errorf("mark message answered: %w", err)
	}

	return result.RowsAffected() > 0, nil
}
