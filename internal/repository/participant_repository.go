package repository

import (
	"context"
	"fmt"

	"github.com/eduline/liveclass/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const participantColumns = `
	id, session_id, child_id, status, connection_status,
	hand_raised, hand_raised_at, joined_at, left_at
`

type ParticipantRepository struct {
	pool *pgxpool.Pool
}

func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

// scanParticipant сканирует одну строку участника
func scanParticipant(row pgx.Row) (*model.Participant, error) {
	var p model.Participant
	err := row.Scan(
		&p.ID,
		&p.SessionID,
		&p.ChildID,
		&p.Status,
		&p.ConnectionStatus,
		&p.HandRaised,
		&p.HandRaisedAt,
		&p.JoinedAt,
		&p.LeftAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert атомарно создаёт или реактивирует участие ребёнка в занятии.
// Уникальный индекс по (session_id, child_id) гарантирует одну запись на пару
// даже при параллельных входах.
func (r *ParticipantRepository) Upsert(ctx context.Context, sessionID, childID int64) (*model.Participant, error) {
	query := `
		INSERT INTO session_participants (session_id, child_id, status, connection_status, joined_at)
		VALUES ($1, $2, 'joined', 'connected', now())
		ON CONFLICT (session_id, child_id) DO UPDATE
		SET status = 'joined', connection_status = 'connected',
		    joined_at = now(), left_at = NULL
		RETURNING ` + participantColumns

	p, err := scanParticipant(r.pool.QueryRow(ctx, query, sessionID, childID))
	if err != nil {
		return nil, fmt.Errorf("upsert participant: %w", err)
	}

	return p, nil
}

// GetByID получает участника по ID
func (r *ParticipantRepository) GetByID(ctx context.Context, id int64) (*model.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM session_participants WHERE id = $1`

	p, err := scanParticipant(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get participant by id: %w", err)
	}

	return p, nil
}

// GetBySessionAndChild получает участие ребёнка в занятии
func (r *ParticipantRepository) GetBySessionAndChild(ctx context.Context, sessionID, childID int64) (*model.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM session_participants
		WHERE session_id = $1 AND child_id = $2
	`

	p, err := scanParticipant(r.pool.QueryRow(ctx, query, sessionID, childID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}

	return p, nil
}

// ListBySession получает всех участников занятия с именами детей
func (r *ParticipantRepository) ListBySession(ctx context.Context, sessionID int64) ([]*model.Participant, error) {
	query := `
		SELECT p.id, p.session_id, p.child_id, p.status, p.connection_status,
		       p.hand_raised, p.hand_raised_at, p.joined_at, p.left_at,
		       c.id, c.parent_id, c.name, c.created_at
		FROM session_participants p
		JOIN children c ON c.id = p.child_id
		WHERE p.session_id = $1
		ORDER BY p.joined_at
	`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []*model.Participant
	for rows.Next() {
		var p model.Participant
		var c model.Child
		err := rows.Scan(
			&p.ID,
			&p.SessionID,
			&p.ChildID,
			&p.Status,
			&p.ConnectionStatus,
			&p.HandRaised,
			&p.HandRaisedAt,
			&p.JoinedAt,
			&p.LeftAt,
			&c.ID,
			&c.ParentID,
			&c.Name,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		p.Child = &c
		participants = append(participants, &p)
	}

	return participants, nil
}

// ListActiveBySession получает участников со статусом joined
func (r *ParticipantRepository) ListActiveBySession(ctx context.Context, sessionID int64) ([]*model.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM session_participants
		WHERE session_id = $1 AND status = 'joined'
		ORDER BY joined_at
	`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list active participants: %w", err)
	}
	defer rows.Close()

	var participants []*model.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	return participants, nil
}

// MarkLeft отмечает выход участника. Возвращает false, если записи нет —
// выход идемпотентен и это не ошибка.
func (r *ParticipantRepository) MarkLeft(ctx context.Context, sessionID, childID int64) (bool, error) {
	query := `
		UPDATE session_participants
		SET status = 'left', connection_status = 'disconnected', left_at = now()
		WHERE session_id = $1 AND child_id = $2 AND status = 'joined'
	`

	result, err := r.pool.Exec(ctx, query, sessionID, childID)
	if err != nil {
		return false, fmt.Errorf("mark participant left: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// MarkKicked отмечает исключение участника учителем. Запись остаётся в
// таблице как история.
func (r *ParticipantRepository) MarkKicked(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE session_participants
		SET status = 'kicked', connection_status = 'disconnected', left_at = now()
		WHERE id = $1 AND status = 'joined'
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("mark participant kicked: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// SetHandRaised поднимает или опускает руку; при опускании сбрасывает время
func (r *ParticipantRepository) SetHandRaised(ctx context.Context, sessionID, childID int64, raised bool) (bool, error) {
	query := `
		UPDATE session_participants
		SET hand_raised = $3,
		    hand_raised_at = CASE WHEN $3 THEN now() ELSE NULL END
		WHERE session_id = $1 AND child_id = $2 AND status = 'joined'
	`

	result, err := r.pool.Exec(ctx, query, sessionID, childID, raised)
	if err != nil {
		return false, fmt.Errorf("set hand raised: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// LowerHandByID опускает руку участника по его id (действие учителя)
func (r *ParticipantRepository) LowerHandByID(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE session_participants
		SET hand_raised = FALSE, hand_raised_at = NULL
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("lower hand: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// SetConnectionStatus обновляет статус соединения (websocket-хаб)
func (r *ParticipantRepository) SetConnectionStatus(ctx context.Context, sessionID, childID int64, status model.ConnectionStatus) error {
	query := `
		UPDATE session_participants
		SET connection_status = $3
		WHERE session_id = $1 AND child_id = $2 AND status = 'joined'
	`

	_, err := r.pool.Exec(ctx, query, sessionID, childID, status)
	if err != nil {
		return fmt.Errorf("set connection status: %w", err)
	}

	return nil
}
