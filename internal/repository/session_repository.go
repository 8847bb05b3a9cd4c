package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/eduline/liveclass/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionColumns = `
	id, organization_id, teacher_id, lesson_id, course_id,
	scheduled_start_time, actual_start_time, end_time, status,
	current_slide_id, navigation_locked, pacing_mode,
	audio_enabled, video_enabled, whiteboard_enabled,
	allow_student_questions, record_session, created_at, updated_at
`

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// scanSession сканирует одну строку занятия
func scanSession(row pgx.Row) (*model.LiveSession, error) {
	var s model.LiveSession
	err := row.Scan(
		&s.ID,
		&s.OrganizationID,
		&s.TeacherID,
		&s.LessonID,
		&s.CourseID,
		&s.ScheduledStartTime,
		&s.ActualStartTime,
		&s.EndTime,
		&s.Status,
		&s.CurrentSlideID,
		&s.NavigationLocked,
		&s.PacingMode,
		&s.AudioEnabled,
		&s.VideoEnabled,
		&s.WhiteboardEnabled,
		&s.AllowStudentQuestions,
		&s.RecordSession,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create создаёт новое занятие
func (r *SessionRepository) Create(ctx context.Context, s *model.LiveSession) error {
	query := `
		INSERT INTO live_sessions (
			organization_id, teacher_id, lesson_id, course_id,
			scheduled_start_time, actual_start_time, status,
			pacing_mode, audio_enabled, video_enabled, whiteboard_enabled,
			allow_student_questions, record_session
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		s.OrganizationID,
		s.TeacherID,
		s.LessonID,
		s.CourseID,
		s.ScheduledStartTime,
		s.ActualStartTime,
		s.Status,
		s.PacingMode,
		s.AudioEnabled,
		s.VideoEnabled,
		s.WhiteboardEnabled,
		s.AllowStudentQuestions,
		s.RecordSession,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetByID получает занятие по ID
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*model.LiveSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM live_sessions WHERE id = $1`

	s, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by id: %w", err)
	}

	return s, nil
}

// ListByOrganization получает занятия организации
func (r *SessionRepository) ListByOrganization(ctx context.Context, orgID int64) ([]*model.LiveSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM live_sessions
		WHERE organization_id = $1
		ORDER BY scheduled_start_time DESC
	`

	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list sessions by organization: %w", err)
	}
	defer rows.Close()

	var sessions []*model.LiveSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, nil
}

// Update обновляет редактируемые поля занятия
func (r *SessionRepository) Update(ctx context.Context, s *model.LiveSession) error {
	query := `
		UPDATE live_sessions
		SET lesson_id = $2, course_id = $3, scheduled_start_time = $4,
		    pacing_mode = $5, audio_enabled = $6, video_enabled = $7,
		    whiteboard_enabled = $8, allow_student_questions = $9,
		    record_session = $10, updated_at = now()
		WHERE id = $1
	`

	result, err := r.pool.Exec(
		ctx, query,
		s.ID,
		s.LessonID,
		s.CourseID,
		s.ScheduledStartTime,
		s.PacingMode,
		s.AudioEnabled,
		s.VideoEnabled,
		s.WhiteboardEnabled,
		s.AllowStudentQuestions,
		s.RecordSession,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found")
	}

	return nil
}

// MarkStarted атомарно переводит занятие scheduled → live.
// Возвращает false, если занятие не в статусе scheduled.
func (r *SessionRepository) MarkStarted(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE live_sessions
		SET status = 'live', actual_start_time = now(), updated_at = now()
		WHERE id = $1 AND status = 'scheduled'
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("mark session started: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// ChangeStatus атомарно меняет статус занятия, если оно ещё не терминально.
// Для ended/cancelled проставляет end_time.
func (r *SessionRepository) ChangeStatus(ctx context.Context, id int64, target model.SessionStatus) (bool, error) {
	query := `
		UPDATE live_sessions
		SET status = $2,
		    end_time = CASE WHEN $2 IN ('ended', 'cancelled') THEN now() ELSE end_time END,
		    updated_at = now()
		WHERE id = $1 AND status NOT IN ('ended', 'cancelled')
	`

	result, err := r.pool.Exec(ctx, query, id, target)
	if err != nil {
		return false, fmt.Errorf("change session status: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// SetCurrentSlide сохраняет текущий слайд; только пока занятие не терминально
func (r *SessionRepository) SetCurrentSlide(ctx context.Context, id, slideID int64) (bool, error) {
	query := `
		UPDATE live_sessions
		SET current_slide_id = $2, updated_at = now()
		WHERE id = $1 AND status NOT IN ('ended', 'cancelled')
	`

	result, err := r.pool.Exec(ctx, query, id, slideID)
	if err != nil {
		return false, fmt.Errorf("set current slide: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// SetNavigationLock сохраняет флаг блокировки навигации
func (r *SessionRepository) SetNavigationLock(ctx context.Context, id int64, locked bool) error {
	query := `
		UPDATE live_sessions
		SET navigation_locked = $2, updated_at = now()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, locked)
	if err != nil {
		return fmt.Errorf("set navigation lock: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found")
	}

	return nil
}

// Delete удаляет занятие
func (r *SessionRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM live_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found")
	}

	return nil
}

// EndStale завершает живые занятия с плановым стартом раньше cutoff
func (r *SessionRepository) EndStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE live_sessions
		SET status = 'ended', end_time = now(), updated_at = now()
		WHERE status = 'live' AND scheduled_start_time < $1
	`

	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("end stale sessions: %w", err)
	}

	return result.RowsAffected(), nil
}
