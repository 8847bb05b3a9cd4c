package repository

import (
	"context"
	"fmt"

	"github.com/eduline/liveclass/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LessonRepository struct {
	pool *pgxpool.Pool
}

func NewLessonRepository(pool *pgxpool.Pool) *LessonRepository {
	return &LessonRepository{pool: pool}
}

// GetByID получает урок по ID
func (r *LessonRepository) GetByID(ctx context.Context, id int64) (*model.Lesson, error) {
	query := `SELECT id, organization_id, course_id, title, created_at FROM lessons WHERE id = $1`

	var l model.Lesson
	err := r.pool.QueryRow(ctx, query, id).Scan(&l.ID, &l.OrganizationID, &l.CourseID, &l.Title, &l.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get lesson by id: %w", err)
	}

	return &l, nil
}

// SlideBelongsToLesson проверяет, что слайд принадлежит уроку
func (r *LessonRepository) SlideBelongsToLesson(ctx context.Context, slideID, lessonID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM lesson_slides WHERE id = $1 AND lesson_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, slideID, lessonID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check slide lesson: %w", err)
	}

	return exists, nil
}
