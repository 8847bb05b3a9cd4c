package model

import "time"

type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled" // Запланирована
	SessionStatusLive      SessionStatus = "live"      // Идёт прямо сейчас
	SessionStatusPaused    SessionStatus = "paused"    // Приостановлена учителем
	SessionStatusEnded     SessionStatus = "ended"     // Завершена
	SessionStatusCancelled SessionStatus = "cancelled" // Отменена
)

type PacingMode string

const (
	PacingModeTeacher PacingMode = "teacher" // Учитель листает слайды за всех
	PacingModeFree    PacingMode = "free"    // Ученики листают сами
)

// LiveSession представляет живое занятие по уроку
type LiveSession struct {
	ID                 int64      `json:"id"`
	OrganizationID     int64      `json:"organization_id"`
	TeacherID          int64      `json:"teacher_id"`
	LessonID           int64      `json:"lesson_id"`
	CourseID           *int64     `json:"course_id,omitempty"`
	ScheduledStartTime time.Time  `json:"scheduled_start_time"`
	ActualStartTime    *time.Time `json:"actual_start_time"`
	EndTime            *time.Time `json:"end_time"`

	Status SessionStatus `json:"status"`

	// Пейсинг
	CurrentSlideID   *int64     `json:"current_slide_id"`
	NavigationLocked bool       `json:"navigation_locked"`
	PacingMode       PacingMode `json:"pacing_mode"`

	// Возможности комнаты
	AudioEnabled          bool `json:"audio_enabled"`
	VideoEnabled          bool `json:"video_enabled"`
	WhiteboardEnabled     bool `json:"whiteboard_enabled"`
	AllowStudentQuestions bool `json:"allow_student_questions"`
	RecordSession         bool `json:"record_session"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal проверяет, находится ли занятие в терминальном статусе
func (s *LiveSession) IsTerminal() bool {
	return s.Status == SessionStatusEnded || s.Status == SessionStatusCancelled
}

// IsLive проверяет, идёт ли занятие прямо сейчас
func (s *LiveSession) IsLive() bool {
	return s.Status == SessionStatusLive
}

// CanStart проверяет, можно ли запустить занятие
func (s *LiveSession) CanStart() bool {
	return s.Status == SessionStatusScheduled
}

// CanEdit проверяет, можно ли редактировать занятие.
// Идущее или завершённое занятие менять нельзя; отменённое — можно.
func (s *LiveSession) CanEdit() bool {
	return s.Status != SessionStatusLive && s.Status != SessionStatusEnded
}

// CanDelete проверяет, можно ли удалить занятие
func (s *LiveSession) CanDelete() bool {
	return s.Status != SessionStatusLive
}

// CanTransitionTo проверяет переход по строгой схеме конечного автомата:
// scheduled → live → {paused, ended, cancelled}; paused → {live, ended, cancelled}.
// Сейчас ChangeState применяет только терминальную проверку (наблюдаемое
// поведение), строгая схема остаётся доступной для включения.
func (s *LiveSession) CanTransitionTo(target SessionStatus) bool {
	switch s.Status {
	case SessionStatusScheduled:
		return target == SessionStatusLive || target == SessionStatusCancelled
	case SessionStatusLive:
		return target == SessionStatusPaused || target == SessionStatusEnded || target == SessionStatusCancelled
	case SessionStatusPaused:
		return target == SessionStatusLive || target == SessionStatusEnded || target == SessionStatusCancelled
	default:
		return false
	}
}

// ValidSessionStatus проверяет, что строка является допустимым статусом
func ValidSessionStatus(s string) bool {
	switch SessionStatus(s) {
	case SessionStatusScheduled, SessionStatusLive, SessionStatusPaused, SessionStatusEnded, SessionStatusCancelled:
		return true
	}
	return false
}
