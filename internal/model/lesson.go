package model

import "time"

// Lesson представляет урок, по которому проводится занятие
type Lesson struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organization_id"`
	CourseID       *int64    `json:"course_id,omitempty"`
	Title          string    `json:"title"`
	CreatedAt      time.Time `json:"created_at"`
}

// LessonSlide представляет слайд урока
type LessonSlide struct {
	ID       int64 `json:"id"`
	LessonID int64 `json:"lesson_id"`
	Position int   `json:"position"`
}
