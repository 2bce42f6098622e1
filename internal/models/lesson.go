package models

import "time"

// Lesson belongs to exactly one course and carries a display order.
type Lesson struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Order       int       `db:"sort_order" json:"order"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// LessonDetail embeds the lesson's materials.
type LessonDetail struct {
	Lesson
	Materials []Material `json:"materials"`
}
