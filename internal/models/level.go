package models

import "time"

// Level groups materials inside a course. LevelNumber is unique within the
// owning course.
type Level struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	LevelNumber int       `db:"level_number" json:"level_number"`
	Order       int       `db:"sort_order" json:"order"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// LevelDetail embeds the level's materials for detail projections.
type LevelDetail struct {
	Level
	Materials      []Material `json:"materials"`
	MaterialsCount int        `json:"materials_count"`
}

// LevelFilter captures list filters for levels.
type LevelFilter struct {
	CourseID string
}
