package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// CourseDifficulty is the difficulty tier of a course.
type CourseDifficulty string

const (
	DifficultyBeginner     CourseDifficulty = "beginner"
	DifficultyIntermediate CourseDifficulty = "intermediate"
	DifficultyAdvanced     CourseDifficulty = "advanced"
	DifficultyExpert       CourseDifficulty = "expert"
)

// Valid reports whether the difficulty is a known tier.
func (d CourseDifficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced, DifficultyExpert:
		return true
	}
	return false
}

// Course represents a course row. A course strictly owns its levels and
// lessons; deleting it cascades.
type Course struct {
	ID              string           `db:"id" json:"id"`
	Title           string           `db:"title" json:"title"`
	Description     string           `db:"description" json:"description"`
	Thumbnail       *string          `db:"thumbnail" json:"thumbnail,omitempty"`
	Difficulty      CourseDifficulty `db:"difficulty" json:"level"`
	TableOfContents types.JSONText   `db:"table_of_contents" json:"table_of_contents"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// CourseSummary is the list projection carrying aggregate counts.
type CourseSummary struct {
	ID             string           `db:"id" json:"id"`
	Title          string           `db:"title" json:"title"`
	Description    string           `db:"description" json:"description"`
	Thumbnail      *string          `db:"thumbnail" json:"thumbnail,omitempty"`
	Difficulty     CourseDifficulty `db:"difficulty" json:"level"`
	MaterialsCount int              `db:"materials_count" json:"materials_count"`
	LevelsCount    int              `db:"levels_count" json:"levels_count"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}

// CourseDetail embeds the owned hierarchy for the detail projection.
type CourseDetail struct {
	Course
	Levels    []LevelDetail  `json:"levels"`
	Lessons   []LessonDetail `json:"lessons"`
	Materials []Material     `json:"materials"`
}
