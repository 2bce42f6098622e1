package dto

import (
	"github.com/jmoiron/sqlx/types"

	"github.com/englify/englify-api/internal/models"
)

// CreateCourseRequest is the payload for creating a course.
type CreateCourseRequest struct {
	Title           string                  `json:"title" validate:"required,max=200"`
	Description     string                  `json:"description"`
	Thumbnail       *string                 `json:"thumbnail"`
	Difficulty      models.CourseDifficulty `json:"level"`
	TableOfContents types.JSONText          `json:"table_of_contents"`
}

// UpdateCourseRequest carries partial course updates; nil fields are left
// untouched.
type UpdateCourseRequest struct {
	Title           *string                  `json:"title" validate:"omitempty,max=200"`
	Description     *string                  `json:"description"`
	Thumbnail       *string                  `json:"thumbnail"`
	Difficulty      *models.CourseDifficulty `json:"level"`
	TableOfContents types.JSONText           `json:"table_of_contents"`
}

// CreateLevelRequest is the payload for creating a level inside a course.
type CreateLevelRequest struct {
	CourseID    string `json:"course" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	LevelNumber int    `json:"level_number" validate:"required,min=1"`
	Order       int    `json:"order"`
}

// UpdateLevelRequest carries partial level updates.
type UpdateLevelRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description"`
	LevelNumber *int    `json:"level_number" validate:"omitempty,min=1"`
	Order       *int    `json:"order"`
}
