package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/englify/englify-api/internal/models"
)

const lessonColumns = `id, course_id, title, description, sort_order, created_at`

// LessonRepository provides read access for lessons. Lessons are managed
// out of band; the API only exposes them read-only.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository creates a new instance of LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// List returns all lessons ordered by display order then creation time.
func (r *LessonRepository) List(ctx context.Context) ([]models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons ORDER BY sort_order, created_at`
	lessons := []models.Lesson{}
	if err := r.db.SelectContext(ctx, &lessons, query); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// ListByCourse returns the lessons owned by a course.
func (r *LessonRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE course_id = $1 ORDER BY sort_order, created_at`
	lessons := []models.Lesson{}
	if err := r.db.SelectContext(ctx, &lessons, query, courseID); err != nil {
		return nil, fmt.Errorf("list lessons by course: %w", err)
	}
	return lessons, nil
}

// FindByID returns a lesson by identifier.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1 LIMIT 1`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find lesson by id: %w", err)
	}
	return &lesson, nil
}
