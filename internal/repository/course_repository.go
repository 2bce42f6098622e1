package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/englify/englify-api/internal/models"
)

// CourseRepository provides database access for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new instance of CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns the course list projection with aggregate counts, newest
// first.
func (r *CourseRepository) List(ctx context.Context) ([]models.CourseSummary, error) {
	const query = `SELECT c.id, c.title, c.description, c.thumbnail, c.difficulty, c.created_at,
		(SELECT COUNT(*) FROM materials m WHERE m.course_id = c.id) AS materials_count,
		(SELECT COUNT(*) FROM levels l WHERE l.course_id = c.id) AS levels_count
		FROM courses c ORDER BY c.created_at DESC`
	summaries := []models.CourseSummary{}
	if err := r.db.SelectContext(ctx, &summaries, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return summaries, nil
}

// FindByID returns a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, title, description, thumbnail, difficulty, table_of_contents, created_at, updated_at FROM courses WHERE id = $1 LIMIT 1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	return &course, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	if course.TableOfContents == nil {
		course.TableOfContents = []byte(`[]`)
	}

	const query = `INSERT INTO courses (id, title, description, thumbnail, difficulty, table_of_contents, created_at, updated_at)
		VALUES (:id, :title, :description, :thumbnail, :difficulty, :table_of_contents, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update updates mutable fields of a course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET title = :title, description = :description, thumbnail = :thumbnail, difficulty = :difficulty, table_of_contents = :table_of_contents, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete removes a course; levels, lessons and owned materials cascade at
// the database level.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM courses WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
