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

const levelColumns = `id, course_id, title, description, level_number, sort_order, created_at`

// LevelRepository provides database access for course levels.
type LevelRepository struct {
	db *sqlx.DB
}

// NewLevelRepository creates a new instance of LevelRepository.
func NewLevelRepository(db *sqlx.DB) *LevelRepository {
	return &LevelRepository{db: db}
}

// List returns levels, optionally filtered by course, ordered by level
// number then display order.
func (r *LevelRepository) List(ctx context.Context, filter models.LevelFilter) ([]models.Level, error) {
	query := `SELECT ` + levelColumns + ` FROM levels`
	var args []interface{}
	if filter.CourseID != "" {
		query += ` WHERE course_id = $1`
		args = append(args, filter.CourseID)
	}
	query += ` ORDER BY level_number, sort_order`

	levels := []models.Level{}
	if err := r.db.SelectContext(ctx, &levels, query, args...); err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	return levels, nil
}

// FindByID returns a level by identifier.
func (r *LevelRepository) FindByID(ctx context.Context, id string) (*models.Level, error) {
	query := `SELECT ` + levelColumns + ` FROM levels WHERE id = $1 LIMIT 1`
	var level models.Level
	if err := r.db.GetContext(ctx, &level, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find level by id: %w", err)
	}
	return &level, nil
}

// ExistsByNumber reports whether the course already has a level with this
// number, excluding the given level id when updating.
func (r *LevelRepository) ExistsByNumber(ctx context.Context, courseID string, levelNumber int, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM levels WHERE course_id = $1 AND level_number = $2 AND id <> $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, courseID, levelNumber, excludeID); err != nil {
		return false, fmt.Errorf("check level number exists: %w", err)
	}
	return exists, nil
}

// Create inserts a new level.
func (r *LevelRepository) Create(ctx context.Context, level *models.Level) error {
	if level.ID == "" {
		level.ID = uuid.NewString()
	}
	if level.CreatedAt.IsZero() {
		level.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO levels (id, course_id, title, description, level_number, sort_order, created_at)
		VALUES (:id, :course_id, :title, :description, :level_number, :sort_order, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, level); err != nil {
		return fmt.Errorf("create level: %w", err)
	}
	return nil
}

// Update updates mutable fields of a level.
func (r *LevelRepository) Update(ctx context.Context, level *models.Level) error {
	const query = `UPDATE levels SET title = :title, description = :description, level_number = :level_number, sort_order = :sort_order WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, level); err != nil {
		return fmt.Errorf("update level: %w", err)
	}
	return nil
}

// Delete removes a level; its materials keep their rows with a nullified
// level reference.
func (r *LevelRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM levels WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete level: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
