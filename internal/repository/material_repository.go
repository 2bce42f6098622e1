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

const materialColumns = `id, course_id, level_id, lesson_id, title, stored_file, file_path, material_type, file_size, duration, sort_order, created_at`

// MaterialRepository provides database access for the material registry.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository creates a new instance of MaterialRepository.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// List returns materials filtered by course and/or level, in display order.
func (r *MaterialRepository) List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE 1=1`
	var args []interface{}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		query += fmt.Sprintf(" AND course_id = $%d", len(args))
	}
	if filter.LevelID != "" {
		args = append(args, filter.LevelID)
		query += fmt.Sprintf(" AND level_id = $%d", len(args))
	}
	query += ` ORDER BY sort_order, created_at`

	materials := []models.Material{}
	if err := r.db.SelectContext(ctx, &materials, query, args...); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return materials, nil
}

// ListByLevel returns the materials attached to a level.
func (r *MaterialRepository) ListByLevel(ctx context.Context, levelID string) ([]models.Material, error) {
	return r.List(ctx, models.MaterialFilter{LevelID: levelID})
}

// ListByLesson returns the materials attached to a lesson.
func (r *MaterialRepository) ListByLesson(ctx context.Context, lessonID string) ([]models.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE lesson_id = $1 ORDER BY sort_order, created_at`
	materials := []models.Material{}
	if err := r.db.SelectContext(ctx, &materials, query, lessonID); err != nil {
		return nil, fmt.Errorf("list materials by lesson: %w", err)
	}
	return materials, nil
}

// FindByID returns a material by identifier.
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*models.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE id = $1 LIMIT 1`
	var material models.Material
	if err := r.db.GetContext(ctx, &material, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find material by id: %w", err)
	}
	return &material, nil
}

// Create inserts a new material.
func (r *MaterialRepository) Create(ctx context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	if material.CreatedAt.IsZero() {
		material.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO materials (id, course_id, level_id, lesson_id, title, stored_file, file_path, material_type, file_size, duration, sort_order, created_at)
		VALUES (:id, :course_id, :level_id, :lesson_id, :title, :stored_file, :file_path, :material_type, :file_size, :duration, :sort_order, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

// InsertScanned registers a scanned file keyed by its relative path. The
// upsert is atomic: a concurrent or repeated scan of the same path inserts
// nothing. Returns true when a row was actually created.
func (r *MaterialRepository) InsertScanned(ctx context.Context, material *models.Material) (bool, error) {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	if material.CreatedAt.IsZero() {
		material.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO materials (id, title, file_path, material_type, file_size, sort_order, created_at)
		VALUES (:id, :title, :file_path, :material_type, :file_size, :sort_order, :created_at)
		ON CONFLICT (file_path) WHERE file_path IS NOT NULL DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, material)
	if err != nil {
		return false, fmt.Errorf("insert scanned material: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert scanned material rows affected: %w", err)
	}
	return affected > 0, nil
}

// Update updates mutable fields of a material. File metadata is written by
// the service after classification, never straight from client input.
func (r *MaterialRepository) Update(ctx context.Context, material *models.Material) error {
	const query = `UPDATE materials SET course_id = :course_id, level_id = :level_id, lesson_id = :lesson_id, title = :title, material_type = :material_type, file_size = :file_size, duration = :duration, sort_order = :sort_order WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	return nil
}

// Delete removes a material row.
func (r *MaterialRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM materials WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
