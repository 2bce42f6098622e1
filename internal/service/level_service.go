package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/englify/englify-api/internal/dto"
	"github.com/englify/englify-api/internal/models"
	appErrors "github.com/englify/englify-api/pkg/errors"
)

type levelRepository interface {
	List(ctx context.Context, filter models.LevelFilter) ([]models.Level, error)
	FindByID(ctx context.Context, id string) (*models.Level, error)
	ExistsByNumber(ctx context.Context, courseID string, levelNumber int, excludeID string) (bool, error)
	Create(ctx context.Context, level *models.Level) error
	Update(ctx context.Context, level *models.Level) error
	Delete(ctx context.Context, id string) error
}

type levelCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type levelMaterialRepository interface {
	ListByLevel(ctx context.Context, levelID string) ([]models.Material, error)
}

// LevelService implements level use cases within courses.
type LevelService struct {
	levels    levelRepository
	courses   levelCourseRepository
	materials levelMaterialRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLevelService constructs a LevelService instance.
func NewLevelService(levels levelRepository, courses levelCourseRepository, materials levelMaterialRepository, validate *validator.Validate, logger *zap.Logger) *LevelService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LevelService{levels: levels, courses: courses, materials: materials, validator: validate, logger: logger}
}

// List returns levels, optionally filtered by owning course.
func (s *LevelService) List(ctx context.Context, filter models.LevelFilter) ([]models.Level, error) {
	levels, err := s.levels.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list levels")
	}
	return levels, nil
}

// Get returns a level with its attached materials.
func (s *LevelService) Get(ctx context.Context, id string) (*models.LevelDetail, error) {
	level, err := s.levels.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "level not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load level")
	}

	materials, err := s.materials.ListByLevel(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load level materials")
	}

	return &models.LevelDetail{
		Level:          *level,
		Materials:      materials,
		MaterialsCount: len(materials),
	}, nil
}

// Create inserts a level after verifying the owning course exists and the
// level number is free within it.
func (s *LevelService) Create(ctx context.Context, req dto.CreateLevelRequest) (*models.Level, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid level payload")
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "course does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	taken, err := s.levels.ExistsByNumber(ctx, req.CourseID, req.LevelNumber, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check level number")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "level number already used in this course")
	}

	level := &models.Level{
		CourseID:    req.CourseID,
		Title:       req.Title,
		Description: req.Description,
		LevelNumber: req.LevelNumber,
		Order:       req.Order,
	}
	if err := s.levels.Create(ctx, level); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create level")
	}

	s.logger.Info("level created",
		zap.String("level_id", level.ID),
		zap.String("course_id", level.CourseID),
		zap.Int("level_number", level.LevelNumber),
	)
	return level, nil
}

// Update applies a partial update to a level, re-checking the level-number
// uniqueness when it changes.
func (s *LevelService) Update(ctx context.Context, id string, req dto.UpdateLevelRequest) (*models.Level, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid level payload")
	}

	level, err := s.levels.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "level not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load level")
	}

	if req.LevelNumber != nil && *req.LevelNumber != level.LevelNumber {
		taken, err := s.levels.ExistsByNumber(ctx, level.CourseID, *req.LevelNumber, level.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check level number")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "level number already used in this course")
		}
		level.LevelNumber = *req.LevelNumber
	}
	if req.Title != nil {
		level.Title = *req.Title
	}
	if req.Description != nil {
		level.Description = *req.Description
	}
	if req.Order != nil {
		level.Order = *req.Order
	}

	if err := s.levels.Update(ctx, level); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update level")
	}
	return level, nil
}

// Delete removes a level.
func (s *LevelService) Delete(ctx context.Context, id string) error {
	if err := s.levels.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "level not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete level")
	}
	s.logger.Info("level deleted", zap.String("level_id", id))
	return nil
}
