package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/englify/englify-api/internal/models"
	appErrors "github.com/englify/englify-api/pkg/errors"
)

type lessonRepository interface {
	List(ctx context.Context) ([]models.Lesson, error)
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
}

type lessonMaterialRepository interface {
	ListByLesson(ctx context.Context, lessonID string) ([]models.Material, error)
}

// LessonService exposes the read-only lesson surface.
type LessonService struct {
	lessons   lessonRepository
	materials lessonMaterialRepository
	logger    *zap.Logger
}

// NewLessonService constructs a LessonService instance.
func NewLessonService(lessons lessonRepository, materials lessonMaterialRepository, logger *zap.Logger) *LessonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{lessons: lessons, materials: materials, logger: logger}
}

// List returns all lessons in display order.
func (s *LessonService) List(ctx context.Context) ([]models.Lesson, error) {
	lessons, err := s.lessons.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	return lessons, nil
}

// Get returns a lesson with its attached materials.
func (s *LessonService) Get(ctx context.Context, id string) (*models.LessonDetail, error) {
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}

	materials, err := s.materials.ListByLesson(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson materials")
	}

	return &models.LessonDetail{
		Lesson:    *lesson,
		Materials: materials,
	}, nil
}
