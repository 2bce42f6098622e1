package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/englify/englify-api/internal/dto"
	"github.com/englify/englify-api/internal/models"
	appErrors "github.com/englify/englify-api/pkg/errors"
)

const courseListCacheKey = "courses:list"

type courseRepository interface {
	List(ctx context.Context) ([]models.CourseSummary, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type courseLevelRepository interface {
	List(ctx context.Context, filter models.LevelFilter) ([]models.Level, error)
}

type courseLessonRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Lesson, error)
}

type courseMaterialRepository interface {
	List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, error)
	ListByLesson(ctx context.Context, lessonID string) ([]models.Material, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CourseService implements course catalog use cases.
type CourseService struct {
	courses   courseRepository
	levels    courseLevelRepository
	lessons   courseLessonRepository
	materials courseMaterialRepository
	cache     catalogCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService instance.
func NewCourseService(
	courses courseRepository,
	levels courseLevelRepository,
	lessons courseLessonRepository,
	materials courseMaterialRepository,
	cache catalogCache,
	cacheTTL time.Duration,
	validate *validator.Validate,
	logger *zap.Logger,
) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CourseService{
		courses:   courses,
		levels:    levels,
		lessons:   lessons,
		materials: materials,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
	}
}

// List returns all courses with aggregate counts, served from cache when
// fresh.
func (s *CourseService) List(ctx context.Context) ([]models.CourseSummary, error) {
	var cached []models.CourseSummary
	if err := s.cache.Get(ctx, courseListCacheKey, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("course list cache read failed", zap.Error(err))
	}

	summaries, err := s.courses.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	if err := s.cache.Set(ctx, courseListCacheKey, summaries, s.cacheTTL); err != nil {
		s.logger.Warn("course list cache write failed", zap.Error(err))
	}

	return summaries, nil
}

// Get returns the course detail projection: the course with its levels (each
// carrying their materials), lessons (likewise) and directly attached
// materials.
func (s *CourseService) Get(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	levels, err := s.levels.List(ctx, models.LevelFilter{CourseID: id})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course levels")
	}

	materials, err := s.materials.List(ctx, models.MaterialFilter{CourseID: id})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course materials")
	}

	byLevel := make(map[string][]models.Material)
	for _, m := range materials {
		if m.LevelID != nil {
			byLevel[*m.LevelID] = append(byLevel[*m.LevelID], m)
		}
	}

	detail := &models.CourseDetail{
		Course:    *course,
		Levels:    make([]models.LevelDetail, 0, len(levels)),
		Materials: materials,
	}
	for _, level := range levels {
		attached := byLevel[level.ID]
		detail.Levels = append(detail.Levels, models.LevelDetail{
			Level:          level,
			Materials:      attached,
			MaterialsCount: len(attached),
		})
	}

	lessons, err := s.lessons.ListByCourse(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course lessons")
	}
	detail.Lessons = make([]models.LessonDetail, 0, len(lessons))
	for _, lesson := range lessons {
		lessonMaterials, err := s.materials.ListByLesson(ctx, lesson.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson materials")
		}
		detail.Lessons = append(detail.Lessons, models.LessonDetail{
			Lesson:    lesson,
			Materials: lessonMaterials,
		})
	}

	return detail, nil
}

// Create inserts a new course and invalidates the list cache.
func (s *CourseService) Create(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if req.Difficulty == "" {
		req.Difficulty = models.DifficultyBeginner
	}
	if !req.Difficulty.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown difficulty level")
	}

	course := &models.Course{
		Title:           req.Title,
		Description:     req.Description,
		Thumbnail:       req.Thumbnail,
		Difficulty:      req.Difficulty,
		TableOfContents: req.TableOfContents,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.invalidateList(ctx)
	s.logger.Info("course created", zap.String("course_id", course.ID))
	return course, nil
}

// Update applies a partial update to a course and invalidates the list cache.
func (s *CourseService) Update(ctx context.Context, id string, req dto.UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Thumbnail != nil {
		course.Thumbnail = req.Thumbnail
	}
	if req.Difficulty != nil {
		if !req.Difficulty.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown difficulty level")
		}
		course.Difficulty = *req.Difficulty
	}
	if req.TableOfContents != nil {
		course.TableOfContents = req.TableOfContents
	}

	if err := s.courses.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	s.invalidateList(ctx)
	return course, nil
}

// Delete removes a course and invalidates the list cache.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}

	s.invalidateList(ctx)
	s.logger.Info("course deleted", zap.String("course_id", id))
	return nil
}

func (s *CourseService) invalidateList(ctx context.Context) {
	if err := s.cache.Delete(ctx, courseListCacheKey); err != nil {
		s.logger.Warn("course list cache invalidation failed", zap.Error(err))
	}
}
