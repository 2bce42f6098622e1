package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/englify/englify-api/internal/dto"
	"github.com/englify/englify-api/internal/models"
	appErrors "github.com/englify/englify-api/pkg/errors"
)

type fakeLevelRepo struct {
	levels map[string]*models.Level
}

func newFakeLevelRepo() *fakeLevelRepo {
	return &fakeLevelRepo{levels: make(map[string]*models.Level)}
}

func (f *fakeLevelRepo) List(_ context.Context, filter models.LevelFilter) ([]models.Level, error) {
	out := []models.Level{}
	for _, l := range f.levels {
		if filter.CourseID == "" || l.CourseID == filter.CourseID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLevelRepo) FindByID(_ context.Context, id string) (*models.Level, error) {
	if l, ok := f.levels[id]; ok {
		clone := *l
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLevelRepo) ExistsByNumber(_ context.Context, courseID string, levelNumber int, excludeID string) (bool, error) {
	for _, l := range f.levels {
		if l.CourseID == courseID && l.LevelNumber == levelNumber && l.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLevelRepo) Create(_ context.Context, level *models.Level) error {
	if level.ID == "" {
		level.ID = "level-" + level.Title
	}
	f.levels[level.ID] = level
	return nil
}

func (f *fakeLevelRepo) Update(_ context.Context, level *models.Level) error {
	f.levels[level.ID] = level
	return nil
}

func (f *fakeLevelRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.levels[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.levels, id)
	return nil
}

func newTestLevelService(levels *fakeLevelRepo) *LevelService {
	courses := &fakeCourseFinder{ids: map[string]bool{"c1": true}}
	return NewLevelService(levels, courses, &fakeMaterialLister{}, nil, zap.NewNop())
}

func TestLevelCreate(t *testing.T) {
	repo := newFakeLevelRepo()
	svc := newTestLevelService(repo)

	level, err := svc.Create(context.Background(), dto.CreateLevelRequest{
		CourseID:    "c1",
		Title:       "Beginner A",
		LevelNumber: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, level.LevelNumber)
	assert.Len(t, repo.levels, 1)
}

func TestLevelCreateDuplicateNumberConflicts(t *testing.T) {
	repo := newFakeLevelRepo()
	repo.levels["l1"] = &models.Level{ID: "l1", CourseID: "c1", LevelNumber: 1}
	svc := newTestLevelService(repo)

	_, err := svc.Create(context.Background(), dto.CreateLevelRequest{
		CourseID:    "c1",
		Title:       "Another",
		LevelNumber: 1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLevelCreateUnknownCourse(t *testing.T) {
	svc := newTestLevelService(newFakeLevelRepo())

	_, err := svc.Create(context.Background(), dto.CreateLevelRequest{
		CourseID:    "missing",
		Title:       "Beginner A",
		LevelNumber: 1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLevelUpdateNumberChecksUniqueness(t *testing.T) {
	repo := newFakeLevelRepo()
	repo.levels["l1"] = &models.Level{ID: "l1", CourseID: "c1", LevelNumber: 1}
	repo.levels["l2"] = &models.Level{ID: "l2", CourseID: "c1", LevelNumber: 2}
	svc := newTestLevelService(repo)

	two := 2
	_, err := svc.Update(context.Background(), "l1", dto.UpdateLevelRequest{LevelNumber: &two})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLevelUpdateSameNumberIsAllowed(t *testing.T) {
	repo := newFakeLevelRepo()
	repo.levels["l1"] = &models.Level{ID: "l1", CourseID: "c1", LevelNumber: 1, Title: "old"}
	svc := newTestLevelService(repo)

	one := 1
	title := "new"
	updated, err := svc.Update(context.Background(), "l1", dto.UpdateLevelRequest{LevelNumber: &one, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)
}

func TestLevelGetIncludesMaterials(t *testing.T) {
	repo := newFakeLevelRepo()
	repo.levels["l1"] = &models.Level{ID: "l1", CourseID: "c1", LevelNumber: 1}
	levelID := "l1"
	materials := &fakeMaterialLister{materials: []models.Material{{ID: "m1", LevelID: &levelID}}}
	svc := NewLevelService(repo, &fakeCourseFinder{ids: map[string]bool{"c1": true}}, materials, nil, zap.NewNop())

	detail, err := svc.Get(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, 1, detail.MaterialsCount)
}

func TestLevelDeleteNotFound(t *testing.T) {
	svc := newTestLevelService(newFakeLevelRepo())

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
