package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/englify/englify-api/internal/models"
)

func TestCourseListWithCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "description", "thumbnail", "difficulty", "created_at", "materials_count", "levels_count"}).
		AddRow("c1", "Grammar Basics", "", nil, string(models.DifficultyBeginner), now, 4, 2)
	mock.ExpectQuery("SELECT c.id, c.title").WillReturnRows(rows)

	summaries, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 4, summaries[0].MaterialsCount)
	assert.Equal(t, 2, summaries[0].LevelsCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseCreateDefaultsTOC(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").WillReturnResult(sqlmock.NewResult(1, 1))

	course := &models.Course{Title: "Grammar Basics", Difficulty: models.DifficultyBeginner}
	err := repo.Create(context.Background(), course)
	require.NoError(t, err)
	assert.NotEmpty(t, course.ID)
	assert.JSONEq(t, `[]`, string(course.TableOfContents))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLevelExistsByNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLevelRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM levels WHERE course_id = $1 AND level_number = $2 AND id <> $3)")).
		WithArgs("c1", 2, "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByNumber(context.Background(), "c1", 2, "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
