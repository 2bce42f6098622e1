package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/englify/englify-api/internal/dto"
	"github.com/englify/englify-api/internal/middleware"
	"github.com/englify/englify-api/internal/models"
	appErrors "github.com/englify/englify-api/pkg/errors"
)

type stubCourseService struct {
	summaries []models.CourseSummary
	detail    *models.CourseDetail
	created   *dto.CreateCourseRequest
}

func (s *stubCourseService) List(_ context.Context) ([]models.CourseSummary, error) {
	return s.summaries, nil
}

func (s *stubCourseService) Get(_ context.Context, id string) (*models.CourseDetail, error) {
	if s.detail != nil && s.detail.ID == id {
		return s.detail, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
}

func (s *stubCourseService) Create(_ context.Context, req dto.CreateCourseRequest) (*models.Course, error) {
	s.created = &req
	return &models.Course{ID: "c1", Title: req.Title}, nil
}

func (s *stubCourseService) Update(_ context.Context, id string, req dto.UpdateCourseRequest) (*models.Course, error) {
	return &models.Course{ID: id}, nil
}

func (s *stubCourseService) Delete(_ context.Context, id string) error {
	return nil
}

func newCourseRouter(role models.UserRole, svc *stubCourseService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewCourseHandler(svc)
	r := gin.New()
	r.Use(withClaims(role))
	manage := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin)
	r.GET("/courses", h.List)
	r.GET("/courses/:id", h.Get)
	r.POST("/courses", manage, h.Create)
	r.DELETE("/courses/:id", manage, h.Delete)
	return r
}

func TestCourseListEndpoint(t *testing.T) {
	svc := &stubCourseService{summaries: []models.CourseSummary{
		{ID: "c1", Title: "Grammar", MaterialsCount: 4, LevelsCount: 2},
	}}
	r := newCourseRouter(models.RoleStudent, svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/courses", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"materials_count":4`)
	assert.Contains(t, w.Body.String(), `"levels_count":2`)
}

func TestCourseGetNotFoundEndpoint(t *testing.T) {
	r := newCourseRouter(models.RoleStudent, &stubCourseService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/courses/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCourseCreateForbiddenForStudent(t *testing.T) {
	svc := &stubCourseService{}
	r := newCourseRouter(models.RoleStudent, svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest("POST", "/courses", `{"title": "Grammar"}`))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Nil(t, svc.created)
}

func TestCourseCreateAllowedForTeacher(t *testing.T) {
	svc := &stubCourseService{}
	r := newCourseRouter(models.RoleTeacher, svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest("POST", "/courses", `{"title": "Grammar", "level": "beginner"}`))

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.created)
	assert.Equal(t, "Grammar", svc.created.Title)
	assert.Equal(t, models.DifficultyBeginner, svc.created.Difficulty)
}

func TestCourseDeleteAllowedForAdmin(t *testing.T) {
	r := newCourseRouter(models.RoleAdmin, &stubCourseService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("DELETE", "/courses/c1", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
}
