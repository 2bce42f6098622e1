package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/englify/englify-api/internal/models"
	"github.com/englify/englify-api/pkg/response"
)

type lessonService interface {
	List(ctx context.Context) ([]models.Lesson, error)
	Get(ctx context.Context, id string) (*models.LessonDetail, error)
}

// LessonHandler exposes the read-only lesson endpoints.
type LessonHandler struct {
	service lessonService
}

// NewLessonHandler creates a new handler.
func NewLessonHandler(svc lessonService) *LessonHandler {
	return &LessonHandler{service: svc}
}

// List godoc
// @Summary List lessons
// @Tags Lessons
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lessons [get]
func (h *LessonHandler) List(c *gin.Context) {
	lessons, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, nil)
}

// Get godoc
// @Summary Get lesson detail
// @Description Returns a lesson with its attached materials
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}
