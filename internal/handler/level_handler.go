package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/englify/englify-api/internal/dto"
	"github.com/englify/englify-api/internal/models"
	appErrors "github.com/englify/englify-api/pkg/errors"
	"github.com/englify/englify-api/pkg/response"
)

type levelService interface {
	List(ctx context.Context, filter models.LevelFilter) ([]models.Level, error)
	Get(ctx context.Context, id string) (*models.LevelDetail, error)
	Create(ctx context.Context, req dto.CreateLevelRequest) (*models.Level, error)
	Update(ctx context.Context, id string, req dto.UpdateLevelRequest) (*models.Level, error)
	Delete(ctx context.Context, id string) error
}

// LevelHandler wires HTTP endpoints to the level service.
type LevelHandler struct {
	service levelService
}

// NewLevelHandler creates a new handler.
func NewLevelHandler(svc levelService) *LevelHandler {
	return &LevelHandler{service: svc}
}

// List godoc
// @Summary List levels
// @Description Returns levels, optionally filtered by course
// @Tags Levels
// @Produce json
// @Param course query string false "Course ID"
// @Success 200 {object} response.Envelope
// @Router /levels [get]
func (h *LevelHandler) List(c *gin.Context) {
	levels, err := h.service.List(c.Request.Context(), models.LevelFilter{
		CourseID: c.Query("course"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, levels, nil)
}

// Get godoc
// @Summary Get level detail
// @Description Returns a level with its attached materials
// @Tags Levels
// @Produce json
// @Param id path string true "Level ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /levels/{id} [get]
func (h *LevelHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create level
// @Tags Levels
// @Accept json
// @Produce json
// @Param payload body dto.CreateLevelRequest true "Level payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /levels [post]
func (h *LevelHandler) Create(c *gin.Context) {
	var req dto.CreateLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid level payload"))
		return
	}

	level, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, level)
}

// Update godoc
// @Summary Update level
// @Tags Levels
// @Accept json
// @Produce json
// @Param id path string true "Level ID"
// @Param payload body dto.UpdateLevelRequest true "Level payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /levels/{id} [put]
func (h *LevelHandler) Update(c *gin.Context) {
	var req dto.UpdateLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid level payload"))
		return
	}

	level, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, level, nil)
}

// Delete godoc
// @Summary Delete level
// @Tags Levels
// @Param id path string true "Level ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /levels/{id} [delete]
func (h *LevelHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
