package handler

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/englify/englify-api/internal/dto"
	"github.com/englify/englify-api/internal/models"
	"github.com/englify/englify-api/internal/service"
	appErrors "github.com/englify/englify-api/pkg/errors"
	"github.com/englify/englify-api/pkg/filetype"
	"github.com/englify/englify-api/pkg/response"
)

type materialService interface {
	List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, error)
	Get(ctx context.Context, id string) (*models.Material, error)
	Create(ctx context.Context, req dto.CreateMaterialRequest) (*models.Material, error)
	Upload(ctx context.Context, req dto.UploadMaterialRequest, fileHeader *multipart.FileHeader) (*models.Material, error)
	Update(ctx context.Context, id string, req dto.UpdateMaterialRequest) (*models.Material, error)
	Delete(ctx context.Context, id string) error
	OpenFile(ctx context.Context, id string) (*service.MaterialDownload, error)
	Export(ctx context.Context, format string) ([]byte, string, string, error)
}

type scanService interface {
	Scan(ctx context.Context) (*models.ScanResult, error)
}

type fileServeObserver interface {
	ObserveFileServed(kind filetype.Kind)
}

// MaterialHandler wires HTTP endpoints to material, scan and export use
// cases.
type MaterialHandler struct {
	service materialService
	scanner scanService
	metrics fileServeObserver
}

// NewMaterialHandler creates a new handler.
func NewMaterialHandler(svc materialService, scanner scanService, metrics fileServeObserver) *MaterialHandler {
	return &MaterialHandler{service: svc, scanner: scanner, metrics: metrics}
}

// List godoc
// @Summary List materials
// @Description Returns materials, optionally filtered by course and level
// @Tags Materials
// @Produce json
// @Param course query string false "Course ID"
// @Param level query string false "Level ID"
// @Success 200 {object} response.Envelope
// @Router /materials [get]
func (h *MaterialHandler) List(c *gin.Context) {
	materials, err := h.service.List(c.Request.Context(), models.MaterialFilter{
		CourseID: c.Query("course"),
		LevelID:  c.Query("level"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, nil)
}

// Get godoc
// @Summary Get material
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /materials/{id} [get]
func (h *MaterialHandler) Get(c *gin.Context) {
	material, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, material, nil)
}

// Create godoc
// @Summary Create material
// @Description Registers a material row without attached bytes
// @Tags Materials
// @Accept json
// @Produce json
// @Param payload body dto.CreateMaterialRequest true "Material payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /materials [post]
func (h *MaterialHandler) Create(c *gin.Context) {
	var req dto.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid material payload"))
		return
	}

	material, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, material)
}

// Upload godoc
// @Summary Upload material file
// @Description Stores the uploaded file and registers a material for it
// @Tags Materials
// @Accept multipart/form-data
// @Produce json
// @Param course formData string true "Course ID"
// @Param level formData string false "Level ID"
// @Param title formData string false "Title"
// @Param order formData int false "Display order"
// @Param file formData file true "Material file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /materials/upload [post]
func (h *MaterialHandler) Upload(c *gin.Context) {
	var req dto.UploadMaterialRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid upload payload"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}

	material, err := h.service.Upload(c.Request.Context(), req, fileHeader)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, material)
}

// Update godoc
// @Summary Update material
// @Tags Materials
// @Accept json
// @Produce json
// @Param id path string true "Material ID"
// @Param payload body dto.UpdateMaterialRequest true "Material payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /materials/{id} [put]
func (h *MaterialHandler) Update(c *gin.Context) {
	var req dto.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid material payload"))
		return
	}

	material, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, material, nil)
}

// Delete godoc
// @Summary Delete material
// @Tags Materials
// @Param id path string true "Material ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /materials/{id} [delete]
func (h *MaterialHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Scan godoc
// @Summary Scan materials root
// @Description Walks the materials root and registers new accepted files
// @Tags Materials
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /materials/scan [get]
// @Router /materials/scan_materials [get]
func (h *MaterialHandler) Scan(c *gin.Context) {
	result, err := h.scanner.Scan(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export material inventory
// @Tags Materials
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /materials/export [get]
func (h *MaterialHandler) Export(c *gin.Context) {
	payload, contentType, filename, err := h.service.Export(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

// File godoc
// @Summary Serve material file
// @Description Streams the material's bytes with role-dependent headers
// @Tags Materials
// @Param id path string true "Material ID"
// @Success 200 {file} binary
// @Failure 404 "file or material not found"
// @Router /materials/{id}/file [get]
func (h *MaterialHandler) File(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	download, err := h.service.OpenFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Status == http.StatusNotFound {
			c.Status(http.StatusNotFound)
			return
		}
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
	c.Header("Content-Length", strconv.FormatInt(download.Size, 10))

	contentType := download.ContentType
	switch download.Ext {
	case ".pdf":
		contentType = "application/pdf"
		c.Header("Accept-Ranges", "bytes")
	case ".mp3", ".wav":
		c.Header("Accept-Ranges", "bytes")
	}

	applyDisposition(c, claims.Role, download)

	if h.metrics != nil {
		h.metrics.ObserveFileServed(download.Kind)
	}

	c.DataFromReader(http.StatusOK, download.Size, contentType, download.File, nil)
}

// applyDisposition sets Content-Disposition and hardening headers based on
// the viewer's role and the file extension.
func applyDisposition(c *gin.Context, role models.UserRole, download *service.MaterialDownload) {
	switch role {
	case models.RoleStudent:
		c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", download.Filename))
		if download.Ext != ".exe" {
			c.Header("X-Content-Type-Options", "nosniff")
			c.Header("Content-Security-Policy", "default-src 'self'")
		}
	case models.RoleTeacher, models.RoleAdmin:
		if download.Ext == ".zip" {
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
		} else {
			c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", download.Filename))
		}
	default:
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	}
}
