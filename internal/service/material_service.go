package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/englify/englify-api/internal/dto"
	"github.com/englify/englify-api/internal/models"
	appErrors "github.com/englify/englify-api/pkg/errors"
	"github.com/englify/englify-api/pkg/export"
	"github.com/englify/englify-api/pkg/filetype"
	"github.com/englify/englify-api/pkg/storage"
)

type materialRepository interface {
	List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, error)
	FindByID(ctx context.Context, id string) (*models.Material, error)
	Create(ctx context.Context, material *models.Material) error
	Update(ctx context.Context, material *models.Material) error
	Delete(ctx context.Context, id string) error
}

type materialCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type materialLevelRepository interface {
	FindByID(ctx context.Context, id string) (*models.Level, error)
}

// MaterialDownload carries an open file handle plus the response metadata
// the file endpoint needs. The caller owns closing File.
type MaterialDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	Size        int64
	Ext         string
	Kind        filetype.Kind
}

// MaterialService implements the material registry, uploads, file serving
// and inventory export.
type MaterialService struct {
	materials materialRepository
	courses   materialCourseRepository
	levels    materialLevelRepository
	uploads   *storage.LocalStorage
	root      string
	maxUpload int64
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMaterialService constructs a MaterialService instance.
func NewMaterialService(
	materials materialRepository,
	courses materialCourseRepository,
	levels materialLevelRepository,
	uploads *storage.LocalStorage,
	root string,
	maxUpload int64,
	validate *validator.Validate,
	logger *zap.Logger,
) *MaterialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MaterialService{
		materials: materials,
		courses:   courses,
		levels:    levels,
		uploads:   uploads,
		root:      root,
		maxUpload: maxUpload,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// List returns materials matching the filter, in display order.
func (s *MaterialService) List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, error) {
	materials, err := s.materials.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}
	return materials, nil
}

// Get returns a material by id.
func (s *MaterialService) Get(ctx context.Context, id string) (*models.Material, error) {
	material, err := s.materials.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	return material, nil
}

// Create registers a material row without attached bytes.
func (s *MaterialService) Create(ctx context.Context, req dto.CreateMaterialRequest) (*models.Material, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}
	if err := s.checkReferences(ctx, req.CourseID, req.LevelID); err != nil {
		return nil, err
	}

	material := &models.Material{
		CourseID: req.CourseID,
		LevelID:  req.LevelID,
		LessonID: req.LessonID,
		Title:    req.Title,
		Type:     filetype.KindOther,
		Duration: req.Duration,
		Order:    req.Order,
	}
	if err := s.materials.Create(ctx, material); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create material")
	}
	return material, nil
}

// Upload stores an uploaded file and registers a material for it. The type
// tag and size are derived from the file, never from client input.
func (s *MaterialService) Upload(ctx context.Context, req dto.UploadMaterialRequest, fileHeader *multipart.FileHeader) (*models.Material, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload payload")
	}
	if fileHeader == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if s.maxUpload > 0 && fileHeader.Size > s.maxUpload {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d byte upload limit", s.maxUpload))
	}

	var courseID, levelID *string
	if req.CourseID != "" {
		courseID = &req.CourseID
	}
	if req.LevelID != "" {
		levelID = &req.LevelID
	}
	if err := s.checkReferences(ctx, courseID, levelID); err != nil {
		return nil, err
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	defer src.Close() //nolint:errcheck

	now := time.Now().UTC()
	storedName := storage.UploadPath(uniqueFilename(fileHeader.Filename), now)
	relPath, size, err := s.uploads.SaveStream(storedName, src)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}

	title := req.Title
	if title == "" {
		title = filepath.Base(fileHeader.Filename)
	}

	material := &models.Material{
		CourseID:   courseID,
		LevelID:    levelID,
		Title:      title,
		StoredFile: &relPath,
		Type:       filetype.Detect(fileHeader.Filename),
		FileSize:   &size,
		Order:      req.Order,
	}
	if err := s.materials.Create(ctx, material); err != nil {
		if cleanupErr := s.uploads.Delete(relPath); cleanupErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("path", relPath), zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register upload")
	}

	s.logger.Info("material uploaded",
		zap.String("material_id", material.ID),
		zap.String("type", string(material.Type)),
		zap.Int64("size", size),
	)
	return material, nil
}

// Update applies a partial update to a material.
func (s *MaterialService) Update(ctx context.Context, id string, req dto.UpdateMaterialRequest) (*models.Material, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}

	material, err := s.materials.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}

	if err := s.checkReferences(ctx, req.CourseID, req.LevelID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		material.Title = *req.Title
	}
	if req.CourseID != nil {
		material.CourseID = req.CourseID
	}
	if req.LevelID != nil {
		material.LevelID = req.LevelID
	}
	if req.LessonID != nil {
		material.LessonID = req.LessonID
	}
	if req.Duration != nil {
		material.Duration = req.Duration
	}
	if req.Order != nil {
		material.Order = *req.Order
	}

	if err := s.materials.Update(ctx, material); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update material")
	}
	return material, nil
}

// Delete removes a material row and, for direct uploads, the stored file.
func (s *MaterialService) Delete(ctx context.Context, id string) error {
	material, err := s.materials.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}

	if err := s.materials.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material")
	}

	// Scanner-registered files stay on disk; only direct uploads are owned
	// by the registry.
	if material.StoredFile != nil && *material.StoredFile != "" {
		if err := s.uploads.Delete(*material.StoredFile); err != nil {
			s.logger.Warn("failed to remove stored file", zap.String("path", *material.StoredFile), zap.Error(err))
		}
	}

	s.logger.Info("material deleted", zap.String("material_id", id))
	return nil
}

// OpenFile resolves a material's bytes on disk and returns the open handle
// with serving metadata.
func (s *MaterialService) OpenFile(ctx context.Context, id string) (*MaterialDownload, error) {
	material, err := s.materials.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}

	var file *os.File
	switch {
	case material.StoredFile != nil && *material.StoredFile != "":
		file, err = s.uploads.Open(*material.StoredFile)
	case material.FilePath != nil && *material.FilePath != "":
		var path string
		path, err = s.rootPath(*material.FilePath)
		if err == nil {
			file, err = os.Open(path)
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrFileNotFound, "material has no file attached")
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrFileNotFound, "material file is missing on disk")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open material file")
	}

	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat material file")
	}

	name := material.FileName()
	return &MaterialDownload{
		File:        file,
		Filename:    name,
		ContentType: filetype.ContentType(name),
		Size:        info.Size(),
		Ext:         filetype.Ext(name),
		Kind:        filetype.Detect(name),
	}, nil
}

// Export renders the material inventory in the requested format and returns
// the bytes plus response metadata.
func (s *MaterialService) Export(ctx context.Context, format string) ([]byte, string, string, error) {
	materials, err := s.materials.List(ctx, models.MaterialFilter{})
	if err != nil {
		return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}

	dataset := export.Dataset{
		Headers: []string{"ID", "Title", "Type", "Course", "Level", "Size", "Order", "Created"},
		Rows:    make([][]string, 0, len(materials)),
	}
	for _, m := range materials {
		dataset.Rows = append(dataset.Rows, []string{
			m.ID,
			m.Title,
			string(m.Type),
			deref(m.CourseID),
			deref(m.LevelID),
			formatSize(m.FileSize),
			strconv.Itoa(m.Order),
			m.CreatedAt.Format("2006-01-02"),
		})
	}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case "", "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return payload, "text/csv", fmt.Sprintf("materials_%s.csv", stamp), nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, "Materials Inventory")
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return payload, "application/pdf", fmt.Sprintf("materials_%s.pdf", stamp), nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func (s *MaterialService) checkReferences(ctx context.Context, courseID, levelID *string) error {
	if courseID != nil && *courseID != "" {
		if _, err := s.courses.FindByID(ctx, *courseID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrValidation, "course does not exist")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
	}
	if levelID != nil && *levelID != "" {
		level, err := s.levels.FindByID(ctx, *levelID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "level does not exist")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load level")
		}
		if courseID != nil && *courseID != "" && level.CourseID != *courseID {
			return appErrors.Clone(appErrors.ErrNotFound, "level does not belong to the course")
		}
	}
	return nil
}

// rootPath joins a scanner-registered relative path onto the materials root,
// rejecting traversal outside it.
func (s *MaterialService) rootPath(rel string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("path escapes materials root: %s", rel)
	}
	return filepath.Join(s.root, cleaned), nil
}

func uniqueFilename(original string) string {
	base := filepath.Base(original)
	base = strings.ReplaceAll(base, " ", "_")
	return uuid.NewString()[:8] + "_" + base
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatSize(size *int64) string {
	if size == nil {
		return ""
	}
	return strconv.FormatInt(*size, 10)
}
