package service

import (
	"bytes"
	"context"
	"database/sql"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/englify/englify-api/internal/dto"
	"github.com/englify/englify-api/internal/models"
	appErrors "github.com/englify/englify-api/pkg/errors"
	"github.com/englify/englify-api/pkg/filetype"
	"github.com/englify/englify-api/pkg/storage"
)

type fakeMaterialRepo struct {
	materials map[string]*models.Material
}

func newFakeMaterialRepo() *fakeMaterialRepo {
	return &fakeMaterialRepo{materials: make(map[string]*models.Material)}
}

func (f *fakeMaterialRepo) List(_ context.Context, filter models.MaterialFilter) ([]models.Material, error) {
	out := []models.Material{}
	for _, m := range f.materials {
		if filter.CourseID != "" && (m.CourseID == nil || *m.CourseID != filter.CourseID) {
			continue
		}
		if filter.LevelID != "" && (m.LevelID == nil || *m.LevelID != filter.LevelID) {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeMaterialRepo) FindByID(_ context.Context, id string) (*models.Material, error) {
	if m, ok := f.materials[id]; ok {
		clone := *m
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeMaterialRepo) Create(_ context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = "material-" + material.Title
	}
	f.materials[material.ID] = material
	return nil
}

func (f *fakeMaterialRepo) Update(_ context.Context, material *models.Material) error {
	f.materials[material.ID] = material
	return nil
}

func (f *fakeMaterialRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.materials[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.materials, id)
	return nil
}

type fakeCourseFinder struct {
	ids map[string]bool
}

func (f *fakeCourseFinder) FindByID(_ context.Context, id string) (*models.Course, error) {
	if f.ids[id] {
		return &models.Course{ID: id}, nil
	}
	return nil, sql.ErrNoRows
}

type fakeLevelFinder struct {
	// level id -> owning course id
	ids map[string]string
}

func (f *fakeLevelFinder) FindByID(_ context.Context, id string) (*models.Level, error) {
	if courseID, ok := f.ids[id]; ok {
		return &models.Level{ID: id, CourseID: courseID}, nil
	}
	return nil, sql.ErrNoRows
}

func newTestMaterialService(t *testing.T, repo *fakeMaterialRepo) (*MaterialService, string, string) {
	t.Helper()
	uploadDir := t.TempDir()
	root := t.TempDir()
	uploads, err := storage.NewLocalStorage(uploadDir)
	require.NoError(t, err)
	svc := NewMaterialService(
		repo,
		&fakeCourseFinder{ids: map[string]bool{"c1": true}},
		&fakeLevelFinder{ids: map[string]string{"l1": "c1", "l9": "c9"}},
		uploads,
		root,
		10<<20,
		nil,
		zap.NewNop(),
	)
	return svc, uploadDir, root
}

func multipartUpload(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/materials/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	_, header, err := req.FormFile("file")
	require.NoError(t, err)
	return header
}

func TestUploadClassifiesAndStores(t *testing.T) {
	repo := newFakeMaterialRepo()
	svc, uploadDir, _ := newTestMaterialService(t, repo)

	material, err := svc.Upload(context.Background(), dto.UploadMaterialRequest{
		CourseID: "c1",
		LevelID:  "l1",
	}, multipartUpload(t, "Unit 1.pdf", []byte("%PDF-1.4 fake")))
	require.NoError(t, err)

	assert.Equal(t, filetype.KindPDF, material.Type)
	assert.Equal(t, "Unit 1.pdf", material.Title)
	require.NotNil(t, material.FileSize)
	assert.Equal(t, int64(len("%PDF-1.4 fake")), *material.FileSize)
	require.NotNil(t, material.StoredFile)
	assert.Nil(t, material.FilePath)

	saved, err := os.ReadFile(filepath.Join(uploadDir, filepath.FromSlash(*material.StoredFile)))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(saved))
}

func TestUploadRejectsUnknownCourse(t *testing.T) {
	svc, _, _ := newTestMaterialService(t, newFakeMaterialRepo())

	_, err := svc.Upload(context.Background(), dto.UploadMaterialRequest{
		CourseID: "missing",
	}, multipartUpload(t, "unit.pdf", []byte("x")))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUploadRejectsLevelFromAnotherCourse(t *testing.T) {
	svc, _, _ := newTestMaterialService(t, newFakeMaterialRepo())

	_, err := svc.Upload(context.Background(), dto.UploadMaterialRequest{
		CourseID: "c1",
		LevelID:  "l9",
	}, multipartUpload(t, "unit.pdf", []byte("x")))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	repo := newFakeMaterialRepo()
	uploads, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewMaterialService(repo, &fakeCourseFinder{ids: map[string]bool{"c1": true}}, &fakeLevelFinder{}, uploads, t.TempDir(), 4, nil, zap.NewNop())

	_, err = svc.Upload(context.Background(), dto.UploadMaterialRequest{CourseID: "c1"}, multipartUpload(t, "big.pdf", []byte("too large")))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestOpenFileFromUpload(t *testing.T) {
	repo := newFakeMaterialRepo()
	svc, _, _ := newTestMaterialService(t, repo)

	material, err := svc.Upload(context.Background(), dto.UploadMaterialRequest{CourseID: "c1"}, multipartUpload(t, "audio.mp3", []byte("id3")))
	require.NoError(t, err)

	download, err := svc.OpenFile(context.Background(), material.ID)
	require.NoError(t, err)
	defer download.File.Close()

	assert.Equal(t, "audio/mpeg", download.ContentType)
	assert.Equal(t, ".mp3", download.Ext)
	assert.Equal(t, filetype.KindMP3, download.Kind)
	assert.Equal(t, int64(3), download.Size)
	assert.True(t, strings.HasSuffix(download.Filename, "audio.mp3"))
}

func TestOpenFileFromScannedPath(t *testing.T) {
	repo := newFakeMaterialRepo()
	svc, _, root := newTestMaterialService(t, repo)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "grammar"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "grammar", "unit1.pdf"), []byte("pdf-bytes"), 0o644))

	rel := "grammar/unit1.pdf"
	repo.materials["m1"] = &models.Material{ID: "m1", Title: "unit1", FilePath: &rel, Type: filetype.KindPDF}

	download, err := svc.OpenFile(context.Background(), "m1")
	require.NoError(t, err)
	defer download.File.Close()

	assert.Equal(t, "application/pdf", download.ContentType)
	assert.Equal(t, "unit1.pdf", download.Filename)
	assert.Equal(t, int64(len("pdf-bytes")), download.Size)
}

func TestOpenFileRejectsTraversal(t *testing.T) {
	repo := newFakeMaterialRepo()
	svc, _, _ := newTestMaterialService(t, repo)

	rel := "../../etc/passwd"
	repo.materials["m1"] = &models.Material{ID: "m1", Title: "sneaky", FilePath: &rel}

	_, err := svc.OpenFile(context.Background(), "m1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestOpenFileMissingOnDisk(t *testing.T) {
	repo := newFakeMaterialRepo()
	svc, _, _ := newTestMaterialService(t, repo)

	rel := "gone.pdf"
	repo.materials["m1"] = &models.Material{ID: "m1", Title: "gone", FilePath: &rel}

	_, err := svc.OpenFile(context.Background(), "m1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFileNotFound.Code, appErrors.FromError(err).Code)
}

func TestOpenFileNoAttachment(t *testing.T) {
	repo := newFakeMaterialRepo()
	svc, _, _ := newTestMaterialService(t, repo)

	repo.materials["m1"] = &models.Material{ID: "m1", Title: "metadata only"}

	_, err := svc.OpenFile(context.Background(), "m1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFileNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeleteRemovesUploadedFile(t *testing.T) {
	repo := newFakeMaterialRepo()
	svc, uploadDir, _ := newTestMaterialService(t, repo)

	material, err := svc.Upload(context.Background(), dto.UploadMaterialRequest{CourseID: "c1"}, multipartUpload(t, "unit.pdf", []byte("x")))
	require.NoError(t, err)
	storedPath := filepath.Join(uploadDir, filepath.FromSlash(*material.StoredFile))
	_, err = os.Stat(storedPath)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), material.ID))

	_, err = os.Stat(storedPath)
	assert.True(t, os.IsNotExist(err))
}

func TestExportCSV(t *testing.T) {
	repo := newFakeMaterialRepo()
	courseID := "c1"
	repo.materials["m1"] = &models.Material{ID: "m1", Title: "Unit 1", Type: filetype.KindPDF, CourseID: &courseID}
	svc, _, _ := newTestMaterialService(t, repo)

	payload, contentType, filename, err := svc.Export(context.Background(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.True(t, strings.HasPrefix(filename, "materials_"))
	assert.Contains(t, string(payload), "Unit 1")
	assert.Contains(t, string(payload), "pdf")
}

func TestExportPDF(t *testing.T) {
	repo := newFakeMaterialRepo()
	repo.materials["m1"] = &models.Material{ID: "m1", Title: "Unit 1", Type: filetype.KindPDF}
	svc, _, _ := newTestMaterialService(t, repo)

	payload, contentType, _, err := svc.Export(context.Background(), "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}

func TestExportUnknownFormat(t *testing.T) {
	svc, _, _ := newTestMaterialService(t, newFakeMaterialRepo())

	_, _, _, err := svc.Export(context.Background(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
