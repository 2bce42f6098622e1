package service

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/englify/englify-api/internal/models"
	appErrors "github.com/englify/englify-api/pkg/errors"
	"github.com/englify/englify-api/pkg/filetype"
)

type scanMaterialRepository interface {
	InsertScanned(ctx context.Context, material *models.Material) (bool, error)
}

type scanLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string)
}

type scanObserver interface {
	ObserveScan(created int)
}

// ScanService walks the materials root and registers accepted files as
// materials keyed by their relative path.
type ScanService struct {
	materials scanMaterialRepository
	locker    scanLocker
	metrics   scanObserver
	root      string
	lockTTL   time.Duration
	logger    *zap.Logger
}

// NewScanService constructs a ScanService instance.
func NewScanService(materials scanMaterialRepository, locker scanLocker, metrics scanObserver, root string, lockTTL time.Duration, logger *zap.Logger) *ScanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanService{
		materials: materials,
		locker:    locker,
		metrics:   metrics,
		root:      root,
		lockTTL:   lockTTL,
		logger:    logger,
	}
}

// Scan walks the configured root once and registers every accepted file not
// yet known. Only one scan runs per root at a time; a second caller gets a
// conflict. Repeating a scan over an unchanged tree creates nothing.
func (s *ScanService) Scan(ctx context.Context) (*models.ScanResult, error) {
	lockKey := "scan:lock:" + s.root
	acquired, err := s.locker.TryLock(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire scan lock")
	}
	if !acquired {
		return nil, appErrors.Clone(appErrors.ErrScanInProgress, "")
	}
	defer s.locker.Unlock(ctx, lockKey)

	info, err := os.Stat(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("materials root %s does not exist", s.root))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat materials root")
	}
	if !info.IsDir() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("materials root %s is not a directory", s.root))
	}

	start := time.Now()
	result := &models.ScanResult{}

	err = filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			s.logger.Warn("skipping unreadable path", zap.String("path", path), zap.Error(walkErr))
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if !filetype.Scannable(entry.Name()) {
			result.Skipped++
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			s.logger.Warn("failed to relativise path", zap.String("path", path), zap.Error(err))
			result.Skipped++
			return nil
		}
		rel = filepath.ToSlash(rel)

		var size *int64
		if fileInfo, err := entry.Info(); err == nil {
			n := fileInfo.Size()
			size = &n
		}

		material := &models.Material{
			Title:    entry.Name(),
			FilePath: &rel,
			Type:     filetype.Detect(entry.Name()),
			FileSize: size,
		}
		created, err := s.materials.InsertScanned(ctx, material)
		if err != nil {
			return fmt.Errorf("register %s: %w", rel, err)
		}
		if created {
			result.Created++
			s.logger.Info("material registered",
				zap.String("path", rel),
				zap.String("type", string(material.Type)),
			)
		} else {
			result.Existing++
		}
		return nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "scan failed")
	}

	if s.metrics != nil {
		s.metrics.ObserveScan(result.Created)
	}

	s.logger.Info("scan finished",
		zap.String("root", s.root),
		zap.Int("created", result.Created),
		zap.Int("existing", result.Existing),
		zap.Int("skipped", result.Skipped),
		zap.Duration("took", time.Since(start)),
	)
	return result, nil
}
