package main

import (
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"

	_ "github.com/englify/englify-api/api/swagger"
	"github.com/englify/englify-api/internal/handler"
	"github.com/englify/englify-api/internal/repository"
	"github.com/englify/englify-api/internal/service"
	"github.com/englify/englify-api/pkg/cache"
	"github.com/englify/englify-api/pkg/config"
	"github.com/englify/englify-api/pkg/database"
	"github.com/englify/englify-api/pkg/logger"
	"github.com/englify/englify-api/pkg/storage"
)

// @title Englify API
// @version 1.0.0
// @description Backend for the Englify English learning platform
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The API stays functional without Redis: catalog caching and the
		// scan advisory lock degrade to direct reads and upsert-only
		// idempotence.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	uploads, err := storage.NewLocalStorage(cfg.Materials.UploadDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	levelRepo := repository.NewLevelRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	courseSvc := service.NewCourseService(courseRepo, levelRepo, lessonRepo, materialRepo, cacheRepo, cfg.Catalog.CacheTTL, validate, logr)
	levelSvc := service.NewLevelService(levelRepo, courseRepo, materialRepo, validate, logr)
	lessonSvc := service.NewLessonService(lessonRepo, materialRepo, logr)
	materialSvc := service.NewMaterialService(materialRepo, courseRepo, levelRepo, uploads, cfg.Materials.Root, cfg.Materials.MaxUpload, validate, logr)
	scanSvc := service.NewScanService(materialRepo, cacheRepo, metricsSvc, cfg.Materials.Root, cfg.Materials.ScanLockTTL, logr)

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Courses:   handler.NewCourseHandler(courseSvc),
		Levels:    handler.NewLevelHandler(levelSvc),
		Lessons:   handler.NewLessonHandler(lessonSvc),
		Materials: handler.NewMaterialHandler(materialSvc, scanSvc, metricsSvc),
		Metrics:   handler.NewMetricsHandler(metricsSvc),
	}

	r := handler.NewRouter(cfg, logr, authSvc, metricsSvc, handlers)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
