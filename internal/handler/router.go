package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/englify/englify-api/internal/middleware"
	"github.com/englify/englify-api/internal/models"
	"github.com/englify/englify-api/internal/service"
	"github.com/englify/englify-api/pkg/config"
	"github.com/englify/englify-api/pkg/logger"
	corsmiddleware "github.com/englify/englify-api/pkg/middleware/cors"
	reqidmiddleware "github.com/englify/englify-api/pkg/middleware/requestid"
	"go.uber.org/zap"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth      *AuthHandler
	Courses   *CourseHandler
	Levels    *LevelHandler
	Lessons   *LessonHandler
	Materials *MaterialHandler
	Metrics   *MetricsHandler
}

// NewRouter assembles the gin engine: ambient middleware, operational
// endpoints and the versioned API surface with its auth gates.
func NewRouter(cfg *config.Config, logr *zap.Logger, authSvc *service.AuthService, metricsSvc *service.MetricsService, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), h.Auth.Logout)
		auth.GET("/me", middleware.JWT(authSvc), h.Auth.Me)
	}

	// Catalog reads are open: an Authorization header is honoured when
	// present but not required. Mutations and file serving need a token.
	reads := api.Group("")
	reads.Use(middleware.OptionalJWT(authSvc))
	{
		reads.GET("/courses", h.Courses.List)
		reads.GET("/courses/:id", h.Courses.Get)
		reads.GET("/levels", h.Levels.List)
		reads.GET("/levels/:id", h.Levels.Get)
		reads.GET("/lessons", h.Lessons.List)
		reads.GET("/lessons/:id", h.Lessons.Get)
		reads.GET("/materials", h.Materials.List)
		reads.GET("/materials/:id", h.Materials.Get)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))

	manage := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin)

	secured.GET("/materials/:id/file", h.Materials.File)

	courses := secured.Group("/courses", manage)
	{
		courses.POST("", h.Courses.Create)
		courses.PUT("/:id", h.Courses.Update)
		courses.PATCH("/:id", h.Courses.Update)
		courses.DELETE("/:id", h.Courses.Delete)
	}

	levels := secured.Group("/levels", manage)
	{
		levels.POST("", h.Levels.Create)
		levels.PUT("/:id", h.Levels.Update)
		levels.PATCH("/:id", h.Levels.Update)
		levels.DELETE("/:id", h.Levels.Delete)
	}

	materials := secured.Group("/materials", manage)
	{
		materials.GET("/scan", h.Materials.Scan)
		materials.GET("/scan_materials", h.Materials.Scan)
		materials.GET("/export", h.Materials.Export)
		materials.POST("", h.Materials.Create)
		materials.POST("/upload", h.Materials.Upload)
		materials.PUT("/:id", h.Materials.Update)
		materials.PATCH("/:id", h.Materials.Update)
		materials.DELETE("/:id", h.Materials.Delete)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "route not found"}})
	})

	return r
}
