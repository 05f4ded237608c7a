package api

import (
	"photark/internal/api/handlers"
	"photark/internal/api/middleware"
	"photark/internal/config"
	"photark/internal/service"

	"github.com/gin-gonic/gin"
)

// Router holds the HTTP router and dependencies
type Router struct {
	engine        *gin.Engine
	config        *config.Config
	fileHandler   *handlers.FileHandler
	healthHandler *handlers.HealthHandler
}

// NewRouter creates the HTTP router with all routes configured
func NewRouter(cfg *config.Config, files service.FileService) *Router {
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := &Router{
		engine:        gin.New(),
		config:        cfg,
		fileHandler:   handlers.NewFileHandler(files, cfg),
		healthHandler: handlers.NewHealthHandler(files),
	}

	router.setupMiddleware()
	router.setupRoutes()

	return router
}

// setupMiddleware configures all middleware
func (r *Router) setupMiddleware() {
	r.engine.Use(gin.Logger())
	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.CORS(r.config))
	r.engine.Use(middleware.RateLimit(r.config))
	r.engine.Use(middleware.RequestSizeLimit(r.config.Upload.MaxFileSize))
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.healthHandler.Health)
	r.engine.GET("/ping", r.healthHandler.Ping)

	v1 := r.engine.Group("/api/v1")
	{
		files := v1.Group("/files")
		{
			files.POST("", r.fileHandler.Upload)
			files.GET("/:hash", r.fileHandler.Image)
			files.GET("/:hash/info", r.fileHandler.Info)
			files.GET("/:hash/:zoom/:x/:y", r.fileHandler.Tile)
		}
	}
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
