// Package api exposes the pipeline's operational status over HTTP: health,
// job-run history and checkpoint progress. It never serves catalog data.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/tractorhub/internal/api/handler"
	"github.com/timmy/tractorhub/internal/api/middleware"
	"github.com/timmy/tractorhub/internal/config"
	"github.com/timmy/tractorhub/internal/logger"
)

// Handlers groups the route handlers.
type Handlers struct {
	Health      *handler.HealthHandler
	Runs        *handler.RunsHandler
	Checkpoints *handler.CheckpointHandler
}

// SetupRouter configures the Gin router with all routes.
// Parameters:
//   - h: route handlers.
//   - cfg: server mode and CORS settings.
//   - log: base request logger.
//
// Returns:
//   - *gin.Engine: configured router.
func SetupRouter(h Handlers, cfg config.ServerConfig, log *logger.Logger) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cfg.CORS))

	r.GET("/health", h.Health.Health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/runs", h.Runs.ListRuns)
		v1.GET("/runs/:id", h.Runs.GetRun)
		v1.GET("/checkpoints/:job", h.Checkpoints.GetCheckpoint)
	}

	return r
}
