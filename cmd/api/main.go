package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/tractorhub/internal/api"
	"github.com/timmy/tractorhub/internal/api/handler"
	"github.com/timmy/tractorhub/internal/atomicfile"
	"github.com/timmy/tractorhub/internal/config"
	"github.com/timmy/tractorhub/internal/logger"
	"github.com/timmy/tractorhub/internal/repository"
)

func main() {
	appLogger := logger.New(logger.DefaultConfig())
	logger.SetDefaultLogger(appLogger)

	// CONFIG_PATH selects the config file in deployments.
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}
	appLogger = logger.New(cfg.ToLoggerConfig("tractorhub-api"))
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	ctx := appLogger.WithContext(context.Background())

	var (
		runs handler.RunStore
		ping func(context.Context) error
	)
	if cfg.Database.Enabled {
		db, err := repository.InitDB(ctx, &cfg.Database)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize database")
		}
		sqlDB, err := db.DB()
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to get database handle")
		}
		defer sqlDB.Close()
		runs = repository.NewJobRunRepository(db)
		ping = sqlDB.PingContext
	} else {
		appLogger.Warn("Run history disabled, /api/v1/runs will answer 503")
	}

	router := api.SetupRouter(api.Handlers{
		Health:      handler.NewHealthHandler(ping),
		Runs:        handler.NewRunsHandler(runs),
		Checkpoints: handler.NewCheckpointHandler(atomicfile.NewOS(), cfg.Paths),
	}, cfg.Server, appLogger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting status server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
