package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/timmy/tractorhub/internal/config"
	"github.com/timmy/tractorhub/internal/domain"
	"github.com/timmy/tractorhub/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// InitDB opens the run-history database and migrates the job_runs table.
// Parameters:
//   - ctx: carries the logger.
//   - cfg: driver (sqlite or postgres), connection and pool settings.
//
// Returns:
//   - *gorm.DB: ready handle.
//   - error: unsupported driver, connection or migration failure.
func InitDB(ctx context.Context, cfg *config.DatabaseConfig) (*gorm.DB, error) {
	log := logger.FromContext(ctx).WithField(logger.FieldComponent, "history")

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s history database: %w", cfg.Driver, err)
	}

	if err := tunePool(db, cfg); err != nil {
		return nil, err
	}
	if cfg.Driver != "postgres" {
		// concurrent CLI jobs and the status server share the file
		db.Exec("PRAGMA journal_mode=WAL")
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(&domain.JobRun{}); err != nil {
			return nil, fmt.Errorf("migrate job_runs: %w", err)
		}
	}

	log.WithField("driver", cfg.Driver).Debug("Run history database ready")
	return db, nil
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		// simple protocol keeps transaction-mode poolers working
		return postgres.New(postgres.Config{DSN: cfg.DSN(), PreferSimpleProtocol: true}), nil
	case "sqlite", "":
		if cfg.Path != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("create history directory: %w", err)
			}
		}
		return sqlite.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func tunePool(db *gorm.DB, cfg *config.DatabaseConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return nil
}
