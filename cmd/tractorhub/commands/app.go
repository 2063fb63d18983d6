package commands

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/timmy/tractorhub/internal/atomicfile"
	"github.com/timmy/tractorhub/internal/brand"
	"github.com/timmy/tractorhub/internal/catalog"
	"github.com/timmy/tractorhub/internal/config"
	"github.com/timmy/tractorhub/internal/fetch"
	"github.com/timmy/tractorhub/internal/logger"
	"github.com/timmy/tractorhub/internal/repository"
	"github.com/timmy/tractorhub/internal/service"
	"github.com/timmy/tractorhub/internal/storage"
)

// app holds the collaborators shared by every subcommand.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	fs      *atomicfile.FS
	client  *fetch.Client
	brands  *brand.Resolver
	env     *service.Env
	closers []func()
}

// newApp wires the shared collaborators. Optional components (run history,
// artifact publishing) are skipped with a warning when they cannot start.
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	fs := atomicfile.NewOS()
	a := &app{
		cfg:    cfg,
		log:    log,
		fs:     fs,
		client: fetch.NewClient(cfg.HTTP),
		brands: brand.NewResolver(),
	}
	a.env = &service.Env{
		Store:   catalog.NewStore(fs, cfg.Paths),
		Runs:    service.NewRunRecorder(a.openHistory(ctx)),
		Summary: os.Stdout,
		Now:     time.Now,
	}
	a.env.Publisher = a.openPublisher(ctx)
	return a, nil
}

func (a *app) openHistory(ctx context.Context) *repository.JobRunRepository {
	if !a.cfg.Database.Enabled {
		return nil
	}
	db, err := repository.InitDB(ctx, &a.cfg.Database)
	if err != nil {
		a.log.WithError(err).Warn("Run history unavailable, continuing without it")
		return nil
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, func() { sqlDB.Close() })
	}
	return repository.NewJobRunRepository(db)
}

func (a *app) openPublisher(ctx context.Context) *storage.Publisher {
	store, err := storage.NewStorage(ctx, a.cfg.Storage)
	if err != nil {
		if !errors.Is(err, storage.ErrDisabled) {
			a.log.WithError(err).Warn("Artifact storage unavailable, publishing disabled")
		}
		return nil
	}
	if b, ok := store.(interface{ EnsureBucket(context.Context) error }); ok {
		if err := b.EnsureBucket(ctx); err != nil {
			a.log.WithError(err).Warn("Artifact bucket unavailable, publishing disabled")
			return nil
		}
	}
	return storage.NewPublisher(store, a.fs.Fs(), a.cfg.Storage.Prefix)
}

// assets loads the optional brand website and logo maps.
func (a *app) assets(ctx context.Context) *brand.Assets {
	paths := a.cfg.Paths
	return brand.LoadAssets(ctx, a.fs.Fs(), paths.Resolve(paths.BrandWebsites), paths.Resolve(paths.BrandLogos), a.brands)
}

// Close releases resources opened by newApp.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
