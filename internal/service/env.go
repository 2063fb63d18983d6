// Package service orchestrates the pipeline jobs. Each job loads its inputs
// through the catalog store, runs its work list through a checkpointed
// runner where the job is resumable, writes its artifacts and records the
// run in the job history.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/timmy/tractorhub/internal/catalog"
	"github.com/timmy/tractorhub/internal/checkpoint"
	"github.com/timmy/tractorhub/internal/logger"
	"github.com/timmy/tractorhub/internal/runner"
	"github.com/timmy/tractorhub/internal/storage"
)

// ErrNoWorkList is returned when a job cannot build its work list, for
// example because the links manifest is missing.
var ErrNoWorkList = errors.New("work list unavailable")

// Env carries the collaborators shared by every job service.
type Env struct {
	Store *catalog.Store
	Runs  *RunRecorder
	// Publisher uploads artifacts after a job; nil disables publishing.
	Publisher *storage.Publisher
	// Summary receives the end-of-run table; nil disables it.
	Summary io.Writer
	Now     func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// publish uploads files when a publisher is configured. Failures are logged
// and never fail the job.
func (e *Env) publish(ctx context.Context, job string, files ...string) {
	if e.Publisher == nil {
		return
	}
	keys, err := e.Publisher.Publish(ctx, job, files...)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Failed to publish artifacts")
		return
	}
	logger.FromContext(ctx).WithField(logger.FieldCount, len(keys)).Info("Artifacts published")
}

// runCheckpointed runs items through a runner backed by the job's checkpoint
// file and returns the checkpoint state after the run.
func runCheckpointed[I, T any](
	ctx context.Context,
	env *Env,
	job string,
	items []I,
	key func(I) string,
	process runner.ProcessFunc[I, T],
	opts runner.Options,
) (*runner.Stats, *checkpoint.State[T], error) {
	store := checkpoint.NewFileStore[T](env.Store.FS(), env.Store.Paths().Checkpoint(job))
	r, err := runner.New(job, store, key, process, opts)
	if err != nil {
		return nil, nil, err
	}
	r.Summary = env.Summary

	stats, err := r.Run(ctx, items)
	if err != nil {
		return stats, nil, err
	}
	state, err := store.Load(ctx)
	if err != nil {
		return stats, nil, fmt.Errorf("%w: %v", runner.ErrCheckpointIO, err)
	}
	return stats, state, nil
}

// countStats describes a job that is not item-checkpointed.
func countStats(job string, start, end time.Time, total, succeeded int) *runner.Stats {
	return &runner.Stats{
		Job:       job,
		Mode:      "full",
		Phase:     runner.PhaseDone,
		Total:     total,
		Selected:  total,
		Processed: total,
		Succeeded: succeeded,
		StartTime: start,
		EndTime:   end,
	}
}
