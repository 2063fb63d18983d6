package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/tractorhub/internal/domain"
	"github.com/timmy/tractorhub/internal/logger"
	"github.com/timmy/tractorhub/internal/repository"
	"github.com/timmy/tractorhub/internal/runner"
)

// RunRecorder writes job-run history. A nil recorder, or one without a
// repository, still assigns run ids but persists nothing.
type RunRecorder struct {
	repo *repository.JobRunRepository
	now  func() time.Time
}

// NewRunRecorder creates a recorder over repo, which may be nil.
func NewRunRecorder(repo *repository.JobRunRepository) *RunRecorder {
	return &RunRecorder{repo: repo, now: time.Now}
}

// Start records a running job.
// Parameters:
//   - ctx: parent context.
//   - job: job name, one of the domain.Job* constants.
//   - options: human-readable options for the history table.
//
// Returns:
//   - context.Context: ctx whose logger carries the run id.
//   - *domain.JobRun: the run to pass to Finish.
func (r *RunRecorder) Start(ctx context.Context, job, options string) (context.Context, *domain.JobRun) {
	now := r.clock()
	run := &domain.JobRun{
		ID:        uuid.New().String(),
		Job:       job,
		Status:    domain.JobStatusRunning,
		Options:   options,
		StartedAt: &now,
	}
	ctx = logger.SetJobID(ctx, run.ID)
	if r == nil || r.repo == nil {
		return ctx, run
	}

	log := logger.FromContext(ctx)
	if n, err := r.repo.MarkInterrupted(ctx, job); err != nil {
		log.WithError(err).Warn("Failed to close interrupted runs")
	} else if n > 0 {
		log.WithField(logger.FieldCount, n).Warn("Marked interrupted runs as failed")
	}
	if err := r.repo.Create(ctx, run); err != nil {
		log.WithError(err).Warn("Failed to record job run")
	}
	return ctx, run
}

// Finish stores the outcome of run. stats may be nil when the job failed
// before processing anything.
func (r *RunRecorder) Finish(ctx context.Context, run *domain.JobRun, stats *runner.Stats, runErr error) {
	now := r.clock()
	run.CompletedAt = &now
	if stats != nil {
		run.TotalItems = stats.Selected
		run.ProcessedItems = stats.Processed
		run.SucceededItems = stats.Succeeded
		run.FailedItems = stats.Failed
	}
	run.Status = domain.JobStatusCompleted
	if runErr != nil {
		run.Status = domain.JobStatusFailed
		run.ErrorLog = runErr.Error()
	}

	if r == nil || r.repo == nil {
		return
	}
	if err := r.repo.Update(context.WithoutCancel(ctx), run); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Failed to update job run")
	}
}

func (r *RunRecorder) clock() time.Time {
	if r == nil || r.now == nil {
		return time.Now()
	}
	return r.now()
}
