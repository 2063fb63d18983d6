package repository

import (
	"context"
	"errors"
	"time"

	"github.com/timmy/tractorhub/internal/domain"
	"gorm.io/gorm"
)

// JobRunRepository stores job execution history.
type JobRunRepository struct {
	db *gorm.DB
}

// NewJobRunRepository creates a new JobRunRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *JobRunRepository: repository instance bound to db.
func NewJobRunRepository(db *gorm.DB) *JobRunRepository {
	return &JobRunRepository{db: db}
}

// Create inserts a new run.
func (r *JobRunRepository) Create(ctx context.Context, run *domain.JobRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Update saves every field of run.
func (r *JobRunRepository) Update(ctx context.Context, run *domain.JobRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// GetByID retrieves a run by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: run ID.
//
// Returns:
//   - *domain.JobRun: run if found, nil otherwise.
//   - error: non-nil if lookup fails.
func (r *JobRunRepository) GetByID(ctx context.Context, id string) (*domain.JobRun, error) {
	var run domain.JobRun
	err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns the most recent runs, optionally filtered by job name.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - job: job name, or "" for every job.
//   - limit: maximum number of runs.
//
// Returns:
//   - []domain.JobRun: runs ordered newest first.
//   - error: non-nil if the query fails.
func (r *JobRunRepository) List(ctx context.Context, job string, limit int) ([]domain.JobRun, error) {
	var runs []domain.JobRun
	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if job != "" {
		q = q.Where("job = ?", job)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// MarkInterrupted fails runs of job still marked running. A run is left in
// that state only when its process died.
func (r *JobRunRepository) MarkInterrupted(ctx context.Context, job string) (int64, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&domain.JobRun{}).
		Where("job = ? AND status = ?", job, domain.JobStatusRunning).
		Updates(map[string]interface{}{
			"status":       domain.JobStatusFailed,
			"error_log":    "interrupted",
			"completed_at": &now,
		})
	return res.RowsAffected, res.Error
}
