package domain

import "time"

// JobStatus represents the status of a pipeline job run.
// Values include JobStatusPending, JobStatusRunning, JobStatusCompleted, and JobStatusFailed.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job names used for checkpoints and run history.
const (
	JobScrape   = "scrape"
	JobDiscover = "discover"
	JobMerge    = "merge"
	JobImages   = "images"
	JobPrices   = "prices"
	JobNews     = "news"
)

// JobRun records one execution of a pipeline job.
type JobRun struct {
	ID             string     `gorm:"type:text;primaryKey" json:"id"`
	Job            string     `gorm:"type:text;not null;index" json:"job"`
	Status         JobStatus  `gorm:"default:pending" json:"status"`
	TotalItems     int        `gorm:"default:0" json:"total_items"`
	ProcessedItems int        `gorm:"default:0" json:"processed_items"`
	SucceededItems int        `gorm:"default:0" json:"succeeded_items"`
	FailedItems    int        `gorm:"default:0" json:"failed_items"`
	Options        string     `gorm:"type:text" json:"options,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ErrorLog       string     `json:"error_log,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName returns the database table name for JobRun.
func (JobRun) TableName() string {
	return "job_runs"
}
