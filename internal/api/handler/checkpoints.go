package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/tractorhub/internal/api/middleware"
	"github.com/timmy/tractorhub/internal/atomicfile"
	"github.com/timmy/tractorhub/internal/checkpoint"
	"github.com/timmy/tractorhub/internal/config"
	"github.com/timmy/tractorhub/internal/domain"
)

// maxFailedKeys caps the failed keys listed in a checkpoint summary.
const maxFailedKeys = 50

// checkpointJobs are the jobs that keep a checkpoint file.
var checkpointJobs = map[string]bool{
	domain.JobScrape: true,
	domain.JobImages: true,
}

// CheckpointSummary describes the progress recorded for one job.
type CheckpointSummary struct {
	Job        string    `json:"job"`
	LastIndex  int       `json:"lastIndex"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Recorded   int       `json:"recorded"`
	Succeeded  int       `json:"succeeded"`
	Null       int       `json:"null"`
	Failed     int       `json:"failed"`
	FailedKeys []string  `json:"failedKeys"`
}

// CheckpointHandler summarises checkpoint files without decoding results.
type CheckpointHandler struct {
	fs    *atomicfile.FS
	paths config.PathsConfig
}

func NewCheckpointHandler(fs *atomicfile.FS, paths config.PathsConfig) *CheckpointHandler {
	return &CheckpointHandler{fs: fs, paths: paths}
}

// GetCheckpoint returns the summary for the job named in the path.
func (h *CheckpointHandler) GetCheckpoint(c *gin.Context) {
	job := c.Param("job")
	if !checkpointJobs[job] {
		c.JSON(http.StatusNotFound, gin.H{"error": "job has no checkpoint"})
		return
	}
	path := h.paths.Checkpoint(job)
	if !h.fs.Exists(path) {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkpoint not found"})
		return
	}

	state, err := checkpoint.NewFileStore[json.RawMessage](h.fs, path).Load(c.Request.Context())
	if err != nil {
		middleware.GetLogger(c).WithError(err).WithField("path", path).Error("Failed to read checkpoint")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read checkpoint"})
		return
	}
	c.JSON(http.StatusOK, Summarize(job, state))
}

// Summarize builds the summary of state.
func Summarize(job string, state *checkpoint.State[json.RawMessage]) CheckpointSummary {
	succeeded, null, failed := state.Counts()
	keys := state.FailedKeys()
	if len(keys) > maxFailedKeys {
		keys = keys[:maxFailedKeys]
	}
	return CheckpointSummary{
		Job:        job,
		LastIndex:  state.LastIndex,
		UpdatedAt:  state.UpdatedAt,
		Recorded:   len(state.Results),
		Succeeded:  succeeded,
		Null:       null,
		Failed:     failed,
		FailedKeys: keys,
	}
}
