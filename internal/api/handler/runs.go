package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/tractorhub/internal/api/middleware"
	"github.com/timmy/tractorhub/internal/domain"
)

// RunStore reads job-run history.
type RunStore interface {
	List(ctx context.Context, job string, limit int) ([]domain.JobRun, error)
	GetByID(ctx context.Context, id string) (*domain.JobRun, error)
}

// RunsHandler serves the job-run history.
type RunsHandler struct {
	runs RunStore
}

// NewRunsHandler creates a runs handler. runs may be nil when history is
// disabled; the endpoints then answer 503.
func NewRunsHandler(runs RunStore) *RunsHandler {
	return &RunsHandler{runs: runs}
}

// ListRunsRequest holds the query parameters of ListRuns.
type ListRunsRequest struct {
	Job   string `form:"job" binding:"omitempty,oneof=scrape discover merge images prices news"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=200"`
}

// ListRunsResponse is the body of ListRuns.
type ListRunsResponse struct {
	Runs  []domain.JobRun `json:"runs"`
	Total int             `json:"total"`
}

// ListRuns returns recent runs, newest first.
func (h *RunsHandler) ListRuns(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run history is disabled"})
		return
	}

	var req ListRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Limit == 0 {
		req.Limit = 20
	}

	runs, err := h.runs.List(c.Request.Context(), req.Job, req.Limit)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to list job runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	if runs == nil {
		runs = []domain.JobRun{}
	}
	c.JSON(http.StatusOK, ListRunsResponse{Runs: runs, Total: len(runs)})
}

// GetRun returns one run by id.
func (h *RunsHandler) GetRun(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run history is disabled"})
		return
	}

	run, err := h.runs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to get job run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get run"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}
