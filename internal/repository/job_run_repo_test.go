package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/timmy/tractorhub/internal/config"
	"github.com/timmy/tractorhub/internal/domain"
)

func newTestRepo(t *testing.T) *JobRunRepository {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "runs.db"),
		AutoMigrate: true,
	}
	db, err := InitDB(context.Background(), cfg)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewJobRunRepository(db)
}

func TestJobRunRepository(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	started := time.Now()
	runs := []*domain.JobRun{
		{ID: "run-1", Job: domain.JobScrape, Status: domain.JobStatusCompleted, StartedAt: &started},
		{ID: "run-2", Job: domain.JobImages, Status: domain.JobStatusRunning, StartedAt: &started},
		{ID: "run-3", Job: domain.JobScrape, Status: domain.JobStatusRunning, StartedAt: &started},
	}
	for _, run := range runs {
		if err := repo.Create(ctx, run); err != nil {
			t.Fatalf("Create(%s) error = %v", run.ID, err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, "run-2")
		if err != nil || got == nil || got.Job != domain.JobImages {
			t.Fatalf("GetByID() = %+v, %v", got, err)
		}
		missing, err := repo.GetByID(ctx, "nope")
		if err != nil || missing != nil {
			t.Errorf("GetByID(missing) = %+v, %v; want nil, nil", missing, err)
		}
	})

	t.Run("list filters and orders newest first", func(t *testing.T) {
		got, err := repo.List(ctx, domain.JobScrape, 10)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 2 || got[0].ID != "run-3" || got[1].ID != "run-1" {
			t.Errorf("List() = %+v", got)
		}
		all, err := repo.List(ctx, "", 2)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(all) != 2 {
			t.Errorf("List(limit 2) returned %d runs", len(all))
		}
	})

	t.Run("mark interrupted only touches the job", func(t *testing.T) {
		n, err := repo.MarkInterrupted(ctx, domain.JobScrape)
		if err != nil {
			t.Fatalf("MarkInterrupted() error = %v", err)
		}
		if n != 1 {
			t.Errorf("MarkInterrupted() = %d, want 1", n)
		}
		got, _ := repo.GetByID(ctx, "run-3")
		if got.Status != domain.JobStatusFailed || got.ErrorLog != "interrupted" {
			t.Errorf("run-3 = %+v", got)
		}
		other, _ := repo.GetByID(ctx, "run-2")
		if other.Status != domain.JobStatusRunning {
			t.Errorf("run-2 status = %s, want running", other.Status)
		}
	})

	t.Run("update saves counters", func(t *testing.T) {
		run, _ := repo.GetByID(ctx, "run-2")
		run.Status = domain.JobStatusCompleted
		run.SucceededItems = 7
		if err := repo.Update(ctx, run); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		got, _ := repo.GetByID(ctx, "run-2")
		if got.Status != domain.JobStatusCompleted || got.SucceededItems != 7 {
			t.Errorf("run-2 = %+v", got)
		}
	})
}
