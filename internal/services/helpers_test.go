package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/justsurfingit/Resume-Journal/internal/database"
	"github.com/justsurfingit/Resume-Journal/internal/dtos"
	"github.com/justsurfingit/Resume-Journal/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "resume_test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// seedJob creates a job whose points are given in base order.
func seedJob(t *testing.T, jobs *JobService, title string, order int, points ...string) *models.Job {
	t.Helper()
	job, err := jobs.CreateJob(context.Background(), &dtos.JobRequest{
		Title:        title,
		Company:      title + " Inc",
		Location:     "Remote",
		StartDate:    "2020-01",
		Current:      true,
		DisplayOrder: &order,
		Points:       points,
	})
	require.NoError(t, err)
	require.Len(t, job.Points, len(points))
	return job
}

func intPtr(v int) *int { return &v }

func jobIDs(jobs []ResolvedJob) []uint {
	out := make([]uint, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.ID)
	}
	return out
}

func pointIDs(points []ResolvedPoint) []uint {
	out := make([]uint, 0, len(points))
	for _, p := range points {
		out = append(out, p.ID)
	}
	return out
}
