package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/palletic/warevec/core"
	"github.com/palletic/warevec/storage"
)

// finishedJob builds a completed job snapshot that finished at end.
func finishedJob(id string, end time.Time) *core.Job {
	start := end.Add(-time.Minute)
	return &core.Job{
		ID:        id,
		Status:    core.JobCompleted,
		Progress:  100,
		Processed: 40,
		Failed:    2,
		Total:     42,
		Message:   "Processing completed",
		CreatedAt: start.Add(-time.Second),
		StartTime: &start,
		EndTime:   &end,
	}
}

func TestArchiveJobRoundTrip(t *testing.T) {
	archive, err := NewMemoryArchive()
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}
	defer archive.Close()

	ctx := context.Background()
	end := time.Now().UTC().Truncate(time.Microsecond)
	job := finishedJob("job-1", end)

	if err := archive.ArchiveJob(ctx, job); err != nil {
		t.Fatalf("Failed to archive job: %v", err)
	}

	got, err := archive.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}

	if got.ID != job.ID {
		t.Fatalf("Expected id %q, got %q", job.ID, got.ID)
	}
	if got.Status != core.JobCompleted {
		t.Fatalf("Expected status %q, got %q", core.JobCompleted, got.Status)
	}
	if got.Processed != 40 || got.Failed != 2 || got.Total != 42 {
		t.Fatalf("Counters mismatch: %+v", got)
	}
	if got.EndTime == nil || !got.EndTime.Equal(end) {
		t.Fatalf("Expected end time %v, got %v", end, got.EndTime)
	}
}

func TestGetJobNotFound(t *testing.T) {
	archive, err := NewMemoryArchive()
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}
	defer archive.Close()

	_, err = archive.GetJob(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestArchiveJobRequiresID(t *testing.T) {
	archive, err := NewMemoryArchive()
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}
	defer archive.Close()

	ctx := context.Background()

	if err := archive.ArchiveJob(ctx, nil); err == nil {
		t.Fatal("Expected error for nil job")
	}
	if err := archive.ArchiveJob(ctx, &core.Job{}); err == nil {
		t.Fatal("Expected error for empty id")
	}
}

func TestListJobsNewestFirst(t *testing.T) {
	archive, err := NewMemoryArchive()
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}
	defer archive.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	// Archive out of order to prove ordering comes from the index.
	jobs := []*core.Job{
		finishedJob("job-old", now.Add(-2*time.Hour)),
		finishedJob("job-new", now),
		finishedJob("job-mid", now.Add(-1*time.Hour)),
	}
	for _, job := range jobs {
		if err := archive.ArchiveJob(ctx, job); err != nil {
			t.Fatalf("Failed to archive %s: %v", job.ID, err)
		}
	}

	listed, err := archive.ListJobs(ctx)
	if err != nil {
		t.Fatalf("Failed to list jobs: %v", err)
	}

	if len(listed) != 3 {
		t.Fatalf("Expected 3 jobs, got %d", len(listed))
	}
	want := []string{"job-new", "job-mid", "job-old"}
	for i, id := range want {
		if listed[i].ID != id {
			t.Fatalf("Position %d: expected %q, got %q", i, id, listed[i].ID)
		}
	}
}

func TestArchiveJobOverwrite(t *testing.T) {
	archive, err := NewMemoryArchive()
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}
	defer archive.Close()

	ctx := context.Background()
	end := time.Now().UTC().Truncate(time.Microsecond)

	first := finishedJob("job-1", end)
	first.Processed = 10
	if err := archive.ArchiveJob(ctx, first); err != nil {
		t.Fatalf("Failed to archive job: %v", err)
	}

	second := finishedJob("job-1", end)
	second.Processed = 42
	if err := archive.ArchiveJob(ctx, second); err != nil {
		t.Fatalf("Failed to re-archive job: %v", err)
	}

	got, err := archive.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if got.Processed != 42 {
		t.Fatalf("Expected latest snapshot, got processed=%d", got.Processed)
	}

	listed, err := archive.ListJobs(ctx)
	if err != nil {
		t.Fatalf("Failed to list jobs: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("Expected 1 job after overwrite, got %d", len(listed))
	}
}

func TestPurgeOlderThan(t *testing.T) {
	archive, err := NewMemoryArchive()
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}
	defer archive.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	for _, job := range []*core.Job{
		finishedJob("job-ancient", now.Add(-48*time.Hour)),
		finishedJob("job-stale", now.Add(-25*time.Hour)),
		finishedJob("job-fresh", now.Add(-1*time.Hour)),
	} {
		if err := archive.ArchiveJob(ctx, job); err != nil {
			t.Fatalf("Failed to archive %s: %v", job.ID, err)
		}
	}

	purged, err := archive.PurgeOlderThan(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Failed to purge: %v", err)
	}
	if purged != 2 {
		t.Fatalf("Expected 2 purged, got %d", purged)
	}

	if _, err := archive.GetJob(ctx, "job-stale"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected job-stale gone, got %v", err)
	}

	listed, err := archive.ListJobs(ctx)
	if err != nil {
		t.Fatalf("Failed to list jobs: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != "job-fresh" {
		t.Fatalf("Expected only job-fresh to remain, got %+v", listed)
	}

	// A second purge at the same cutoff removes nothing.
	purged, err = archive.PurgeOlderThan(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Failed to re-purge: %v", err)
	}
	if purged != 0 {
		t.Fatalf("Expected 0 purged, got %d", purged)
	}
}
