package jobs

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/palletic/warevec/core"
	"github.com/palletic/warevec/storage"
)

// Registry is the single owner of all job records. It is safe for
// concurrent use by multiple running pipelines and API handlers.
type Registry struct {
	mu      sync.RWMutex
	jobs    map[string]*core.Job
	cancels map[string]context.CancelFunc
	archive storage.JobArchive
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithArchive sets an archive that receives every job on its terminal
// transition. Default is no archiving.
func WithArchive(archive storage.JobArchive) Option {
	return func(r *Registry) {
		r.archive = archive
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewRegistry creates an empty job registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		jobs:    make(map[string]*core.Job),
		cancels: make(map[string]context.CancelFunc),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "job-registry")
	return r
}

// Create allocates a new queued job and returns its id.
func (r *Registry) Create() string {
	id := uuid.New().String()

	r.mu.Lock()
	r.jobs[id] = &core.Job{
		ID:        id,
		Status:    core.JobQueued,
		Message:   "Job queued",
		CreatedAt: time.Now().UTC(),
	}
	r.mu.Unlock()

	r.logger.Info("job created", "job_id", id)
	return id
}

// Update is a partial mutation of a job's fields.
type Update func(*core.Job)

// WithStatus sets the job status. Status changes on a terminal job are
// ignored; counter and message updates still apply.
func WithStatus(status core.JobStatus) Update {
	return func(j *core.Job) { j.Status = status }
}

// WithProgress sets the progress percentage.
func WithProgress(progress float64) Update {
	return func(j *core.Job) { j.Progress = progress }
}

// WithProcessed sets the processed counter.
func WithProcessed(n int) Update {
	return func(j *core.Job) { j.Processed = n }
}

// WithFailed sets the failed counter.
func WithFailed(n int) Update {
	return func(j *core.Job) { j.Failed = n }
}

// WithTotal sets the total counter.
func WithTotal(n int) Update {
	return func(j *core.Job) { j.Total = n }
}

// WithMessage sets the human-readable status message.
func WithMessage(message string) Update {
	return func(j *core.Job) { j.Message = message }
}

// WithError sets the job's error string.
func WithError(errMsg string) Update {
	return func(j *core.Job) { j.Error = errMsg }
}

// Update applies partial updates to the identified job. Unknown ids are
// logged and ignored. The first transition to running stamps StartTime;
// the first transition to a terminal status stamps EndTime and hands the
// job to the archive. Both stamps are assigned exactly once.
func (r *Registry) Update(id string, updates ...Update) {
	var toArchive *core.Job

	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		r.logger.Warn("update for unknown job", "job_id", id)
		return
	}

	prevStatus := job.Status
	for _, update := range updates {
		update(job)
	}

	if prevStatus.Terminal() && job.Status != prevStatus {
		r.logger.Warn("ignoring status change on terminal job",
			"job_id", id, "from", prevStatus, "to", job.Status)
		job.Status = prevStatus
	}

	if job.Status == core.JobRunning && job.StartTime == nil {
		now := time.Now().UTC()
		job.StartTime = &now
	}

	if job.Status.Terminal() && job.EndTime == nil {
		now := time.Now().UTC()
		job.EndTime = &now
		delete(r.cancels, id)
		toArchive = job.Clone()
	}
	r.mu.Unlock()

	if toArchive != nil {
		fillDuration(toArchive)
		r.logger.Info("job finished",
			"job_id", id,
			"status", toArchive.Status,
			"processed", toArchive.Processed,
			"failed", toArchive.Failed)
		r.archiveJob(toArchive)
	}
}

// Get returns a snapshot of the identified job, with Duration computed
// from StartTime to EndTime, or to now for a running job.
func (r *Registry) Get(id string) (*core.Job, error) {
	r.mu.RLock()
	job, ok := r.jobs[id]
	if !ok {
		r.mu.RUnlock()
		return nil, ErrJobNotFound
	}
	snapshot := job.Clone()
	r.mu.RUnlock()

	fillDuration(snapshot)
	return snapshot, nil
}

// List returns snapshots of all tracked jobs, oldest first.
func (r *Registry) List() []*core.Job {
	r.mu.RLock()
	snapshots := make([]*core.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		snapshots = append(snapshots, job.Clone())
	}
	r.mu.RUnlock()

	for _, s := range snapshots {
		fillDuration(s)
	}

	slices.SortFunc(snapshots, func(x, y *core.Job) int {
		if c := x.CreatedAt.Compare(y.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(x.ID, y.ID)
	})

	return snapshots
}

// Attach stores the cancel handle for a job's running pipeline.
func (r *Registry) Attach(id string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[id]; !ok {
		r.logger.Warn("attach for unknown job", "job_id", id)
		return
	}
	r.cancels[id] = cancel
}

// Cancel invokes the stored cancel handle for a job, if any. The job's
// pipeline observes the cancellation at its next suspension point.
func (r *Registry) Cancel(id string) error {
	r.mu.Lock()
	cancel, ok := r.cancels[id]
	if ok {
		delete(r.cancels, id)
	}
	_, known := r.jobs[id]
	r.mu.Unlock()

	if !known {
		return ErrJobNotFound
	}
	if cancel != nil {
		cancel()
	}
	return nil
}

// Cleanup drops terminal jobs that finished more than maxAge ago from
// the in-memory map. Archived copies are unaffected. Returns the number
// of dropped jobs.
func (r *Registry) Cleanup(maxAge time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxAge)

	r.mu.Lock()
	removed := 0
	for id, job := range r.jobs {
		if job.Status.Terminal() && job.EndTime != nil && job.EndTime.Before(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}
	r.mu.Unlock()

	if removed > 0 {
		r.logger.Info("cleaned up finished jobs", "count", removed, "max_age", maxAge)
	}
	return removed
}

func (r *Registry) archiveJob(job *core.Job) {
	if r.archive == nil {
		return
	}
	if err := r.archive.ArchiveJob(context.Background(), job); err != nil {
		r.logger.Error("failed to archive job", "job_id", job.ID, "err", err)
	}
}

// fillDuration computes the snapshot's duration in seconds.
func fillDuration(job *core.Job) {
	if job.StartTime == nil {
		return
	}
	end := time.Now().UTC()
	if job.EndTime != nil {
		end = *job.EndTime
	}
	job.Duration = end.Sub(*job.StartTime).Seconds()
}
