package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/mux"

	"github.com/palletic/warevec/core"
	"github.com/palletic/warevec/ingestion"
	"github.com/palletic/warevec/jobs"
	"github.com/palletic/warevec/search"
)

// Handler holds the collaborators behind the HTTP endpoints.
type Handler struct {
	registry  *jobs.Registry
	pipeline  *ingestion.Pipeline
	searcher  *search.Searcher
	readiness *Readiness
	defaults  ingestion.Params
	version   string
	logger    *slog.Logger
}

// HandlerConfig wires a Handler.
type HandlerConfig struct {
	Registry *jobs.Registry
	Pipeline *ingestion.Pipeline
	Searcher *search.Searcher

	// Readiness is the startup probe result served by the health
	// endpoints. Nil reads as a probe that never ran.
	Readiness *Readiness

	// Defaults tune ingestion runs started over HTTP; request bodies
	// override individual fields per job.
	Defaults ingestion.Params

	Version string
	Logger  *slog.Logger
}

// NewHandler validates the wiring and creates a Handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.Registry == nil {
		return nil, ErrRegistryRequired
	}
	if cfg.Pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if cfg.Searcher == nil {
		return nil, ErrSearcherRequired
	}

	if cfg.Readiness == nil {
		cfg.Readiness = &Readiness{Dependencies: make(map[string]Dependency)}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Handler{
		registry:  cfg.Registry,
		pipeline:  cfg.Pipeline,
		searcher:  cfg.Searcher,
		readiness: cfg.Readiness,
		defaults:  cfg.Defaults,
		version:   cfg.Version,
		logger:    cfg.Logger.With("component", "http-server"),
	}, nil
}

// HandleRoot handles GET / requests.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]any{
		"service": "warevec",
		"version": h.version,
		"status":  "running",
	})
}

// processRequest tunes one ingestion job. Every field is optional and
// falls back to the configured defaults.
type processRequest struct {
	BatchSize  int     `json:"batch_size"`
	MaxWorkers int     `json:"max_workers"`
	Delay      float64 `json:"delay_between_batches"` // seconds
}

// HandleProcessMaterials handles POST /process-materials requests. The
// ingestion job runs in the background; the response carries the job id
// for polling.
func (h *Handler) HandleProcessMaterials(w http.ResponseWriter, r *http.Request) {
	if !h.readiness.Ready {
		sendError(w, http.StatusServiceUnavailable, "service not ready: "+h.readiness.Failure())
		return
	}

	// An empty body means run with the configured defaults.
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		sendError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	params := h.defaults
	if req.BatchSize > 0 {
		params.BatchSize = req.BatchSize
	}
	if req.MaxWorkers > 0 {
		params.MaxWorkers = req.MaxWorkers
	}
	if req.Delay > 0 {
		params.Delay = time.Duration(req.Delay * float64(time.Second))
	}

	id := h.registry.Create()
	go h.runJob(id, params)

	sendJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  id,
		"message": "Material processing started",
	})
}

// runJob drives one ingestion run and mirrors its progress into the
// registry. It runs in its own goroutine; the registry keeps the cancel
// handle for the job's lifetime.
func (h *Handler) runJob(id string, params ingestion.Params) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.registry.Attach(id, cancel)

	ingestionJobsActive.Inc()
	defer ingestionJobsActive.Dec()

	h.registry.Update(id,
		jobs.WithStatus(core.JobRunning),
		jobs.WithMessage("Processing material catalog"))

	params.OnProgress = func(progress float64, processed, total int) {
		h.registry.Update(id,
			jobs.WithProgress(progress),
			jobs.WithProcessed(processed),
			jobs.WithTotal(total))
	}

	summary, err := h.pipeline.Run(ctx, params)
	if err != nil {
		h.registry.Update(id,
			jobs.WithStatus(core.JobFailed),
			jobs.WithError(err.Error()),
			jobs.WithMessage("Ingestion failed"))
		ingestionJobsTotal.WithLabelValues(string(core.JobFailed)).Inc()
		return
	}

	status := core.JobCompleted
	message := fmt.Sprintf("Processed %d of %d materials", summary.Processed, summary.Total)
	updates := []jobs.Update{
		jobs.WithProgress(100),
		jobs.WithProcessed(summary.Processed),
		jobs.WithFailed(summary.Failed),
		jobs.WithTotal(summary.Total),
	}
	if !summary.Success {
		status = core.JobFailed
		message = "Every material failed to process"
		updates = append(updates, jobs.WithError(message))
	}
	updates = append(updates, jobs.WithStatus(status), jobs.WithMessage(message))

	h.registry.Update(id, updates...)
	ingestionJobsTotal.WithLabelValues(string(status)).Inc()
	materialsIndexed.Add(float64(summary.Processed))
}

// HandleJobStatus handles GET /job-status/{id} requests.
func (h *Handler) HandleJobStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job, err := h.registry.Get(id)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			sendError(w, http.StatusNotFound, "Job not found: "+id)
			return
		}
		sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sendJSON(w, http.StatusOK, job)
}

// HandleListJobs handles GET /jobs requests.
func (h *Handler) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	list := h.registry.List()

	snapshots := make(map[string]*core.Job, len(list))
	for _, job := range list {
		snapshots[job.ID] = job
	}

	sendJSON(w, http.StatusOK, map[string]any{
		"jobs":  snapshots,
		"count": len(snapshots),
	})
}

// searchRequest is the POST /search body. ScoreThreshold is a pointer
// so an explicit zero is distinguishable from an absent field; only the
// latter gets the default cutoff.
type searchRequest struct {
	Query          string            `json:"query"`
	Limit          int               `json:"limit"`
	ScoreThreshold *float32          `json:"score_threshold"`
	Filter         map[string]string `json:"filter"`
}

// HandleSearch handles POST /search requests.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if !h.readiness.Ready {
		sendError(w, http.StatusServiceUnavailable, "service not ready: "+h.readiness.Failure())
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	threshold := float32(search.DefaultScoreThreshold)
	if req.ScoreThreshold != nil {
		threshold = *req.ScoreThreshold
	}

	results, err := h.searcher.Search(r.Context(), search.Request{
		Query:          req.Query,
		Limit:          req.Limit,
		ScoreThreshold: threshold,
		Filter:         req.Filter,
	})
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			sendError(w, http.StatusBadRequest, "query must not be empty")
			return
		}
		h.logger.Error("search failed", "err", err)
		sendError(w, http.StatusInternalServerError, "search failed: "+err.Error())
		return
	}

	if results == nil {
		results = []core.SearchResult{}
	}
	sendJSON(w, http.StatusOK, map[string]any{
		"query":       req.Query,
		"results":     results,
		"total_found": len(results),
	})
}

// HandleHealth handles GET /health requests, serving the startup probe
// result.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !h.readiness.Ready {
		sendJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"error":  h.readiness.Failure(),
		})
		return
	}

	sendJSON(w, http.StatusOK, map[string]any{
		"status":           "healthy",
		"model":            h.readiness.Model,
		"vector_dimension": h.readiness.Dimension,
		"collection":       h.readiness.Collection,
	})
}

// HandleDependencies handles GET /dependencies requests.
func (h *Handler) HandleDependencies(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]any{
		"dependencies": h.readiness.Dependencies,
		"checked_at":   h.readiness.CheckedAt,
	})
}

// HandleSystemInfo handles GET /system-info requests.
func (h *Handler) HandleSystemInfo(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]any{
		"service":    "warevec",
		"version":    h.version,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
		"model":      h.readiness.Model,
		"collection": h.readiness.Collection,
		"ready":      h.readiness.Ready,
	})
}

// sendJSON writes a JSON response with the given status code.
func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// sendError writes a JSON error body with the given status code.
func sendError(w http.ResponseWriter, status int, msg string) {
	sendJSON(w, status, map[string]string{"error": msg})
}
