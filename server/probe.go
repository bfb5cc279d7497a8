package server

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/palletic/warevec/ai"
	"github.com/palletic/warevec/storage"
)

// Probe statuses reported per collaborator.
const (
	StatusAvailable   = "available"
	StatusUnavailable = "unavailable"
	StatusDisabled    = "disabled"
)

// Collaborator names used as keys in Readiness.Dependencies.
const (
	depEmbedding   = "embedding_model"
	depVectorStore = "vector_store"
	depArchive     = "job_archive"
)

const probeTimeout = 10 * time.Second

// Dependency describes one collaborator's probe outcome.
type Dependency struct {
	Status string `json:"status"`
	Info   string `json:"info,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Readiness is the typed outcome of the startup capability probe. It is
// computed once when the service starts and served unchanged by the
// health and dependency endpoints.
type Readiness struct {
	Ready        bool                  `json:"ready"`
	Model        string                `json:"model"`
	Dimension    int                   `json:"vector_dimension"`
	Collection   string                `json:"collection"`
	CheckedAt    time.Time             `json:"checked_at"`
	Dependencies map[string]Dependency `json:"dependencies"`
}

// Failure returns what is keeping the service from being ready, or the
// empty string when it is ready.
func (r *Readiness) Failure() string {
	if r.Ready {
		return ""
	}
	for _, name := range []string{depEmbedding, depVectorStore} {
		if dep, ok := r.Dependencies[name]; ok && dep.Status == StatusUnavailable {
			return name + ": " + dep.Error
		}
	}
	return "startup probe has not run"
}

// ProbeTargets names the collaborators checked at startup.
type ProbeTargets struct {
	Embedder ai.Embedder
	Index    storage.VectorIndex

	// Archive is optional; nil reports the job archive as disabled.
	Archive storage.JobArchive

	// Model and Collection annotate the readiness result for the health
	// and system-info endpoints.
	Model      string
	Collection string
}

// RunProbe checks every collaborator once and returns the readiness the
// health endpoints serve. A failing collaborator degrades the result,
// it never fails the call. The service is ready when the embedding
// model and the vector store are both available; the archive is
// informational only.
func RunProbe(ctx context.Context, targets ProbeTargets) *Readiness {
	r := &Readiness{
		Model:        targets.Model,
		Collection:   targets.Collection,
		CheckedAt:    time.Now().UTC(),
		Dependencies: make(map[string]Dependency),
	}

	var embedDep, storeDep, archiveDep Dependency

	// Checks run independently; one failing collaborator must not keep
	// the probe from reporting on the others.
	var g errgroup.Group
	g.Go(func() error {
		embedDep = probeEmbedder(ctx, targets.Embedder)
		return nil
	})
	g.Go(func() error {
		storeDep = probeIndex(ctx, targets.Index)
		return nil
	})
	g.Go(func() error {
		archiveDep = probeArchive(ctx, targets.Archive)
		return nil
	})
	_ = g.Wait()

	if embedDep.Status == StatusAvailable {
		r.Dimension = targets.Embedder.Dimension()
	}

	// With both sides up, make sure the collection exists and matches
	// the model's vector width before declaring the service ready.
	if embedDep.Status == StatusAvailable && storeDep.Status == StatusAvailable {
		ensureCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		if err := targets.Index.EnsureCollection(ensureCtx, r.Dimension); err != nil {
			storeDep = Dependency{Status: StatusUnavailable, Error: err.Error()}
		}
		cancel()
	}

	r.Dependencies[depEmbedding] = embedDep
	r.Dependencies[depVectorStore] = storeDep
	r.Dependencies[depArchive] = archiveDep
	r.Ready = embedDep.Status == StatusAvailable && storeDep.Status == StatusAvailable
	return r
}

func probeEmbedder(ctx context.Context, embedder ai.Embedder) Dependency {
	if embedder == nil {
		return Dependency{Status: StatusUnavailable, Error: "no embedder configured"}
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	vec, err := embedder.EmbedQuery(probeCtx, "readiness probe")
	if err != nil {
		return Dependency{Status: StatusUnavailable, Error: err.Error()}
	}
	return Dependency{
		Status: StatusAvailable,
		Info:   fmt.Sprintf("%d-dimensional vectors", len(vec)),
	}
}

func probeIndex(ctx context.Context, index storage.VectorIndex) Dependency {
	if index == nil {
		return Dependency{Status: StatusUnavailable, Error: "no vector index configured"}
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := index.Health(probeCtx); err != nil {
		return Dependency{Status: StatusUnavailable, Error: err.Error()}
	}
	return Dependency{Status: StatusAvailable, Info: "reachable"}
}

func probeArchive(ctx context.Context, archive storage.JobArchive) Dependency {
	if archive == nil {
		return Dependency{Status: StatusDisabled, Info: "job history is in-memory only"}
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	archived, err := archive.ListJobs(probeCtx)
	if err != nil {
		return Dependency{Status: StatusUnavailable, Error: err.Error()}
	}
	return Dependency{
		Status: StatusAvailable,
		Info:   fmt.Sprintf("%d archived jobs", len(archived)),
	}
}
