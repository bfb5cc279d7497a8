package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for indexed points.
// It is taken from the catalog record's numeric id or derived from the
// material code via content hashing.
type ID uint64

// IDFromCode generates a deterministic ID from a material code using BLAKE2b
// hashing. Identical codes always produce identical IDs, which keeps upserts
// idempotent for records that lack a numeric identifier.
func IDFromCode(code string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(code))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Stock status values recognized by the document builder. The catalog may
// deliver other values; those render with neutral phrasing.
const (
	StockStatusCritical = "critical"
	StockStatusOver     = "over"
	StockStatusNormal   = "normal"
)

// MaterialRecord is a single material as delivered by the catalog API.
// Records are read-only inputs; the pipeline never writes them back.
// Numeric fields are pointers so an absent value is distinguishable from
// zero.
type MaterialRecord struct {
	ID              int64    `json:"id"`
	MaterialNo      string   `json:"materialNo"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	Type            string   `json:"type"`
	AddressRackName string   `json:"addressRackName"`
	StorageName     string   `json:"storageName"`
	Plant           string   `json:"plant"`
	Warehouse       string   `json:"warehouse"`
	Supplier        string   `json:"supplier"`
	Packaging       string   `json:"packaging"`
	PackagingUnit   *float64 `json:"packagingUnit"`
	UOM             string   `json:"uom"`
	Price           *float64 `json:"price"`
	MinOrder        *float64 `json:"minOrder"`
	MRPType         string   `json:"mrpType"`
	MinStock        *float64 `json:"minStock"`
	MaxStock        *float64 `json:"maxStock"`
	Stock           *float64 `json:"stock"`
	StockStatus     string   `json:"stockStatus"`
	LeadShift       *float64 `json:"leadShift"`
	LeadTime        *float64 `json:"leadTime"`
	StockUpdatedAt  string   `json:"stockUpdatedAt"`
	StockUpdatedBy  string   `json:"stockUpdatedBy"`
}

// PointID derives the upsert key for this record. The catalog's numeric id
// wins when present; otherwise the id is hashed from the material code.
// Records with neither fail validation before reaching the index.
func (m *MaterialRecord) PointID() ID {
	if m.ID > 0 {
		return ID(m.ID)
	}
	return IDFromCode(m.MaterialNo)
}

// RetrievalDocument is the derived representation of a material prepared
// for embedding. Text is the natural-language rendering; Payload is the
// display-ready field copy stored alongside the vector, including the
// generated text for debuggability.
type RetrievalDocument struct {
	Text    string
	Payload map[string]any
}

// IndexedPoint is one vector plus payload, keyed by ID. Upserts are
// idempotent: re-ingesting the same record overwrites the prior point.
type IndexedPoint struct {
	ID      ID
	Vector  []float32
	Payload map[string]any
}

// JobStatus is the lifecycle state of an ingestion job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the status is a final state.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Job tracks one ingestion run. Instances are owned by the job registry;
// everything handed to callers is a snapshot copy.
type Job struct {
	ID        string     `json:"id"`
	Status    JobStatus  `json:"status"`
	Progress  float64    `json:"progress"`
	Processed int        `json:"processed"`
	Failed    int        `json:"failed"`
	Total     int        `json:"total"`
	Message   string     `json:"message"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Duration is seconds from StartTime to EndTime, or to now for a
	// running job. Populated on snapshots only.
	Duration float64 `json:"duration,omitempty"`
}

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	c := *j
	if j.StartTime != nil {
		t := *j.StartTime
		c.StartTime = &t
	}
	if j.EndTime != nil {
		t := *j.EndTime
		c.EndTime = &t
	}
	return &c
}

// SearchResult is one hit from the vector index. Result sets are ordered
// by descending score.
type SearchResult struct {
	ID      ID             `json:"id"`
	Score   float32        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// Summary describes the outcome of one full pipeline run.
// Success is true unless every record failed; an empty catalog counts as
// success.
type Summary struct {
	Total     int
	Processed int
	Failed    int
	Duration  time.Duration
	Success   bool
}
