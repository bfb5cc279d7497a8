// Package jobs tracks ingestion-job lifecycle in memory.
//
// The Registry owns every Job record: callers receive ids and snapshots,
// never live references, and all mutation flows through Update. Status
// timestamps are assigned by the Registry itself, exactly once per
// transition. Terminal jobs are handed to an optional archive so job
// history survives restarts.
package jobs
