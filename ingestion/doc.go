// Package ingestion provides pipeline orchestration for indexing the
// material catalog into the vector store.
//
// The Pipeline type manages one ingestion run end to end:
//   - Fetching the full catalog from the configured source
//   - Building a retrieval document and embedding for each record
//   - Upserting the resulting points batch by batch
//
// Records within a batch are encoded concurrently on a bounded worker pool.
// Item-level and batch-level failures are counted and absorbed into the
// run's Summary; only catalog or collection failures abort a run.
package ingestion
