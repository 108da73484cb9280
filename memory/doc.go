// Package memory provides the per-user memory subsystem: a bounded
// in-process short-term conversation buffer and a retrieval-augmented
// long-term store, plus a shared plant-knowledge corpus queried the
// same way.
//
// Architecture:
//   - Store: vector storage backend (chromem-go locally, swappable)
//   - Manager: orchestrates buffer maintenance, retrieval, and commits
//
// Long-term records and the knowledge corpus live in the Store; records
// are partitioned per user key and never leak across users. Retrieval
// failures are soft: they are logged and surface as empty context, never
// as errors to the orchestration loop.
package memory
