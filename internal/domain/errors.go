package domain

import "errors"

// Input errors reject the single offending operation without corrupting
// index or run state.
var (
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrDuplicateChunk    = errors.New("duplicate chunk identifier")
	ErrUnknownChunk      = errors.New("unknown chunk identifier")
	ErrInconsistentK     = errors.New("inconsistent k between ranking and evaluation")
)

// Collaborator errors are retried at the call site; on exhaustion the
// affected query degrades or fails on its own, never the whole run.
var ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

// State errors are fatal to the specific operation.
var (
	ErrRunCollision = errors.New("run identifier already exists")
	ErrRunClosed    = errors.New("run already finalized")
	ErrNotFound     = errors.New("record not found")
)
