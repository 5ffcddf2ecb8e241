package core

import "fmt"

// UnsupportedFormatError is returned when an uploaded file declares an
// extension outside the supported set. The ingestion loop skips the file and
// keeps going.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %q", e.Format)
}

// ExtractionError wraps a format-specific parse failure for a single file.
type ExtractionError struct {
	File string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.File, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// EmbeddingServiceError is returned once the embedding backend has exhausted
// its retries. No record with a missing vector is ever upserted.
type EmbeddingServiceError struct {
	Err error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service: %v", e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }

// VectorStoreError reports a vector database failure. Inserted carries how
// many records of the current batch had already been written when the
// operation failed.
type VectorStoreError struct {
	Op       string
	Inserted int
	Err      error
}

func (e *VectorStoreError) Error() string {
	return fmt.Sprintf("vector store %s: %v", e.Op, e.Err)
}

func (e *VectorStoreError) Unwrap() error { return e.Err }

// GenerationError reports a failed or timed-out generative model call.
// Conversation history is left unmodified when it occurs.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
