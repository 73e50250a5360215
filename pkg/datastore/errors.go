package datastore

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrContentNotFound indicates a content record was not found
	ErrContentNotFound = errors.New("content not found")

	// ErrProjectNotFound indicates a project was not found or is not owned
	// by the calling tenant (the two cases are indistinguishable by design)
	ErrProjectNotFound = errors.New("project not found")

	// ErrUploadFailed indicates a blob upload operation failed
	ErrUploadFailed = errors.New("upload failed")

	// ErrDownloadFailed indicates a blob download operation failed
	ErrDownloadFailed = errors.New("download failed")
)

// ValidationError reports a missing or invalid request field. It is always
// returned before any store is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: field %s: %s", e.Field, e.Reason)
}

// StorageError represents an error from a blob store operation.
type StorageError struct {
	Key string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ContentError represents a record-store failure during a content operation.
type ContentError struct {
	ContentID uuid.UUID
	Op        string
	Err       error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("content operation %s failed for content %s: %v", e.Op, e.ContentID, e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// ProjectNotEmptyError blocks project deletion while content records still
// reference the project. Count carries the number of blocking records.
type ProjectNotEmptyError struct {
	ProjectID uuid.UUID
	Count     int64
}

func (e *ProjectNotEmptyError) Error() string {
	return fmt.Sprintf("project %s contains %d content items and cannot be deleted", e.ProjectID, e.Count)
}
