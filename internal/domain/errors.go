package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface keeps the handler layer free of
// per-error-type switch statements.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	// ErrInvalidPath marks a path that failed syntax validation:
	// traversal segments, forbidden characters, oversized segments.
	// Always a client error, never retried.
	ErrInvalidPath = errors.New("invalid path")

	// ErrNotFound marks a missing filesystem entry or database row.
	// Also returned for read-denied paths so callers without read
	// rights cannot probe the tree structure.
	ErrNotFound = errors.New("not found")

	// ErrNotADirectory marks a path that resolved to a file where a
	// directory was required.
	ErrNotADirectory = errors.New("not a directory")

	// ErrNotAFile marks a path that resolved to a directory where a
	// file was required.
	ErrNotAFile = errors.New("not a file")

	// ErrUnauthorized marks a missing or invalid credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden marks an access-policy denial on a path the caller
	// is allowed to see.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict marks a duplicate sibling name on create.
	ErrConflict = errors.New("already exists")

	// ErrValidation marks invalid request input other than paths.
	ErrValidation = errors.New("validation failed")
)

// ConflictError carries details about the existing resource that caused
// a create to fail, so handlers can point callers at it.
type ConflictError struct {
	Message      string
	ResourceType string // "folder" or "file"
	ResourceID   string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
