package archive

import (
	"context"

	"univault/internal/domain/models/archive"
)

// FolderRepository defines data access for the persisted folder tree.
// The folders table carries a uniqueness constraint on path; concurrent
// creators of the same path converge on a single row.
type FolderRepository interface {
	// Create inserts a new folder row. A duplicate path or duplicate
	// sibling name fails with domain.ErrConflict.
	Create(ctx context.Context, folder *archive.Folder) error

	// CreateIfMissing inserts the folder unless a row with the same
	// path already exists, in which case the existing row is returned.
	// Losing a concurrent creation race is not an error.
	CreateIfMissing(ctx context.Context, folder *archive.Folder) (*archive.Folder, error)

	// GetByID retrieves a folder by ID.
	GetByID(ctx context.Context, id string) (*archive.Folder, error)

	// GetByPath retrieves a folder by its canonical path.
	GetByPath(ctx context.Context, path string) (*archive.Folder, error)

	// ListChildren lists immediate child folders. A nil parentID lists
	// root-level folders.
	ListChildren(ctx context.Context, parentID *string) ([]archive.Folder, error)

	// SubtreePaths returns the canonical paths of the folder at path
	// and every descendant, deepest first.
	SubtreePaths(ctx context.Context, path string) ([]string, error)

	// DeleteSubtree removes the folder at path and every descendant
	// row, deepest first, returning the number of rows removed.
	DeleteSubtree(ctx context.Context, path string) (int, error)
}
