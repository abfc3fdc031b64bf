package archive

import (
	"context"

	"univault/internal/domain/models/archive"
)

// FileRepository defines data access for uploaded file metadata.
// Stored filenames are unique within their folder.
type FileRepository interface {
	// Create inserts a new file row, assigning the next file order
	// within the folder. A duplicate stored filename in the same
	// folder fails with domain.ErrConflict.
	Create(ctx context.Context, file *archive.UploadedFile) error

	// GetByID retrieves a file by ID.
	GetByID(ctx context.Context, id string) (*archive.UploadedFile, error)

	// GetByFolderAndName retrieves a file by folder and stored filename.
	GetByFolderAndName(ctx context.Context, folderID, storedFilename string) (*archive.UploadedFile, error)

	// ListByFolder lists the files directly inside a folder.
	ListByFolder(ctx context.Context, folderID string) ([]archive.UploadedFile, error)

	// Delete removes a single file row.
	Delete(ctx context.Context, id string) error

	// DeleteUnderFolderPath removes every file row whose owning folder
	// sits at path or below it, returning the number of rows removed.
	DeleteUnderFolderPath(ctx context.Context, path string) (int, error)
}
