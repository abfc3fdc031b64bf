package archive

import (
	"context"
	"io"

	"univault/internal/domain/models"
	"univault/internal/domain/models/archive"
)

// AccessPolicy makes structural read/write/delete decisions over a
// canonical path and a principal. Decisions derive from path segments
// and role; only the HOD department rule consults the owner directory.
type AccessPolicy interface {
	CanRead(ctx context.Context, path string, p *models.Principal) bool
	CanWrite(ctx context.Context, path string, p *models.Principal) bool
	CanDelete(ctx context.Context, path string, p *models.Principal) bool
}

// FolderService materializes and deletes folders, keeping database rows
// and physical directories in step.
type FolderService interface {
	// Materialize ensures every folder along the canonical path exists,
	// both as a row and as a physical directory, and returns the leaf.
	Materialize(ctx context.Context, path string) (*archive.Folder, error)

	// CreateFolder creates a named folder under parentPath on behalf of
	// the principal. A duplicate sibling name is a conflict.
	CreateFolder(ctx context.Context, parentPath, name string, p *models.Principal) (*archive.CreateFolderResult, error)

	// DeleteFolder removes the folder at path together with its entire
	// subtree, database rows first, physical directory after commit.
	DeleteFolder(ctx context.Context, path string, p *models.Principal) (*archive.DeleteFolderResult, error)
}

// ListingService produces one page of a directory's merged contents.
type ListingService interface {
	List(ctx context.Context, path string, page, pageSize int, p *models.Principal) (*archive.DirectoryListing, error)
}

// TreeService builds a depth-limited, lazily expandable directory tree.
type TreeService interface {
	Tree(ctx context.Context, path string, depth int, p *models.Principal) (*archive.TreeNode, error)
}

// FileContent is an opened archive file ready to be streamed to the
// caller. Close releases the underlying handle.
type FileContent struct {
	Meta   *archive.UploadedFile
	Reader io.ReadSeekCloser
}

// FileService stores, opens and deletes uploaded files.
type FileService interface {
	Store(ctx context.Context, dirPath, originalFilename string, r io.Reader, size int64, notes string, p *models.Principal) (*archive.UploadedFile, error)
	Open(ctx context.Context, filePath string, p *models.Principal) (*FileContent, error)
	Delete(ctx context.Context, filePath string, p *models.Principal) error
}
