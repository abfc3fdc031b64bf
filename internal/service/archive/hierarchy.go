package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"univault/internal/domain"
	models "univault/internal/domain/models/archive"
	authModels "univault/internal/domain/models"
	"univault/internal/domain/repositories"
	archiveRepo "univault/internal/domain/repositories/archive"
	archiveSvc "univault/internal/domain/services/archive"
)

// Hierarchy keeps the persisted folder tree and the physical directory
// tree in step. The database is authoritative for identity and
// permissions; directories mirror it.
type Hierarchy struct {
	folders  archiveRepo.FolderRepository
	files    archiveRepo.FileRepository
	resolver *Resolver
	policy   archiveSvc.AccessPolicy
	tx       repositories.TransactionManager
	logger   *slog.Logger
}

// NewHierarchy creates the folder hierarchy service.
func NewHierarchy(
	folders archiveRepo.FolderRepository,
	files archiveRepo.FileRepository,
	resolver *Resolver,
	policy archiveSvc.AccessPolicy,
	tx repositories.TransactionManager,
	logger *slog.Logger,
) archiveSvc.FolderService {
	return &Hierarchy{
		folders:  folders,
		files:    files,
		resolver: resolver,
		policy:   policy,
		tx:       tx,
		logger:   logger,
	}
}

// Materialize ensures a row and a physical directory exist for every
// segment of the canonical path and returns the leaf folder. Already
// materialized segments are returned as-is, so the operation is
// idempotent; concurrent materializers of the same path converge on one
// row through the path uniqueness constraint.
func (h *Hierarchy) Materialize(ctx context.Context, path string) (*models.Folder, error) {
	abs, err := h.resolver.Resolve(path)
	if err != nil {
		return nil, err
	}

	norm := h.resolver.Normalize(path)
	if norm == "" {
		return nil, fmt.Errorf("%w: cannot materialize the storage root", domain.ErrInvalidPath)
	}

	segments := splitSegments(norm)

	var leaf *models.Folder
	var parentID *string
	current := ""

	for depth, segment := range segments {
		if current == "" {
			current = segment
		} else {
			current = current + "/" + segment
		}

		folder := &models.Folder{
			Path:     current,
			Name:     segment,
			Type:     models.FolderTypeForDepth(depth),
			ParentID: parentID,
		}
		applyScope(folder, segments, depth)

		created, err := h.folders.CreateIfMissing(ctx, folder)
		if err != nil {
			return nil, fmt.Errorf("materialize %q: %w", current, err)
		}

		parentID = &created.ID
		leaf = created
	}

	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create directory %q: %w", norm, err)
	}

	return leaf, nil
}

// applyScope fills the scoping references a folder inherits from its
// position: every node under a year knows its year, and so on.
func applyScope(folder *models.Folder, segments []string, depth int) {
	if depth >= 0 && len(segments) > 0 {
		folder.AcademicYear = &segments[0]
	}
	if depth >= 1 {
		folder.Semester = &segments[1]
	}
	if depth >= 2 {
		folder.OwnerID = &segments[2]
	}
	if depth >= 3 {
		folder.CourseCode = &segments[3]
	}
}

// CreateFolder creates a named folder under parentPath on behalf of the
// principal. The parent chain is materialized as needed. A sibling with
// the same name is a conflict; losing a concurrent creation race is
// reported as success with the surviving folder.
func (h *Hierarchy) CreateFolder(ctx context.Context, parentPath, name string, principal *authModels.Principal) (*models.CreateFolderResult, error) {
	parent := h.resolver.Normalize(parentPath)

	if err := validateFolderName(name, h.resolver.maxSegment); err != nil {
		return nil, err
	}

	target := name
	if parent != "" {
		target = parent + "/" + name
	}
	if err := h.resolver.ValidateSyntax(target); err != nil {
		return nil, err
	}

	if !h.policy.CanRead(ctx, parent, principal) {
		return nil, fmt.Errorf("folder at %q: %w", parent, domain.ErrNotFound)
	}
	if !h.policy.CanWrite(ctx, parent, principal) {
		return nil, fmt.Errorf("create in %q: %w", parent, domain.ErrForbidden)
	}

	// Sibling-name uniqueness: an explicit create of an existing
	// folder is a conflict, unlike idempotent materialization.
	if existing, err := h.folders.GetByPath(ctx, target); err == nil {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("a folder named %q already exists in this location", name),
			ResourceType: "folder",
			ResourceID:   existing.ID,
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	folder, err := h.Materialize(ctx, target)
	if err != nil {
		return nil, err
	}

	h.logger.Info("folder created",
		"id", folder.ID,
		"path", folder.Path,
		"type", folder.Type,
		"user_id", principal.ID,
	)

	return &models.CreateFolderResult{
		Status:     "created",
		FullPath:   folder.Path,
		FolderName: folder.Name,
		FolderID:   folder.ID,
		CreatedAt:  folder.CreatedAt,
	}, nil
}

// DeleteFolder removes the folder at path with its entire subtree.
// File rows go first, then folder rows deepest-first, all in one
// transaction; the physical subtree is removed only after the commit.
// A physical removal failure is logged and reported as success - the
// database, which governs listings and permissions, is already
// consistent, and the stray directory is left for the external cleanup
// sweep.
func (h *Hierarchy) DeleteFolder(ctx context.Context, path string, principal *authModels.Principal) (*models.DeleteFolderResult, error) {
	norm := h.resolver.Normalize(path)
	if err := h.resolver.ValidateSyntax(norm); err != nil {
		return nil, err
	}
	if norm == "" {
		return nil, fmt.Errorf("%w: cannot delete the storage root", domain.ErrInvalidPath)
	}

	if !h.policy.CanRead(ctx, norm, principal) {
		return nil, fmt.Errorf("folder at %q: %w", norm, domain.ErrNotFound)
	}

	folder, err := h.folders.GetByPath(ctx, norm)
	if err != nil {
		return nil, err
	}

	if !h.policy.CanDelete(ctx, norm, principal) {
		return nil, fmt.Errorf("delete %q: %w", norm, domain.ErrForbidden)
	}

	var filesDeleted, foldersDeleted int
	err = h.tx.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		filesDeleted, err = h.files.DeleteUnderFolderPath(txCtx, norm)
		if err != nil {
			return err
		}
		foldersDeleted, err = h.folders.DeleteSubtree(txCtx, norm)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("delete folder %q: %w", norm, err)
	}

	// Physical removal happens outside the transaction. The committed
	// database deletion is never rolled back for a filesystem failure.
	if abs, rerr := h.resolver.Resolve(norm); rerr == nil {
		if rmErr := os.RemoveAll(abs); rmErr != nil {
			h.logger.Error("physical directory removal failed after commit",
				"path", norm,
				"error", rmErr,
			)
		}
	}

	// A concurrent delete can empty the subtree between the lookup and
	// the transaction, leaving zero rows for this one to remove.
	subfoldersDeleted := foldersDeleted - 1
	if subfoldersDeleted < 0 {
		subfoldersDeleted = 0
	}

	h.logger.Info("folder deleted",
		"path", norm,
		"files_deleted", filesDeleted,
		"subfolders_deleted", subfoldersDeleted,
		"user_id", principal.ID,
	)

	return &models.DeleteFolderResult{
		Status:            "deleted",
		DeletedPath:       norm,
		FolderName:        folder.Name,
		FilesDeleted:      filesDeleted,
		SubfoldersDeleted: subfoldersDeleted,
		DeletedAt:         time.Now(),
	}, nil
}

// validateFolderName checks a single user-supplied folder name.
func validateFolderName(name string, maxLength int) error {
	if name == "" {
		return fmt.Errorf("%w: folder name cannot be empty", domain.ErrValidation)
	}
	if len(name) > maxLength {
		return fmt.Errorf("%w: folder name exceeds %d characters", domain.ErrValidation, maxLength)
	}
	if len(splitSegments(name)) != 1 {
		return fmt.Errorf("%w: folder name cannot contain separators", domain.ErrValidation)
	}
	return nil
}
