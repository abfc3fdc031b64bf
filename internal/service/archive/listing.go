package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"univault/internal/config"
	"univault/internal/domain"
	authModels "univault/internal/domain/models"
	models "univault/internal/domain/models/archive"
	archiveRepo "univault/internal/domain/repositories/archive"
	archiveSvc "univault/internal/domain/services/archive"
)

// ListingBuilder merges a physical directory scan with database
// metadata into one paginated, cache-tagged page. The database defines
// what exists and who may touch it; the scan only enriches
// presentation, so filesystem-only entries are shown flagged as
// orphaned while database rows without a physical target are excluded
// and surfaced as a consistency signal for the external repair sweep.
type ListingBuilder struct {
	folders  archiveRepo.FolderRepository
	files    archiveRepo.FileRepository
	resolver *Resolver
	policy   archiveSvc.AccessPolicy
	logger   *slog.Logger
}

// NewListingBuilder creates the directory listing service.
func NewListingBuilder(
	folders archiveRepo.FolderRepository,
	files archiveRepo.FileRepository,
	resolver *Resolver,
	policy archiveSvc.AccessPolicy,
	logger *slog.Logger,
) archiveSvc.ListingService {
	return &ListingBuilder{
		folders:  folders,
		files:    files,
		resolver: resolver,
		policy:   policy,
		logger:   logger,
	}
}

// List produces one page of the directory at path. Read denial is
// indistinguishable from the path not existing.
func (b *ListingBuilder) List(ctx context.Context, dirPath string, page, pageSize int, principal *authModels.Principal) (*models.DirectoryListing, error) {
	norm := b.resolver.Normalize(dirPath)
	if err := b.resolver.ValidateSyntax(norm); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = config.DefaultPageSize
	}
	if pageSize > config.MaxPageSize {
		pageSize = config.MaxPageSize
	}

	if !b.policy.CanRead(ctx, norm, principal) {
		return nil, fmt.Errorf("directory at %q: %w", norm, domain.ErrNotFound)
	}

	abs, dirInfo, err := b.resolver.ResolveExistingDir(norm)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("scan directory %q: %w", norm, err)
	}

	dbChildren, dbFiles, err := b.databaseView(ctx, norm)
	if err != nil {
		return nil, err
	}

	folderEntries, fileEntries := b.mergeEntries(ctx, norm, entries, dbChildren, dbFiles, principal)

	sort.Slice(folderEntries, func(i, j int) bool {
		return strings.ToLower(folderEntries[i].Name) < strings.ToLower(folderEntries[j].Name)
	})
	sort.Slice(fileEntries, func(i, j int) bool {
		return strings.ToLower(fileEntries[i].Name) < strings.ToLower(fileEntries[j].Name)
	})

	totalItems := len(folderEntries) + len(fileEntries)
	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	pageFolders, pageFiles := paginate(folderEntries, fileEntries, page, pageSize)

	listing := &models.DirectoryListing{
		Path:            norm,
		Name:            path.Base("/" + norm),
		ParentPath:      b.resolver.ParentPath(norm),
		Folders:         pageFolders,
		Files:           pageFiles,
		TotalItems:      totalItems,
		Page:            page,
		PageSize:        pageSize,
		TotalPages:      totalPages,
		HasMore:         page < totalPages,
		ETag:            directoryETag(dirInfo.ModTime(), entries),
		CanWrite:        b.policy.CanWrite(ctx, norm, principal),
		CanDelete:       norm != "" && b.policy.CanDelete(ctx, norm, principal),
		CanCreateFolder: b.policy.CanWrite(ctx, norm, principal),
	}
	if norm == "" {
		listing.Name = ""
	}

	return listing, nil
}

// databaseView loads the directory's own row, its child folder rows and
// its file rows. A directory missing from the database is tolerated:
// the scan still lists it, with every entry orphaned.
func (b *ListingBuilder) databaseView(ctx context.Context, norm string) (map[string]models.Folder, map[string]models.UploadedFile, error) {
	children := make(map[string]models.Folder)
	fileRows := make(map[string]models.UploadedFile)

	var dbFolder *models.Folder
	var parentID *string

	if norm != "" {
		folder, err := b.folders.GetByPath(ctx, norm)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return children, fileRows, nil
			}
			return nil, nil, err
		}
		dbFolder = folder
		parentID = &folder.ID
	}

	childFolders, err := b.folders.ListChildren(ctx, parentID)
	if err != nil {
		return nil, nil, err
	}
	for _, child := range childFolders {
		children[child.Name] = child
	}

	if dbFolder != nil {
		rows, err := b.files.ListByFolder(ctx, dbFolder.ID)
		if err != nil {
			return nil, nil, err
		}
		for _, row := range rows {
			fileRows[row.StoredFilename] = row
		}
	}

	return children, fileRows, nil
}

// mergeEntries walks the scan results, attaches database metadata and
// per-entry permissions, and reports database rows whose physical
// target has gone missing.
func (b *ListingBuilder) mergeEntries(
	ctx context.Context,
	norm string,
	entries []os.DirEntry,
	dbChildren map[string]models.Folder,
	dbFiles map[string]models.UploadedFile,
	principal *authModels.Principal,
) ([]models.FolderEntry, []models.FileEntry) {
	depth := len(splitSegments(norm))

	seenFolders := make(map[string]bool, len(entries))
	seenFiles := make(map[string]bool, len(entries))

	var folderEntries []models.FolderEntry
	var fileEntries []models.FileEntry

	for _, entry := range entries {
		name := entry.Name()
		childPath := name
		if norm != "" {
			childPath = norm + "/" + name
		}

		var modTime time.Time
		var size int64
		if info, err := entry.Info(); err == nil {
			modTime = info.ModTime()
			size = info.Size()
		}

		if entry.IsDir() {
			seenFolders[name] = true

			fe := models.FolderEntry{
				Name:            name,
				Path:            childPath,
				Type:            models.FolderTypeForDepth(depth),
				Orphaned:        true,
				CanWrite:        b.policy.CanWrite(ctx, childPath, principal),
				CanDelete:       b.policy.CanDelete(ctx, childPath, principal),
				CanCreateFolder: b.policy.CanWrite(ctx, childPath, principal),
				ModifiedAt:      modTime,
			}
			if row, ok := dbChildren[name]; ok {
				fe.Orphaned = false
				fe.EntityID = row.ID
				fe.Type = row.Type
			}
			folderEntries = append(folderEntries, fe)
			continue
		}

		seenFiles[name] = true

		fileEntry := models.FileEntry{
			Name:       name,
			Path:       childPath,
			FileSize:   size,
			Orphaned:   true,
			CanWrite:   b.policy.CanWrite(ctx, childPath, principal),
			CanDelete:  b.policy.CanDelete(ctx, childPath, principal),
			ModifiedAt: modTime,
		}
		if row, ok := dbFiles[name]; ok {
			fileEntry.Orphaned = false
			fileEntry.EntityID = row.ID
			fileEntry.OriginalFilename = row.OriginalFilename
			fileEntry.FileType = row.FileType
		}
		fileEntries = append(fileEntries, fileEntry)
	}

	// Database rows the scan did not see: excluded from the page,
	// logged for the out-of-scope repair sweep.
	for name, row := range dbChildren {
		if !seenFolders[name] {
			b.logger.Warn("folder row has no physical directory",
				"path", row.Path,
				"folder_id", row.ID,
			)
		}
	}
	for name, row := range dbFiles {
		if !seenFiles[name] {
			b.logger.Warn("file row has no physical file",
				"file_url", row.FileURL,
				"file_id", row.ID,
			)
		}
	}

	return folderEntries, fileEntries
}

// paginate slices one page out of the combined folders-then-files
// ordering, returning the folder and file portions separately.
func paginate(folders []models.FolderEntry, files []models.FileEntry, page, pageSize int) ([]models.FolderEntry, []models.FileEntry) {
	total := len(folders) + len(files)
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	pageFolders := make([]models.FolderEntry, 0)
	pageFiles := make([]models.FileEntry, 0)

	for i := start; i < end; i++ {
		if i < len(folders) {
			pageFolders = append(pageFolders, folders[i])
		} else {
			pageFiles = append(pageFiles, files[i-len(folders)])
		}
	}

	return pageFolders, pageFiles
}
