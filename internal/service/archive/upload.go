package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"univault/internal/domain"
	authModels "univault/internal/domain/models"
	models "univault/internal/domain/models/archive"
	archiveRepo "univault/internal/domain/repositories/archive"
	archiveSvc "univault/internal/domain/services/archive"
)

// Uploads stores, opens and deletes archive files, mirroring each
// physical file with an UploadedFile row. Stored filenames are
// sanitized and kept unique within their folder.
type Uploads struct {
	folders   archiveRepo.FolderRepository
	files     archiveRepo.FileRepository
	hierarchy archiveSvc.FolderService
	resolver  *Resolver
	policy    archiveSvc.AccessPolicy
	maxSize   int64
	logger    *slog.Logger
}

// NewUploads creates the file service.
func NewUploads(
	folders archiveRepo.FolderRepository,
	files archiveRepo.FileRepository,
	hierarchy archiveSvc.FolderService,
	resolver *Resolver,
	policy archiveSvc.AccessPolicy,
	maxSize int64,
	logger *slog.Logger,
) archiveSvc.FileService {
	return &Uploads{
		folders:   folders,
		files:     files,
		hierarchy: hierarchy,
		resolver:  resolver,
		policy:    policy,
		maxSize:   maxSize,
		logger:    logger,
	}
}

// Store writes the uploaded content under dirPath and records its row.
// The directory chain is materialized first, so uploading into a not
// yet existing course subfolder works in one call.
func (u *Uploads) Store(ctx context.Context, dirPath, originalFilename string, r io.Reader, size int64, notes string, principal *authModels.Principal) (*models.UploadedFile, error) {
	norm := u.resolver.Normalize(dirPath)
	if err := u.resolver.ValidateSyntax(norm); err != nil {
		return nil, err
	}
	if norm == "" {
		return nil, fmt.Errorf("%w: files must be stored inside a folder", domain.ErrValidation)
	}
	if size > u.maxSize {
		return nil, fmt.Errorf("%w: file exceeds the %d byte limit", domain.ErrValidation, u.maxSize)
	}

	if !u.policy.CanRead(ctx, norm, principal) {
		return nil, fmt.Errorf("directory at %q: %w", norm, domain.ErrNotFound)
	}
	if !u.policy.CanWrite(ctx, norm, principal) {
		return nil, fmt.Errorf("upload to %q: %w", norm, domain.ErrForbidden)
	}

	folder, err := u.hierarchy.Materialize(ctx, norm)
	if err != nil {
		return nil, err
	}

	stored, err := u.storedFilename(ctx, folder.ID, norm, originalFilename)
	if err != nil {
		return nil, err
	}

	fileURL := norm + "/" + stored
	abs, err := u.resolver.Resolve(fileURL)
	if err != nil {
		return nil, err
	}

	written, err := writeFile(abs, r)
	if err != nil {
		return nil, fmt.Errorf("write %q: %w", fileURL, err)
	}

	fileType := "application/octet-stream"
	if mtype, err := mimetype.DetectFile(abs); err == nil {
		fileType = mtype.String()
	}

	row := &models.UploadedFile{
		FolderID:         folder.ID,
		OriginalFilename: originalFilename,
		StoredFilename:   stored,
		FileURL:          fileURL,
		FileSize:         written,
		FileType:         fileType,
		UploaderID:       principal.ID,
		Notes:            notes,
	}

	if err := u.files.Create(ctx, row); err != nil {
		// The row is authoritative; without it the physical file is
		// unreachable, so take it back out.
		if rmErr := os.Remove(abs); rmErr != nil {
			u.logger.Error("orphaned upload cleanup failed", "path", fileURL, "error", rmErr)
		}
		return nil, err
	}

	u.logger.Info("file stored",
		"file_id", row.ID,
		"file_url", row.FileURL,
		"size", row.FileSize,
		"mime", row.FileType,
		"user_id", principal.ID,
	)

	return row, nil
}

// Open resolves an archive file for download.
func (u *Uploads) Open(ctx context.Context, filePath string, principal *authModels.Principal) (*archiveSvc.FileContent, error) {
	norm := u.resolver.Normalize(filePath)
	if err := u.resolver.ValidateSyntax(norm); err != nil {
		return nil, err
	}

	if !u.policy.CanRead(ctx, norm, principal) {
		return nil, fmt.Errorf("file at %q: %w", norm, domain.ErrNotFound)
	}

	meta, err := u.lookup(ctx, norm)
	if err != nil {
		return nil, err
	}

	abs, _, err := u.resolver.ResolveExistingFile(norm)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", norm, err)
	}

	return &archiveSvc.FileContent{Meta: meta, Reader: f}, nil
}

// Delete removes a file row and then its physical file. As with folder
// deletion, a physical failure after the row is gone is logged, not
// surfaced.
func (u *Uploads) Delete(ctx context.Context, filePath string, principal *authModels.Principal) error {
	norm := u.resolver.Normalize(filePath)
	if err := u.resolver.ValidateSyntax(norm); err != nil {
		return err
	}

	if !u.policy.CanRead(ctx, norm, principal) {
		return fmt.Errorf("file at %q: %w", norm, domain.ErrNotFound)
	}
	if !u.policy.CanDelete(ctx, norm, principal) {
		return fmt.Errorf("delete %q: %w", norm, domain.ErrForbidden)
	}

	meta, err := u.lookup(ctx, norm)
	if err != nil {
		return err
	}

	if err := u.files.Delete(ctx, meta.ID); err != nil {
		return err
	}

	if abs, rerr := u.resolver.Resolve(norm); rerr == nil {
		if rmErr := os.Remove(abs); rmErr != nil && !os.IsNotExist(rmErr) {
			u.logger.Error("physical file removal failed", "path", norm, "error", rmErr)
		}
	}

	u.logger.Info("file deleted", "file_id", meta.ID, "file_url", norm, "user_id", principal.ID)

	return nil
}

// lookup finds the UploadedFile row for a canonical file path.
func (u *Uploads) lookup(ctx context.Context, norm string) (*models.UploadedFile, error) {
	dir := u.resolver.ParentPath(norm)
	name := norm[strings.LastIndex(norm, "/")+1:]
	if dir == "" {
		return nil, fmt.Errorf("file at %q: %w", norm, domain.ErrNotFound)
	}

	folder, err := u.folders.GetByPath(ctx, dir)
	if err != nil {
		return nil, err
	}

	return u.files.GetByFolderAndName(ctx, folder.ID, name)
}

// storedFilename sanitizes the original name and uniquifies it within
// the folder. A collision gets a short random suffix rather than
// failing, so re-uploads of "notes.pdf" coexist.
func (u *Uploads) storedFilename(ctx context.Context, folderID, dirPath, original string) (string, error) {
	name := SanitizeFilename(original, u.resolver.maxSegment)

	taken, err := u.filenameTaken(ctx, folderID, dirPath, name)
	if err != nil {
		return "", err
	}
	if !taken {
		return name, nil
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	suffix := "-" + uuid.NewString()[:8]

	if len(base)+len(suffix)+len(ext) > u.resolver.maxSegment {
		base = base[:u.resolver.maxSegment-len(suffix)-len(ext)]
	}

	return base + suffix + ext, nil
}

func (u *Uploads) filenameTaken(ctx context.Context, folderID, dirPath, name string) (bool, error) {
	if _, err := u.files.GetByFolderAndName(ctx, folderID, name); err == nil {
		return true, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}

	// A physical leftover without a row would otherwise be silently
	// overwritten.
	abs, err := u.resolver.Resolve(dirPath + "/" + name)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(abs); err == nil {
		return true, nil
	}

	return false, nil
}

// SanitizeFilename strips path components and forbidden characters from
// an uploaded filename and bounds its length, preserving the extension.
func SanitizeFilename(original string, maxLength int) string {
	name := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	name = strings.TrimSpace(name)

	var b strings.Builder
	for _, c := range name {
		if c < 0x20 || c == 0x7f || strings.ContainsRune(forbiddenSegmentChars, c) || c == '/' {
			b.WriteRune('-')
			continue
		}
		b.WriteRune(c)
	}
	name = b.String()

	if name == "" || name == "." || name == ".." {
		name = "file"
	}

	if len(name) > maxLength {
		ext := filepath.Ext(name)
		if len(ext) >= maxLength {
			ext = ""
		}
		name = name[:maxLength-len(ext)] + ext
	}

	return name
}

// writeFile streams content to disk, returning the byte count.
func writeFile(abs string, r io.Reader) (int64, error) {
	f, err := os.Create(abs)
	if err != nil {
		return 0, err
	}

	written, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(abs)
		return 0, err
	}

	return written, nil
}
