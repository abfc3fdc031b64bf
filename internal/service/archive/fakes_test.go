package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"univault/internal/domain"
	models "univault/internal/domain/models/archive"
	"univault/internal/domain/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFolderRepo is an in-memory FolderRepository keyed by path.
type fakeFolderRepo struct {
	byPath map[string]*models.Folder
	nextID int

	createIfMissingCalls int
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{byPath: make(map[string]*models.Folder)}
}

func (f *fakeFolderRepo) Create(ctx context.Context, folder *models.Folder) error {
	if _, ok := f.byPath[folder.Path]; ok {
		return fmt.Errorf("folder %q: %w", folder.Path, domain.ErrConflict)
	}
	f.insert(folder)
	return nil
}

func (f *fakeFolderRepo) CreateIfMissing(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	f.createIfMissingCalls++
	if existing, ok := f.byPath[folder.Path]; ok {
		return existing, nil
	}
	f.insert(folder)
	return folder, nil
}

func (f *fakeFolderRepo) insert(folder *models.Folder) {
	f.nextID++
	folder.ID = fmt.Sprintf("folder-%d", f.nextID)
	folder.CreatedAt = time.Now()
	folder.UpdatedAt = folder.CreatedAt
	copied := *folder
	f.byPath[folder.Path] = &copied
}

func (f *fakeFolderRepo) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	for _, folder := range f.byPath {
		if folder.ID == id {
			copied := *folder
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
}

func (f *fakeFolderRepo) GetByPath(ctx context.Context, path string) (*models.Folder, error) {
	folder, ok := f.byPath[path]
	if !ok {
		return nil, fmt.Errorf("folder at %q: %w", path, domain.ErrNotFound)
	}
	copied := *folder
	return &copied, nil
}

func (f *fakeFolderRepo) ListChildren(ctx context.Context, parentID *string) ([]models.Folder, error) {
	var out []models.Folder
	for _, folder := range f.byPath {
		switch {
		case parentID == nil && folder.ParentID == nil:
			out = append(out, *folder)
		case parentID != nil && folder.ParentID != nil && *folder.ParentID == *parentID:
			out = append(out, *folder)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeFolderRepo) SubtreePaths(ctx context.Context, path string) ([]string, error) {
	var paths []string
	for p := range f.byPath {
		if p == path || strings.HasPrefix(p, path+"/") {
			paths = append(paths, p)
		}
	}
	sort.Slice(paths, func(i, j int) bool {
		if len(paths[i]) != len(paths[j]) {
			return len(paths[i]) > len(paths[j])
		}
		return paths[i] > paths[j]
	})
	return paths, nil
}

func (f *fakeFolderRepo) DeleteSubtree(ctx context.Context, path string) (int, error) {
	paths, _ := f.SubtreePaths(ctx, path)
	for _, p := range paths {
		delete(f.byPath, p)
	}
	return len(paths), nil
}

// fakeFileRepo is an in-memory FileRepository. It borrows the folder
// repo to resolve subtree deletes the way the SQL subquery does.
type fakeFileRepo struct {
	folders *fakeFolderRepo
	byID    map[string]*models.UploadedFile
	nextID  int
}

func newFakeFileRepo(folders *fakeFolderRepo) *fakeFileRepo {
	return &fakeFileRepo{folders: folders, byID: make(map[string]*models.UploadedFile)}
}

func (f *fakeFileRepo) Create(ctx context.Context, file *models.UploadedFile) error {
	order := 0
	for _, existing := range f.byID {
		if existing.FolderID == file.FolderID {
			if existing.StoredFilename == file.StoredFilename {
				return fmt.Errorf("file %q: %w", file.StoredFilename, domain.ErrConflict)
			}
			if existing.FileOrder > order {
				order = existing.FileOrder
			}
		}
	}
	f.nextID++
	file.ID = fmt.Sprintf("file-%d", f.nextID)
	file.FileOrder = order + 1
	file.CreatedAt = time.Now()
	file.UpdatedAt = file.CreatedAt
	copied := *file
	f.byID[file.ID] = &copied
	return nil
}

func (f *fakeFileRepo) GetByID(ctx context.Context, id string) (*models.UploadedFile, error) {
	file, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	copied := *file
	return &copied, nil
}

func (f *fakeFileRepo) GetByFolderAndName(ctx context.Context, folderID, storedFilename string) (*models.UploadedFile, error) {
	for _, file := range f.byID {
		if file.FolderID == folderID && file.StoredFilename == storedFilename {
			copied := *file
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("file %q: %w", storedFilename, domain.ErrNotFound)
}

func (f *fakeFileRepo) ListByFolder(ctx context.Context, folderID string) ([]models.UploadedFile, error) {
	var out []models.UploadedFile
	for _, file := range f.byID {
		if file.FolderID == folderID {
			out = append(out, *file)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileOrder < out[j].FileOrder })
	return out, nil
}

func (f *fakeFileRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeFileRepo) DeleteUnderFolderPath(ctx context.Context, path string) (int, error) {
	folderIDs := make(map[string]bool)
	for p, folder := range f.folders.byPath {
		if p == path || strings.HasPrefix(p, path+"/") {
			folderIDs[folder.ID] = true
		}
	}
	deleted := 0
	for id, file := range f.byID {
		if folderIDs[file.FolderID] {
			delete(f.byID, id)
			deleted++
		}
	}
	return deleted, nil
}

// fakeOwners maps owner segments to departments.
type fakeOwners struct {
	departments map[string]string
}

func (f *fakeOwners) DepartmentOf(ctx context.Context, ownerSegment string) (string, error) {
	department, ok := f.departments[ownerSegment]
	if !ok {
		return "", fmt.Errorf("owner %q: %w", ownerSegment, domain.ErrNotFound)
	}
	return department, nil
}

// fakeTx runs the function directly; the fakes have no transactions.
// The optional before hook runs ahead of the function and lets a test
// play a concurrent writer that sneaks in between lookup and commit.
type fakeTx struct {
	calls  int
	before func()
}

func (f *fakeTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	f.calls++
	if f.before != nil {
		f.before()
	}
	return fn(ctx)
}
