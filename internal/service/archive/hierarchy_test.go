package archive

import (
	"context"
	"errors"
	"os"
	"testing"

	"univault/internal/domain"
	models "univault/internal/domain/models/archive"
)

type hierarchyFixture struct {
	folders  *fakeFolderRepo
	files    *fakeFileRepo
	resolver *Resolver
	tx       *fakeTx
	svc      *Hierarchy
}

func newHierarchyFixture(t *testing.T) *hierarchyFixture {
	t.Helper()

	folders := newFakeFolderRepo()
	files := newFakeFileRepo(folders)
	resolver := newTestResolver(t)
	owners := &fakeOwners{departments: map[string]string{"P1": "CS", "Jane Doe": "CS", "P2": "MATH"}}
	policy := NewPolicy(resolver, owners, testLogger())
	tx := &fakeTx{}

	svc := NewHierarchy(folders, files, resolver, policy, tx, testLogger()).(*Hierarchy)
	return &hierarchyFixture{folders: folders, files: files, resolver: resolver, tx: tx, svc: svc}
}

func TestMaterialize(t *testing.T) {
	fx := newHierarchyFixture(t)
	ctx := context.Background()

	leaf, err := fx.svc.Materialize(ctx, "2023-2024/first/P1/CS101")
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	if leaf.Path != "2023-2024/first/P1/CS101" {
		t.Errorf("leaf path = %q", leaf.Path)
	}
	if leaf.Type != models.FolderTypeCourse {
		t.Errorf("leaf type = %q, want COURSE", leaf.Type)
	}
	if len(fx.folders.byPath) != 4 {
		t.Errorf("folder rows = %d, want 4", len(fx.folders.byPath))
	}

	// Intermediate rows carry their structural types and scope.
	year, err := fx.folders.GetByPath(ctx, "2023-2024")
	if err != nil {
		t.Fatalf("year row missing: %v", err)
	}
	if year.Type != models.FolderTypeYear || year.ParentID != nil {
		t.Errorf("year row = %+v", year)
	}
	owner, err := fx.folders.GetByPath(ctx, "2023-2024/first/P1")
	if err != nil {
		t.Fatalf("owner row missing: %v", err)
	}
	if owner.Type != models.FolderTypeProfessorRoot {
		t.Errorf("owner type = %q", owner.Type)
	}
	if owner.OwnerID == nil || *owner.OwnerID != "P1" {
		t.Errorf("owner scope = %v", owner.OwnerID)
	}
	if leaf.CourseCode == nil || *leaf.CourseCode != "CS101" {
		t.Errorf("course scope = %v", leaf.CourseCode)
	}

	// The physical directory chain exists.
	abs, err := fx.resolver.Resolve("2023-2024/first/P1/CS101")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		t.Errorf("physical directory missing: %v", err)
	}
}

func TestMaterializeIdempotent(t *testing.T) {
	fx := newHierarchyFixture(t)
	ctx := context.Background()

	first, err := fx.svc.Materialize(ctx, "2023-2024/first/P1")
	if err != nil {
		t.Fatalf("first Materialize: %v", err)
	}
	second, err := fx.svc.Materialize(ctx, "2023-2024/first/P1")
	if err != nil {
		t.Fatalf("second Materialize: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("leaf IDs differ: %q vs %q", first.ID, second.ID)
	}
	if len(fx.folders.byPath) != 3 {
		t.Errorf("folder rows = %d, want 3", len(fx.folders.byPath))
	}
}

func TestMaterializeRejectsRootAndTraversal(t *testing.T) {
	fx := newHierarchyFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.Materialize(ctx, ""); !errors.Is(err, domain.ErrInvalidPath) {
		t.Errorf("root error = %v, want ErrInvalidPath", err)
	}
	if _, err := fx.svc.Materialize(ctx, "a/../../b"); !errors.Is(err, domain.ErrInvalidPath) {
		t.Errorf("traversal error = %v, want ErrInvalidPath", err)
	}
}

func TestCreateFolder(t *testing.T) {
	fx := newHierarchyFixture(t)
	ctx := context.Background()

	result, err := fx.svc.CreateFolder(ctx, "2023-2024/first/P1/CS101", "week-1", profJane)
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if result.Status != "created" {
		t.Errorf("status = %q", result.Status)
	}
	if result.FullPath != "2023-2024/first/P1/CS101/week-1" {
		t.Errorf("full path = %q", result.FullPath)
	}

	created, err := fx.folders.GetByPath(ctx, result.FullPath)
	if err != nil {
		t.Fatalf("created row missing: %v", err)
	}
	if created.Type != models.FolderTypeCustom {
		t.Errorf("created type = %q, want CUSTOM", created.Type)
	}
}

func TestCreateFolderConflict(t *testing.T) {
	fx := newHierarchyFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.CreateFolder(ctx, "2023-2024/first/P1", "CS101", profJane); err != nil {
		t.Fatalf("first CreateFolder: %v", err)
	}

	_, err := fx.svc.CreateFolder(ctx, "2023-2024/first/P1", "CS101", profJane)
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("duplicate error = %v, want ConflictError", err)
	}
	if conflict.ResourceType != "folder" || conflict.ResourceID == "" {
		t.Errorf("conflict = %+v", conflict)
	}
}

func TestCreateFolderValidation(t *testing.T) {
	fx := newHierarchyFixture(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		folderName string
	}{
		{"empty name", ""},
		{"separator in name", "a/b"},
		{"backslash in name", `a\b`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.CreateFolder(ctx, "2023-2024/first/P1", tt.folderName, profJane)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCreateFolderAccess(t *testing.T) {
	fx := newHierarchyFixture(t)
	ctx := context.Background()

	// Unreadable parent looks like it does not exist.
	_, err := fx.svc.CreateFolder(ctx, "2023-2024/first/P2", "notes", profJane)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unreadable parent error = %v, want ErrNotFound", err)
	}

	// Readable but unwritable parent is an explicit denial.
	_, err = fx.svc.CreateFolder(ctx, "2023-2024/first/P1", "notes", hodCS)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("read-only parent error = %v, want ErrForbidden", err)
	}
}

func TestDeleteFolderCascade(t *testing.T) {
	fx := newHierarchyFixture(t)
	ctx := context.Background()

	course, err := fx.svc.Materialize(ctx, "2023-2024/first/P1/CS101")
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	week, err := fx.svc.Materialize(ctx, "2023-2024/first/P1/CS101/week-1")
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	seed := []struct {
		folderID, name string
	}{
		{course.ID, "syllabus.pdf"},
		{week.ID, "slides.pdf"},
		{week.ID, "notes.pdf"},
	}
	for _, s := range seed {
		file := &models.UploadedFile{FolderID: s.folderID, StoredFilename: s.name, FileURL: "x/" + s.name, UploaderID: "P1"}
		if err := fx.files.Create(ctx, file); err != nil {
			t.Fatalf("seed file: %v", err)
		}
	}

	result, err := fx.svc.DeleteFolder(ctx, "2023-2024/first/P1/CS101", profJane)
	if err != nil {
		t.Fatalf("DeleteFolder: %v", err)
	}

	if result.FilesDeleted != 3 {
		t.Errorf("files deleted = %d, want 3", result.FilesDeleted)
	}
	if result.SubfoldersDeleted != 1 {
		t.Errorf("subfolders deleted = %d, want 1", result.SubfoldersDeleted)
	}
	if fx.tx.calls != 1 {
		t.Errorf("tx calls = %d, want 1", fx.tx.calls)
	}

	if _, err := fx.folders.GetByPath(ctx, "2023-2024/first/P1/CS101"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("course row survived: %v", err)
	}
	if _, err := fx.folders.GetByPath(ctx, "2023-2024/first/P1"); err != nil {
		t.Errorf("parent row deleted: %v", err)
	}

	abs, _ := fx.resolver.Resolve("2023-2024/first/P1/CS101")
	if _, err := os.Stat(abs); !os.IsNotExist(err) {
		t.Errorf("physical directory survived")
	}
}

func TestDeleteFolderLeavesWildcardSiblings(t *testing.T) {
	fx := newHierarchyFixture(t)
	ctx := context.Background()

	// "_" and "%" are legal in folder names and must never act as
	// wildcards in the subtree match: deleting week_1 must not touch
	// the week-1 sibling.
	target, err := fx.svc.Materialize(ctx, "2023-2024/first/P1/CS101/week_1")
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	sibling, err := fx.svc.Materialize(ctx, "2023-2024/first/P1/CS101/week-1")
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	for _, s := range []struct{ folderID, name string }{
		{target.ID, "draft.pdf"},
		{sibling.ID, "notes.pdf"},
	} {
		file := &models.UploadedFile{FolderID: s.folderID, StoredFilename: s.name, FileURL: "x/" + s.name, UploaderID: "P1"}
		if err := fx.files.Create(ctx, file); err != nil {
			t.Fatalf("seed file: %v", err)
		}
	}

	result, err := fx.svc.DeleteFolder(ctx, "2023-2024/first/P1/CS101/week_1", profJane)
	if err != nil {
		t.Fatalf("DeleteFolder: %v", err)
	}
	if result.FilesDeleted != 1 || result.SubfoldersDeleted != 0 {
		t.Errorf("result = %+v, want exactly the target's 1 file and 0 subfolders", result)
	}

	if _, err := fx.folders.GetByPath(ctx, "2023-2024/first/P1/CS101/week-1"); err != nil {
		t.Errorf("sibling row deleted: %v", err)
	}
	if _, err := fx.files.GetByFolderAndName(ctx, sibling.ID, "notes.pdf"); err != nil {
		t.Errorf("sibling file deleted: %v", err)
	}
	if _, err := fx.folders.GetByPath(ctx, "2023-2024/first/P1/CS101/week_1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("target row survived: %v", err)
	}
}

func TestDeleteFolderConcurrentlyEmptied(t *testing.T) {
	fx := newHierarchyFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.Materialize(ctx, "2023-2024/first/P1/CS101/week-1"); err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	// Another request drains the subtree between the lookup and this
	// delete's transaction. The counts stay at zero, never negative.
	fx.tx.before = func() {
		fx.folders.byPath = make(map[string]*models.Folder)
	}

	result, err := fx.svc.DeleteFolder(ctx, "2023-2024/first/P1/CS101", profJane)
	if err != nil {
		t.Fatalf("DeleteFolder: %v", err)
	}
	if result.FilesDeleted != 0 {
		t.Errorf("files deleted = %d, want 0", result.FilesDeleted)
	}
	if result.SubfoldersDeleted != 0 {
		t.Errorf("subfolders deleted = %d, want 0", result.SubfoldersDeleted)
	}
}

func TestDeleteFolderAccess(t *testing.T) {
	fx := newHierarchyFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.Materialize(ctx, "2023-2024/first/P1/CS101"); err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	// Unreadable target reads as missing.
	if _, err := fx.svc.DeleteFolder(ctx, "2023-2024/first/P1/CS101", profOther); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unreadable error = %v, want ErrNotFound", err)
	}

	// Readable but not deletable is forbidden.
	if _, err := fx.svc.DeleteFolder(ctx, "2023-2024/first/P1/CS101", hodCS); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("read-only error = %v, want ErrForbidden", err)
	}

	// The storage root is never deletable.
	if _, err := fx.svc.DeleteFolder(ctx, "/", admin); !errors.Is(err, domain.ErrInvalidPath) {
		t.Errorf("root error = %v, want ErrInvalidPath", err)
	}

	// A row-less path fails with not found even for an admin.
	if _, err := fx.svc.DeleteFolder(ctx, "2023-2024/first/P1/ghost", admin); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing row error = %v, want ErrNotFound", err)
	}
}
