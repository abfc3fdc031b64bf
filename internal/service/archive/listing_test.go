package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"univault/internal/domain"
	models "univault/internal/domain/models/archive"
)

type listingFixture struct {
	folders  *fakeFolderRepo
	files    *fakeFileRepo
	resolver *Resolver
	svc      *ListingBuilder
	fx       *hierarchyFixture
}

func newListingFixture(t *testing.T) *listingFixture {
	t.Helper()

	hfx := newHierarchyFixture(t)
	svc := NewListingBuilder(hfx.folders, hfx.files, hfx.resolver, hfx.svc.policy, testLogger()).(*ListingBuilder)
	return &listingFixture{
		folders:  hfx.folders,
		files:    hfx.files,
		resolver: hfx.resolver,
		svc:      svc,
		fx:       hfx,
	}
}

// writePhysicalFile drops a file into the storage tree without a row.
func (l *listingFixture) writePhysicalFile(t *testing.T, path string, content string) {
	t.Helper()
	abs, err := l.resolver.Resolve(path)
	if err != nil {
		t.Fatalf("Resolve(%q): %v", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

// addFileRow records a file row for an already materialized folder.
func (l *listingFixture) addFileRow(t *testing.T, folderPath, name string) *models.UploadedFile {
	t.Helper()
	folder, err := l.folders.GetByPath(context.Background(), folderPath)
	if err != nil {
		t.Fatalf("folder %q: %v", folderPath, err)
	}
	file := &models.UploadedFile{
		FolderID:         folder.ID,
		OriginalFilename: name,
		StoredFilename:   name,
		FileURL:          folderPath + "/" + name,
		FileType:         "application/pdf",
		UploaderID:       "P1",
	}
	if err := l.files.Create(context.Background(), file); err != nil {
		t.Fatalf("create file row: %v", err)
	}
	return file
}

func TestListMergesDatabaseAndFilesystem(t *testing.T) {
	l := newListingFixture(t)
	ctx := context.Background()

	base := "2023-2024/first/P1/CS101"
	if _, err := l.fx.svc.Materialize(ctx, base+"/week-1"); err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	// Orphan directory: on disk, no row.
	orphanAbs, _ := l.resolver.Resolve(base + "/scratch")
	if err := os.MkdirAll(orphanAbs, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	// Backed file, orphan file, and a row without a physical target.
	l.addFileRow(t, base, "syllabus.pdf")
	l.writePhysicalFile(t, base+"/syllabus.pdf", "syllabus")
	l.writePhysicalFile(t, base+"/leftover.tmp", "junk")
	l.addFileRow(t, base, "vanished.pdf")

	listing, err := l.svc.List(ctx, base, 1, 50, profJane)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if len(listing.Folders) != 2 {
		t.Fatalf("folders = %d, want 2", len(listing.Folders))
	}
	byName := map[string]models.FolderEntry{}
	for _, f := range listing.Folders {
		byName[f.Name] = f
	}
	if byName["week-1"].Orphaned || byName["week-1"].EntityID == "" {
		t.Errorf("week-1 = %+v, want backed entry", byName["week-1"])
	}
	if !byName["scratch"].Orphaned || byName["scratch"].EntityID != "" {
		t.Errorf("scratch = %+v, want orphaned entry", byName["scratch"])
	}

	// The vanished row is excluded; the orphan file is flagged.
	if len(listing.Files) != 2 {
		t.Fatalf("files = %d, want 2", len(listing.Files))
	}
	fileByName := map[string]models.FileEntry{}
	for _, f := range listing.Files {
		fileByName[f.Name] = f
	}
	if fileByName["syllabus.pdf"].Orphaned {
		t.Errorf("syllabus.pdf flagged orphaned")
	}
	if fileByName["syllabus.pdf"].FileType != "application/pdf" {
		t.Errorf("syllabus.pdf type = %q", fileByName["syllabus.pdf"].FileType)
	}
	if !fileByName["leftover.tmp"].Orphaned {
		t.Errorf("leftover.tmp not flagged orphaned")
	}
	if _, ok := fileByName["vanished.pdf"]; ok {
		t.Errorf("vanished.pdf listed despite missing physical file")
	}

	if listing.TotalItems != 4 {
		t.Errorf("total items = %d, want 4", listing.TotalItems)
	}
	if !listing.CanWrite || !listing.CanCreateFolder {
		t.Errorf("owner lost write on own directory: %+v", listing)
	}
}

func TestListPagination(t *testing.T) {
	l := newListingFixture(t)
	ctx := context.Background()

	base := "2023-2024/first/P1/CS101"
	for _, sub := range []string{"a-sub", "b-sub", "c-sub"} {
		if _, err := l.fx.svc.Materialize(ctx, base+"/"+sub); err != nil {
			t.Fatalf("Materialize: %v", err)
		}
	}
	for _, name := range []string{"x.pdf", "y.pdf"} {
		l.addFileRow(t, base, name)
		l.writePhysicalFile(t, base+"/"+name, name)
	}

	// Page 1 of size 2: folders only.
	page1, err := l.svc.List(ctx, base, 1, 2, profJane)
	if err != nil {
		t.Fatalf("List page 1: %v", err)
	}
	if len(page1.Folders) != 2 || len(page1.Files) != 0 {
		t.Errorf("page 1 = %d folders, %d files", len(page1.Folders), len(page1.Files))
	}
	if page1.Folders[0].Name != "a-sub" || page1.Folders[1].Name != "b-sub" {
		t.Errorf("page 1 order = %q, %q", page1.Folders[0].Name, page1.Folders[1].Name)
	}
	if page1.TotalPages != 3 || !page1.HasMore || page1.TotalItems != 5 {
		t.Errorf("page 1 meta = %+v", page1)
	}

	// Page 2 straddles the folder/file boundary.
	page2, err := l.svc.List(ctx, base, 2, 2, profJane)
	if err != nil {
		t.Fatalf("List page 2: %v", err)
	}
	if len(page2.Folders) != 1 || len(page2.Files) != 1 {
		t.Errorf("page 2 = %d folders, %d files", len(page2.Folders), len(page2.Files))
	}
	if page2.Folders[0].Name != "c-sub" || page2.Files[0].Name != "x.pdf" {
		t.Errorf("page 2 contents = %q, %q", page2.Folders[0].Name, page2.Files[0].Name)
	}

	// Page 3 is the tail; page 4 is empty but well-formed.
	page3, err := l.svc.List(ctx, base, 3, 2, profJane)
	if err != nil {
		t.Fatalf("List page 3: %v", err)
	}
	if len(page3.Folders) != 0 || len(page3.Files) != 1 || page3.HasMore {
		t.Errorf("page 3 = %+v", page3)
	}
	page4, err := l.svc.List(ctx, base, 4, 2, profJane)
	if err != nil {
		t.Fatalf("List page 4: %v", err)
	}
	if len(page4.Folders)+len(page4.Files) != 0 {
		t.Errorf("page 4 not empty")
	}
}

func TestListSortsCaseInsensitively(t *testing.T) {
	l := newListingFixture(t)
	ctx := context.Background()

	base := "2023-2024/first/P1/CS101"
	for _, sub := range []string{"Banana", "apple", "Cherry"} {
		if _, err := l.fx.svc.Materialize(ctx, base+"/"+sub); err != nil {
			t.Fatalf("Materialize: %v", err)
		}
	}

	listing, err := l.svc.List(ctx, base, 1, 50, profJane)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	want := []string{"apple", "Banana", "Cherry"}
	for i, name := range want {
		if listing.Folders[i].Name != name {
			t.Errorf("folder[%d] = %q, want %q", i, listing.Folders[i].Name, name)
		}
	}
}

func TestListETag(t *testing.T) {
	l := newListingFixture(t)
	ctx := context.Background()

	base := "2023-2024/first/P1/CS101"
	if _, err := l.fx.svc.Materialize(ctx, base); err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	l.addFileRow(t, base, "one.pdf")
	l.writePhysicalFile(t, base+"/one.pdf", "one")

	first, err := l.svc.List(ctx, base, 1, 50, profJane)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	second, err := l.svc.List(ctx, base, 1, 50, profJane)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if first.ETag == "" || first.ETag != second.ETag {
		t.Errorf("etag unstable: %q vs %q", first.ETag, second.ETag)
	}

	l.writePhysicalFile(t, base+"/two.pdf", "two")
	changed, err := l.svc.List(ctx, base, 1, 50, profJane)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if changed.ETag == first.ETag {
		t.Errorf("etag unchanged after new entry")
	}
}

func TestListAccessAndErrors(t *testing.T) {
	l := newListingFixture(t)
	ctx := context.Background()

	base := "2023-2024/first/P1/CS101"
	if _, err := l.fx.svc.Materialize(ctx, base); err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	// Denied read is indistinguishable from absence.
	if _, err := l.svc.List(ctx, base, 1, 50, profOther); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("denied error = %v, want ErrNotFound", err)
	}

	// A missing directory is not found even for an admin.
	if _, err := l.svc.List(ctx, "2099-2100", 1, 50, admin); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing error = %v, want ErrNotFound", err)
	}

	// A file path is not listable.
	l.writePhysicalFile(t, base+"/f.pdf", "f")
	if _, err := l.svc.List(ctx, base+"/f.pdf", 1, 50, admin); !errors.Is(err, domain.ErrNotADirectory) {
		t.Errorf("file path error = %v, want ErrNotADirectory", err)
	}

	// Traversal fails before any access decision.
	if _, err := l.svc.List(ctx, "../etc", 1, 50, admin); !errors.Is(err, domain.ErrInvalidPath) {
		t.Errorf("traversal error = %v, want ErrInvalidPath", err)
	}
}

func TestListRoot(t *testing.T) {
	l := newListingFixture(t)
	ctx := context.Background()

	if _, err := l.fx.svc.Materialize(ctx, "2023-2024/first"); err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	listing, err := l.svc.List(ctx, "/", 1, 50, admin)
	if err != nil {
		t.Fatalf("List root: %v", err)
	}
	if listing.Path != "" || listing.Name != "" || listing.ParentPath != "" {
		t.Errorf("root identity = %+v", listing)
	}
	if len(listing.Folders) != 1 || listing.Folders[0].Name != "2023-2024" {
		t.Errorf("root folders = %+v", listing.Folders)
	}
	if listing.CanDelete {
		t.Errorf("root reported deletable")
	}
}
