package archive

import "time"

// FolderEntry is one directory child of a listing. Orphaned entries
// exist on disk but have no database row; they are shown read-only
// until an external sweep adopts or removes them.
type FolderEntry struct {
	Name            string     `json:"name"`
	Path            string     `json:"path"`
	Type            FolderType `json:"type"`
	EntityID        string     `json:"entity_id,omitempty"`
	Orphaned        bool       `json:"orphaned"`
	CanWrite        bool       `json:"can_write"`
	CanDelete       bool       `json:"can_delete"`
	CanCreateFolder bool       `json:"can_create_folder"`
	ModifiedAt      time.Time  `json:"modified_at"`
}

// FileEntry is one file child of a listing.
type FileEntry struct {
	Name             string    `json:"name"`
	Path             string    `json:"path"`
	EntityID         string    `json:"entity_id,omitempty"`
	OriginalFilename string    `json:"original_filename,omitempty"`
	FileSize         int64     `json:"file_size"`
	FileType         string    `json:"file_type,omitempty"`
	Orphaned         bool      `json:"orphaned"`
	CanWrite         bool      `json:"can_write"`
	CanDelete        bool      `json:"can_delete"`
	ModifiedAt       time.Time `json:"modified_at"`
}

// DirectoryListing is one page of a directory's contents, merged from
// the physical directory scan and the database metadata.
type DirectoryListing struct {
	Path            string        `json:"path"`
	Name            string        `json:"name"`
	ParentPath      string        `json:"parent_path"`
	Folders         []FolderEntry `json:"folders"`
	Files           []FileEntry   `json:"files"`
	TotalItems      int           `json:"total_items"`
	Page            int           `json:"page"`
	PageSize        int           `json:"page_size"`
	TotalPages      int           `json:"total_pages"`
	HasMore         bool          `json:"has_more"`
	ETag            string        `json:"etag"`
	CanWrite        bool          `json:"can_write"`
	CanDelete       bool          `json:"can_delete"`
	CanCreateFolder bool          `json:"can_create_folder"`
}

// CreateFolderResult reports a successful explicit folder creation.
type CreateFolderResult struct {
	Status     string    `json:"status"`
	FullPath   string    `json:"full_path"`
	FolderName string    `json:"folder_name"`
	FolderID   string    `json:"folder_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// DeleteFolderResult reports a cascading folder deletion.
// SubfoldersDeleted counts descendants only, not the folder itself.
type DeleteFolderResult struct {
	Status            string    `json:"status"`
	DeletedPath       string    `json:"deleted_path"`
	FolderName        string    `json:"folder_name"`
	FilesDeleted      int       `json:"files_deleted"`
	SubfoldersDeleted int       `json:"subfolders_deleted"`
	DeletedAt         time.Time `json:"deleted_at"`
}
