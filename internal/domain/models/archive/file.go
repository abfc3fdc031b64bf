package archive

import "time"

// UploadedFile is a leaf document stored under a folder. StoredFilename
// is the sanitized on-disk name, unique within its folder; FileURL is the
// canonical path of the physical file relative to the storage root and
// always resolves under it.
type UploadedFile struct {
	ID               string    `json:"id" db:"id"`
	FolderID         string    `json:"folder_id" db:"folder_id"`
	OriginalFilename string    `json:"original_filename" db:"original_filename"`
	StoredFilename   string    `json:"stored_filename" db:"stored_filename"`
	FileURL          string    `json:"file_url" db:"file_url"`
	FileSize         int64     `json:"file_size" db:"file_size"`
	FileType         string    `json:"file_type" db:"file_type"` // MIME type
	UploaderID       string    `json:"uploader_id" db:"uploader_id"`
	FileOrder        int       `json:"file_order" db:"file_order"`
	Notes            string    `json:"notes,omitempty" db:"notes"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}
