package archive

import "time"

// FolderType describes the structural position of a folder in the
// archive hierarchy. The first four levels are fixed
// (year/semester/owner/course); everything below is user-created.
type FolderType string

const (
	FolderTypeYear          FolderType = "YEAR"
	FolderTypeSemester      FolderType = "SEMESTER"
	FolderTypeProfessorRoot FolderType = "PROFESSOR_ROOT"
	FolderTypeCourse        FolderType = "COURSE"
	FolderTypeDocumentType  FolderType = "DOCUMENT_TYPE"
	FolderTypeCustom        FolderType = "CUSTOM"
)

// FolderTypeForDepth derives the structural type from a folder's depth
// (number of path segments minus one). Depth four is DOCUMENT_TYPE only
// in the legacy fixed layout; free-form folders below a course are CUSTOM.
func FolderTypeForDepth(depth int) FolderType {
	switch depth {
	case 0:
		return FolderTypeYear
	case 1:
		return FolderTypeSemester
	case 2:
		return FolderTypeProfessorRoot
	case 3:
		return FolderTypeCourse
	default:
		return FolderTypeCustom
	}
}

// Folder is a node in the persisted hierarchy. Path is canonical and
// globally unique: parent.Path + "/" + Name, with no empty segments,
// backslashes or traversal components.
type Folder struct {
	ID           string     `json:"id" db:"id"`
	Path         string     `json:"path" db:"path"`
	Name         string     `json:"name" db:"name"`
	Type         FolderType `json:"type" db:"folder_type"`
	ParentID     *string    `json:"parent_id" db:"parent_id"` // NULL = root level
	OwnerID      *string    `json:"owner_id,omitempty" db:"owner_id"`
	AcademicYear *string    `json:"academic_year,omitempty" db:"academic_year"`
	Semester     *string    `json:"semester,omitempty" db:"semester"`
	CourseCode   *string    `json:"course_code,omitempty" db:"course_code"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
