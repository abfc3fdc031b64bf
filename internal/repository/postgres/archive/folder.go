package archive

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"univault/internal/domain"
	models "univault/internal/domain/models/archive"
	archiveRepo "univault/internal/domain/repositories/archive"
	"univault/internal/repository/postgres"
)

// FolderRepository is the pgx implementation of the folder tree store.
// The folders table enforces uniqueness on path, which settles the
// concurrent-materialization race at the database.
type FolderRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewFolderRepository creates a new folder repository.
func NewFolderRepository(config *postgres.RepositoryConfig) archiveRepo.FolderRepository {
	return &FolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const folderColumns = "id, path, name, folder_type, parent_id, owner_id, academic_year, semester, course_code, created_at, updated_at"

func (r *FolderRepository) scanFolder(row interface{ Scan(...any) error }) (*models.Folder, error) {
	var f models.Folder
	err := row.Scan(
		&f.ID,
		&f.Path,
		&f.Name,
		&f.Type,
		&f.ParentID,
		&f.OwnerID,
		&f.AcademicYear,
		&f.Semester,
		&f.CourseCode,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts a new folder row.
func (r *FolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	db := postgres.GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		INSERT INTO %s (path, name, folder_type, parent_id, owner_id, academic_year, semester, course_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING id, created_at, updated_at
	`, r.tables.Folders)

	err := db.QueryRow(ctx, query,
		folder.Path,
		folder.Name,
		folder.Type,
		folder.ParentID,
		folder.OwnerID,
		folder.AcademicYear,
		folder.Semester,
		folder.CourseCode,
	).Scan(&folder.ID, &folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		if postgres.IsDuplicateError(err) {
			return fmt.Errorf("folder %q: %w", folder.Path, domain.ErrConflict)
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

// CreateIfMissing inserts the folder unless its path already exists.
// The insert races through ON CONFLICT DO NOTHING; when another creator
// won, the existing row is fetched and returned instead.
func (r *FolderRepository) CreateIfMissing(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	db := postgres.GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		INSERT INTO %s (path, name, folder_type, parent_id, owner_id, academic_year, semester, course_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		ON CONFLICT (path) DO NOTHING
		RETURNING id, created_at, updated_at
	`, r.tables.Folders)

	err := db.QueryRow(ctx, query,
		folder.Path,
		folder.Name,
		folder.Type,
		folder.ParentID,
		folder.OwnerID,
		folder.AcademicYear,
		folder.Semester,
		folder.CourseCode,
	).Scan(&folder.ID, &folder.CreatedAt, &folder.UpdatedAt)

	if err == nil {
		return folder, nil
	}
	if !postgres.IsNoRowsError(err) {
		return nil, fmt.Errorf("create folder if missing: %w", err)
	}

	// Conflict path: the row exists, possibly created concurrently.
	existing, err := r.GetByPath(ctx, folder.Path)
	if err != nil {
		return nil, fmt.Errorf("fetch existing folder %q: %w", folder.Path, err)
	}
	return existing, nil
}

// GetByID retrieves a folder by ID.
func (r *FolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	db := postgres.GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, folderColumns, r.tables.Folders)

	folder, err := r.scanFolder(db.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}

	return folder, nil
}

// GetByPath retrieves a folder by its canonical path.
func (r *FolderRepository) GetByPath(ctx context.Context, path string) (*models.Folder, error) {
	db := postgres.GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE path = $1`, folderColumns, r.tables.Folders)

	folder, err := r.scanFolder(db.QueryRow(ctx, query, path))
	if err != nil {
		if postgres.IsNoRowsError(err) {
			return nil, fmt.Errorf("folder at %q: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder by path: %w", err)
	}

	return folder, nil
}

// ListChildren lists immediate child folders, sorted by name.
func (r *FolderRepository) ListChildren(ctx context.Context, parentID *string) ([]models.Folder, error) {
	db := postgres.GetExecutor(ctx, r.pool)

	var query string
	var args []interface{}

	if parentID == nil {
		query = fmt.Sprintf(`SELECT %s FROM %s WHERE parent_id IS NULL ORDER BY name ASC`, folderColumns, r.tables.Folders)
	} else {
		query = fmt.Sprintf(`SELECT %s FROM %s WHERE parent_id = $1 ORDER BY name ASC`, folderColumns, r.tables.Folders)
		args = append(args, *parentID)
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list folder children: %w", err)
	}
	defer rows.Close()

	var folders []models.Folder
	for rows.Next() {
		folder, err := r.scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, *folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}

	return folders, nil
}

// SubtreePaths returns the path of the folder and every descendant,
// deepest first.
func (r *FolderRepository) SubtreePaths(ctx context.Context, path string) ([]string, error) {
	db := postgres.GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		SELECT path FROM %s
		WHERE path = $1 OR path LIKE $2
		ORDER BY length(path) DESC, path DESC
	`, r.tables.Folders)

	rows, err := db.Query(ctx, query, path, subtreePattern(path))
	if err != nil {
		return nil, fmt.Errorf("list subtree paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		paths = append(paths, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paths: %w", err)
	}

	return paths, nil
}

// DeleteSubtree removes the folder at path and all descendants. Rows go
// deepest first so the parent_id foreign key never sees a dangling
// child mid-delete.
func (r *FolderRepository) DeleteSubtree(ctx context.Context, path string) (int, error) {
	db := postgres.GetExecutor(ctx, r.pool)

	paths, err := r.SubtreePaths(ctx, path)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE path = $1`, r.tables.Folders)

	deleted := 0
	for _, p := range paths {
		tag, err := db.Exec(ctx, query, p)
		if err != nil {
			return deleted, fmt.Errorf("delete folder %q: %w", p, err)
		}
		deleted += int(tag.RowsAffected())
	}

	return deleted, nil
}
