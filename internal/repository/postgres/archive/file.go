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

// FileRepository is the pgx implementation of uploaded file metadata.
type FileRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewFileRepository creates a new file repository.
func NewFileRepository(config *postgres.RepositoryConfig) archiveRepo.FileRepository {
	return &FileRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const fileColumns = "id, folder_id, original_filename, stored_filename, file_url, file_size, file_type, uploader_id, file_order, notes, created_at, updated_at"

func (r *FileRepository) scanFile(row interface{ Scan(...any) error }) (*models.UploadedFile, error) {
	var f models.UploadedFile
	err := row.Scan(
		&f.ID,
		&f.FolderID,
		&f.OriginalFilename,
		&f.StoredFilename,
		&f.FileURL,
		&f.FileSize,
		&f.FileType,
		&f.UploaderID,
		&f.FileOrder,
		&f.Notes,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts a new file row. The file order is assigned as the next
// slot within the folder; stored filenames are unique per folder.
func (r *FileRepository) Create(ctx context.Context, file *models.UploadedFile) error {
	db := postgres.GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		INSERT INTO %s (folder_id, original_filename, stored_filename, file_url, file_size, file_type, uploader_id, file_order, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			(SELECT COALESCE(MAX(file_order), 0) + 1 FROM %s WHERE folder_id = $1),
			$8, now(), now())
		RETURNING id, file_order, created_at, updated_at
	`, r.tables.Files, r.tables.Files)

	err := db.QueryRow(ctx, query,
		file.FolderID,
		file.OriginalFilename,
		file.StoredFilename,
		file.FileURL,
		file.FileSize,
		file.FileType,
		file.UploaderID,
		file.Notes,
	).Scan(&file.ID, &file.FileOrder, &file.CreatedAt, &file.UpdatedAt)

	if err != nil {
		if postgres.IsDuplicateError(err) {
			return fmt.Errorf("file %q: %w", file.StoredFilename, domain.ErrConflict)
		}
		return fmt.Errorf("create file: %w", err)
	}

	return nil
}

// GetByID retrieves a file by ID.
func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.UploadedFile, error) {
	db := postgres.GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, fileColumns, r.tables.Files)

	file, err := r.scanFile(db.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsNoRowsError(err) {
			return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file: %w", err)
	}

	return file, nil
}

// GetByFolderAndName retrieves a file by folder and stored filename.
func (r *FileRepository) GetByFolderAndName(ctx context.Context, folderID, storedFilename string) (*models.UploadedFile, error) {
	db := postgres.GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE folder_id = $1 AND stored_filename = $2`, fileColumns, r.tables.Files)

	file, err := r.scanFile(db.QueryRow(ctx, query, folderID, storedFilename))
	if err != nil {
		if postgres.IsNoRowsError(err) {
			return nil, fmt.Errorf("file %q: %w", storedFilename, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file by name: %w", err)
	}

	return file, nil
}

// ListByFolder lists files directly inside a folder, in upload order.
func (r *FileRepository) ListByFolder(ctx context.Context, folderID string) ([]models.UploadedFile, error) {
	db := postgres.GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE folder_id = $1 ORDER BY file_order ASC`, fileColumns, r.tables.Files)

	rows, err := db.Query(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []models.UploadedFile
	for rows.Next() {
		file, err := r.scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	return files, nil
}

// Delete removes a single file row.
func (r *FileRepository) Delete(ctx context.Context, id string) error {
	db := postgres.GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Files)

	tag, err := db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// DeleteUnderFolderPath removes every file row whose owning folder sits
// at path or below it.
func (r *FileRepository) DeleteUnderFolderPath(ctx context.Context, path string) (int, error) {
	db := postgres.GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE folder_id IN (
			SELECT id FROM %s WHERE path = $1 OR path LIKE $2
		)
	`, r.tables.Files, r.tables.Folders)

	tag, err := db.Exec(ctx, query, path, subtreePattern(path))
	if err != nil {
		return 0, fmt.Errorf("delete files under %q: %w", path, err)
	}

	return int(tag.RowsAffected()), nil
}
