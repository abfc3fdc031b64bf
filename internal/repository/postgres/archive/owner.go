package archive

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"univault/internal/domain"
	archiveRepo "univault/internal/domain/repositories/archive"
	"univault/internal/repository/postgres"
)

// OwnerDirectory resolves owner path segments against the users table.
type OwnerDirectory struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewOwnerDirectory creates a new owner directory.
func NewOwnerDirectory(config *postgres.RepositoryConfig) archiveRepo.OwnerDirectory {
	return &OwnerDirectory{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// DepartmentOf returns the department of the user an owner segment
// refers to. Segments name either the user ID or the display name the
// owner directory was created under.
func (d *OwnerDirectory) DepartmentOf(ctx context.Context, ownerSegment string) (string, error) {
	db := postgres.GetExecutor(ctx, d.pool)

	query := fmt.Sprintf(`
		SELECT department_id FROM %s
		WHERE id = $1 OR display_name = $1
	`, d.tables.Users)

	var departmentID string
	err := db.QueryRow(ctx, query, ownerSegment).Scan(&departmentID)
	if err != nil {
		if postgres.IsNoRowsError(err) {
			return "", fmt.Errorf("owner %q: %w", ownerSegment, domain.ErrNotFound)
		}
		return "", fmt.Errorf("resolve owner department: %w", err)
	}

	return departmentID, nil
}
