package main

import (
	"context"
	"flag"
	"log"

	"univault/internal/config"
	"univault/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before creating the schema (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed demo users")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// SAFETY: Prevent destructive operations in production
	if cfg.Server.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	log.Printf("Preparing database (environment: %s, prefix: %s)", cfg.Server.Environment, cfg.Database.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.Database.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	log.Println("Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		return
	}

	log.Println("Seeding demo users...")
	if err := seedUsers(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}
	log.Println("Seeding complete")
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	// Enable UUID extension
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`); err != nil {
		return err
	}

	// Users table. IDs come from the identity provider's subject claim,
	// so they stay TEXT rather than UUID.
	createUsers := `
		CREATE TABLE IF NOT EXISTS ` + tables.Users + ` (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			email TEXT NOT NULL,
			role TEXT NOT NULL,
			department_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(display_name)
		)
	`
	if _, err := pool.Exec(ctx, createUsers); err != nil {
		return err
	}

	// Folders table. The UNIQUE(path) constraint settles concurrent
	// materialization of the same folder chain.
	createFolders := `
		CREATE TABLE IF NOT EXISTS ` + tables.Folders + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			path TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			folder_type TEXT NOT NULL,
			parent_id UUID REFERENCES ` + tables.Folders + `(id) ON DELETE CASCADE,
			owner_id TEXT,
			academic_year TEXT,
			semester TEXT,
			course_code TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createFolders); err != nil {
		return err
	}

	createFiles := `
		CREATE TABLE IF NOT EXISTS ` + tables.Files + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			folder_id UUID NOT NULL REFERENCES ` + tables.Folders + `(id) ON DELETE CASCADE,
			original_filename TEXT NOT NULL,
			stored_filename TEXT NOT NULL,
			file_url TEXT NOT NULL,
			file_size BIGINT NOT NULL DEFAULT 0,
			file_type TEXT NOT NULL DEFAULT 'application/octet-stream',
			uploader_id TEXT NOT NULL,
			file_order INTEGER NOT NULL DEFAULT 0,
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(folder_id, stored_filename)
		)
	`
	if _, err := pool.Exec(ctx, createFiles); err != nil {
		return err
	}

	// Subtree scans filter with path LIKE 'prefix/%'.
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tables.Folders + `_path_pattern ON ` + tables.Folders + ` (path text_pattern_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tables.Folders + `_parent ON ` + tables.Folders + ` (parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tables.Files + `_folder ON ` + tables.Files + ` (folder_id)`,
	}
	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx); err != nil {
			return err
		}
	}

	return nil
}

// seedUsers inserts a demo account per role for local development.
func seedUsers(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	users := []struct {
		id, displayName, email, role, departmentID string
	}{
		{"admin-1", "Archive Admin", "admin@univault.test", "ADMIN", ""},
		{"dean-1", "Dean of Faculty", "dean@univault.test", "DEANSHIP", ""},
		{"hod-cs", "Head of CS", "hod-cs@univault.test", "HOD", "CS"},
		{"P1", "Jane Doe", "jane.doe@univault.test", "PROFESSOR", "CS"},
		{"P2", "John Roe", "john.roe@univault.test", "PROFESSOR", "MATH"},
	}

	query := `
		INSERT INTO ` + tables.Users + ` (id, display_name, email, role, department_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	for _, u := range users {
		if _, err := pool.Exec(ctx, query, u.id, u.displayName, u.email, u.role, u.departmentID); err != nil {
			return err
		}
		log.Printf("Seeded user %s (%s)", u.id, u.role)
	}

	return nil
}

// dropAllTables removes the archive tables, children first.
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	for _, table := range []string{tables.Files, tables.Folders, tables.Users} {
		if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS `+table+` CASCADE`); err != nil {
			return err
		}
	}
	return nil
}
