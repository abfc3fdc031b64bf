package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"univault/internal/auth"
	"univault/internal/config"
	"univault/internal/handler"
	"univault/internal/middleware"
	"univault/internal/repository/postgres"
	postgresArchive "univault/internal/repository/postgres/archive"
	serviceArchive "univault/internal/service/archive"
	"univault/internal/service/archive/vocabulary"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, logFile, err := setupLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"storage_root", cfg.Storage.Root,
		"table_prefix", cfg.Database.TablePrefix,
	)

	// JWT verifier backed by the identity provider's JWKS endpoint
	jwtVerifier, err := auth.NewJWKSVerifier(cfg.Auth.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Repositories
	tables := postgres.NewTableNames(cfg.Database.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	folderRepo := postgresArchive.NewFolderRepository(repoConfig)
	fileRepo := postgresArchive.NewFileRepository(repoConfig)
	ownerDir := postgresArchive.NewOwnerDirectory(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Storage root must exist before the resolver anchors to it
	if err := os.MkdirAll(cfg.Storage.Root, 0o755); err != nil {
		log.Fatalf("Failed to create storage root: %v", err)
	}

	// Archive services
	resolver, err := serviceArchive.NewResolver(cfg.Storage.Root)
	if err != nil {
		log.Fatalf("Failed to create path resolver: %v", err)
	}

	vocab, err := vocabulary.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load archive vocabulary: %v", err)
	}
	docPathParser := serviceArchive.NewDocumentPathParser(vocab)

	policy := serviceArchive.NewPolicy(resolver, ownerDir, logger)
	folderService := serviceArchive.NewHierarchy(folderRepo, fileRepo, resolver, policy, txManager, logger)
	listingService := serviceArchive.NewListingBuilder(folderRepo, fileRepo, resolver, policy, logger)
	treeService := serviceArchive.NewTreeBuilder(folderRepo, resolver, policy, logger)
	fileService := serviceArchive.NewUploads(folderRepo, fileRepo, folderService, resolver, policy, cfg.Storage.MaxUploadSize, logger)

	// Handlers
	explorerHandler := handler.NewExplorerHandler(folderService, listingService, treeService, logger)
	filesHandler := handler.NewFilesHandler(fileService, docPathParser, cfg.Storage.MaxUploadSize, logger)

	logger.Info("services initialized")

	// HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", explorerHandler.HealthCheck)

	// Explorer routes
	mux.HandleFunc("GET /api/explorer/listing", explorerHandler.GetListing)
	mux.HandleFunc("GET /api/explorer/tree", explorerHandler.GetTree)
	mux.HandleFunc("POST /api/explorer/folders", explorerHandler.CreateFolder)
	mux.HandleFunc("DELETE /api/explorer/folders", explorerHandler.DeleteFolder)

	// File routes
	mux.HandleFunc("POST /api/explorer/files", filesHandler.Upload)
	mux.HandleFunc("GET /api/explorer/files", filesHandler.Download)
	mux.HandleFunc("DELETE /api/explorer/files", filesHandler.Delete)

	// Fixed-layout document archiving
	mux.HandleFunc("POST /api/explorer/documents", filesHandler.UploadDocument)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	root = middleware.Auth(jwtVerifier)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.Server.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match"},
		ExposedHeaders:   []string{"ETag", "Content-Disposition"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "port", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupLogger builds the slog logger from config. When a log directory
// is configured, output goes to both stdout and a timestamped file.
func setupLogger(cfg *config.Config) (*slog.Logger, *os.File, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}
	if cfg.Server.Environment == "dev" && level > slog.LevelDebug {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stdout
	var logFile *os.File
	if cfg.Logging.Dir != "" {
		f, err := config.SetupLogFile(cfg.Logging.Dir, cfg.Logging.MaxFiles)
		if err != nil {
			return nil, nil, err
		}
		logFile = f
		out = io.MultiWriter(os.Stdout, f)
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Logging.Format == "text" {
		h = slog.NewTextHandler(out, opts)
	} else {
		h = slog.NewJSONHandler(out, opts)
	}

	return slog.New(h), logFile, nil
}
