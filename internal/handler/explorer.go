package handler

import (
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"univault/internal/config"
	archiveSvc "univault/internal/domain/services/archive"
	"univault/internal/httputil"
)

// ExplorerHandler handles directory browsing and folder management.
type ExplorerHandler struct {
	folders  archiveSvc.FolderService
	listings archiveSvc.ListingService
	trees    archiveSvc.TreeService
	logger   *slog.Logger
}

// NewExplorerHandler creates a new explorer handler
func NewExplorerHandler(
	folders archiveSvc.FolderService,
	listings archiveSvc.ListingService,
	trees archiveSvc.TreeService,
	logger *slog.Logger,
) *ExplorerHandler {
	return &ExplorerHandler{
		folders:  folders,
		listings: listings,
		trees:    trees,
		logger:   logger,
	}
}

// CreateFolderRequest is the body of POST /api/explorer/folders.
type CreateFolderRequest struct {
	ParentPath string `json:"parent_path"`
	Name       string `json:"name"`
}

// Validate checks the request shape; path semantics are validated
// deeper in the service layer.
func (r CreateFolderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required,
			validation.Length(1, config.MaxSegmentLength),
		),
		validation.Field(&r.ParentPath,
			validation.Length(0, config.MaxPathLength),
		),
	)
}

// GetListing returns one page of a directory's contents
// GET /api/explorer/listing?path=&page=&page_size=
func (h *ExplorerHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	path := r.URL.Query().Get("path")
	page := httputil.QueryInt(r, "page", 1)
	pageSize := httputil.QueryInt(r, "page_size", config.DefaultPageSize)

	listing, err := h.listings.List(r.Context(), path, page, pageSize, principal)
	if err != nil {
		handleError(w, err)
		return
	}

	// A matching validator means the client's cached page is current.
	if listing.ETag != "" {
		if match := r.Header.Get("If-None-Match"); match != "" && match == listing.ETag {
			w.Header().Set("ETag", listing.ETag)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", listing.ETag)
	}

	httputil.RespondJSON(w, http.StatusOK, listing)
}

// GetTree returns the depth-limited directory tree
// GET /api/explorer/tree?path=&depth=
func (h *ExplorerHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	path := r.URL.Query().Get("path")
	depth := httputil.QueryInt(r, "depth", 1)

	tree, err := h.trees.Tree(r.Context(), path, depth, principal)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tree)
}

// CreateFolder creates a named folder under a parent path
// POST /api/explorer/folders
func (h *ExplorerHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.folders.CreateFolder(r.Context(), req.ParentPath, req.Name, principal)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, result)
}

// DeleteFolder deletes a folder and its entire subtree
// DELETE /api/explorer/folders?path=
func (h *ExplorerHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		httputil.RespondError(w, http.StatusBadRequest, "path is required")
		return
	}

	result, err := h.folders.DeleteFolder(r.Context(), path, principal)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// HealthCheck reports service liveness
// GET /health
func (h *ExplorerHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
