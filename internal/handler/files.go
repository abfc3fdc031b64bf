package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"univault/internal/config"
	archiveSvc "univault/internal/domain/services/archive"
	"univault/internal/httputil"
	"univault/internal/service/archive"
)

// FilesHandler handles archive file upload, download and deletion.
type FilesHandler struct {
	files     archiveSvc.FileService
	parser    *archive.DocumentPathParser
	maxUpload int64
	logger    *slog.Logger
}

// NewFilesHandler creates a new files handler
func NewFilesHandler(files archiveSvc.FileService, parser *archive.DocumentPathParser, maxUpload int64, logger *slog.Logger) *FilesHandler {
	return &FilesHandler{
		files:     files,
		parser:    parser,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// Upload stores a file in a directory
// POST /api/explorer/files (multipart: path, file, notes)
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	// The cap leaves headroom over the file limit for the other parts.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	path := r.FormValue("path")
	notes := r.FormValue("notes")
	if len(notes) > config.MaxNotesLength {
		httputil.RespondError(w, http.StatusBadRequest,
			fmt.Sprintf("notes exceed %d characters", config.MaxNotesLength))
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "file part is required")
		return
	}
	defer part.Close()

	stored, err := h.files.Store(r.Context(), path, header.Filename, part, header.Size, notes, principal)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, stored)
}

// UploadDocument stores a file under the fixed five-level document
// layout, rejecting paths that do not parse as
// academicYear/semesterType/ownerId/courseCode/documentType.
// POST /api/explorer/documents (multipart: path, file, notes)
func (h *FilesHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	path := r.FormValue("path")
	parsed, err := h.parser.Parse(path)
	if err != nil {
		handleError(w, err)
		return
	}

	notes := r.FormValue("notes")
	if len(notes) > config.MaxNotesLength {
		httputil.RespondError(w, http.StatusBadRequest,
			fmt.Sprintf("notes exceed %d characters", config.MaxNotesLength))
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "file part is required")
		return
	}
	defer part.Close()

	stored, err := h.files.Store(r.Context(), path, header.Filename, part, header.Size, notes, principal)
	if err != nil {
		handleError(w, err)
		return
	}

	h.logger.Info("document archived",
		"file_id", stored.ID,
		"academic_year", parsed.AcademicYear,
		"semester", parsed.SemesterType,
		"owner", parsed.OwnerID,
		"course", parsed.CourseCode,
		"document_type", parsed.DocumentType,
	)

	httputil.RespondJSON(w, http.StatusCreated, stored)
}

// Download streams a file's content
// GET /api/explorer/files?path=&download=
func (h *FilesHandler) Download(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		httputil.RespondError(w, http.StatusBadRequest, "path is required")
		return
	}

	content, err := h.files.Open(r.Context(), path, principal)
	if err != nil {
		handleError(w, err)
		return
	}
	defer content.Reader.Close()

	w.Header().Set("Content-Type", content.Meta.FileType)
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", content.Meta.OriginalFilename))
	}

	http.ServeContent(w, r, content.Meta.StoredFilename, content.Meta.UpdatedAt, content.Reader)
}

// Delete removes a file
// DELETE /api/explorer/files?path=
func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		httputil.RespondError(w, http.StatusBadRequest, "path is required")
		return
	}

	if err := h.files.Delete(r.Context(), path, principal); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
