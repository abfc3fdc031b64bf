package handler

import (
	"errors"
	"net/http"

	"univault/internal/domain"
	"univault/internal/domain/models"
	"univault/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var httpErr domain.HTTPError

	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidPath):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNotADirectory), errors.Is(err, domain.ErrNotAFile):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &httpErr):
		httputil.RespondError(w, httpErr.StatusCode(), err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requirePrincipal fetches the authenticated principal set by the auth
// middleware, responding 401 if it is missing.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (*models.Principal, bool) {
	p := httputil.GetPrincipal(r)
	if p == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return p, true
}
