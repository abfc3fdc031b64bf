package httputil

import (
	"context"
	"net/http"

	"univault/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal attaches the authenticated principal to the request context.
func WithPrincipal(r *http.Request, p *models.Principal) *http.Request {
	ctx := context.WithValue(r.Context(), principalKey, p)
	return r.WithContext(ctx)
}

// GetPrincipal retrieves the principal from the context, or nil when the
// request was not authenticated.
func GetPrincipal(r *http.Request) *models.Principal {
	p, _ := r.Context().Value(principalKey).(*models.Principal)
	return p
}
