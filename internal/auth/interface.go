package auth

import "univault/internal/domain/models"

// TokenVerifier validates a bearer token and extracts archive claims.
type TokenVerifier interface {
	VerifyToken(tokenString string) (*models.ArchiveClaims, error)
	Close() error
}
