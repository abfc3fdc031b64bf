package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"univault/internal/domain"
	"univault/internal/domain/models"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// JWKSVerifier implements TokenVerifier using the identity provider's
// JWKS endpoint. Keys are cached and refreshed by keyfunc based on HTTP
// cache headers.
type JWKSVerifier struct {
	jwks   keyfunc.Keyfunc
	logger *slog.Logger
}

// NewJWKSVerifier creates a verifier that fetches public keys from the
// given JWKS URL.
func NewJWKSVerifier(jwksURL string, logger *slog.Logger) (TokenVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	jwks, err := keyfunc.NewDefaultCtx(context.Background(), []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)

	return &JWKSVerifier{jwks: jwks, logger: logger}, nil
}

// VerifyToken validates a JWT and extracts the archive claims. Any
// parse, signature, expiry or shape failure maps to ErrUnauthorized.
func (v *JWKSVerifier) VerifyToken(tokenString string) (*models.ArchiveClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.ArchiveClaims{}, v.jwks.Keyfunc)
	if err != nil {
		v.logger.Debug("token parse failed", "error", err)
		return nil, domain.ErrUnauthorized
	}

	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	// Prevent algorithm confusion attacks - only asymmetric algorithms.
	switch token.Method.Alg() {
	case "RS256", "ES256":
	default:
		v.logger.Warn("token uses unexpected algorithm", "algorithm", token.Method.Alg())
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.ArchiveClaims)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	if !models.Role(claims.Role).Valid() {
		v.logger.Warn("token carries unknown role", "role", claims.Role, "user_id", claims.Subject)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close releases verifier resources. keyfunc manages its own refresh
// lifecycle, so this exists for graceful-shutdown symmetry.
func (v *JWKSVerifier) Close() error {
	v.logger.Info("JWT verifier closed")
	return nil
}
