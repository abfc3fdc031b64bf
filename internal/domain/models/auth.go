package models

import "github.com/golang-jwt/jwt/v5"

// Role is the closed set of organizational roles. AccessPolicy switches
// exhaustively over this enum; an unknown value denies everything.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleDeanship  Role = "DEANSHIP"
	RoleHOD       Role = "HOD"
	RoleProfessor Role = "PROFESSOR"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDeanship, RoleHOD, RoleProfessor:
		return true
	}
	return false
}

// Principal is the authenticated caller as supplied by the auth
// collaborator. It is never persisted by this subsystem.
type Principal struct {
	ID           string `json:"id"`
	Role         Role   `json:"role"`
	DepartmentID string `json:"department_id"`
	DisplayName  string `json:"display_name"`
}

// OwnsSegment reports whether an owner path segment refers to this
// principal. Owner directories are created under the professor's display
// name, while older trees used the raw user ID, so both match.
func (p *Principal) OwnsSegment(segment string) bool {
	if segment == "" {
		return false
	}
	return segment == p.ID || segment == p.DisplayName
}

// ArchiveClaims is the JWT claims structure issued by the identity
// provider for archive users.
type ArchiveClaims struct {
	jwt.RegisteredClaims
	Email        string `json:"email"`
	Role         string `json:"role"`
	DepartmentID string `json:"department_id"`
	DisplayName  string `json:"display_name"`
}

// Principal converts verified claims into the Principal handed to the
// explorer services. The subject claim is the user ID.
func (c *ArchiveClaims) Principal() *Principal {
	return &Principal{
		ID:           c.Subject,
		Role:         Role(c.Role),
		DepartmentID: c.DepartmentID,
		DisplayName:  c.DisplayName,
	}
}
