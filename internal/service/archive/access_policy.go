package archive

import (
	"context"
	"log/slog"

	"univault/internal/domain/models"
	archiveRepo "univault/internal/domain/repositories/archive"
	archiveSvc "univault/internal/domain/services/archive"
)

// ownerSegmentIndex is the fixed position of the owner segment in a
// canonical path: year/semester/owner/...
const ownerSegmentIndex = 2

// Policy derives read/write/delete permissions structurally from the
// canonical path's segments and the principal's role. No ACLs are
// stored; the only database round-trip is the HOD department lookup.
type Policy struct {
	resolver *Resolver
	owners   archiveRepo.OwnerDirectory
	logger   *slog.Logger
}

// NewPolicy creates the structural access policy.
func NewPolicy(resolver *Resolver, owners archiveRepo.OwnerDirectory, logger *slog.Logger) archiveSvc.AccessPolicy {
	return &Policy{
		resolver: resolver,
		owners:   owners,
		logger:   logger,
	}
}

// CanRead decides read access for a canonical path.
//
// The switch is exhaustive over the closed role set; a role added
// without a matching case denies rather than silently allowing.
func (p *Policy) CanRead(ctx context.Context, path string, principal *models.Principal) bool {
	if principal == nil {
		return false
	}

	segments := splitSegments(p.resolver.Normalize(path))

	switch principal.Role {
	case models.RoleAdmin, models.RoleDeanship:
		return true

	case models.RoleHOD:
		// Year and semester levels are browsable; owner subtrees are
		// readable when the owner belongs to the HOD's department.
		if len(segments) <= ownerSegmentIndex {
			return true
		}
		owner := segments[ownerSegmentIndex]
		if principal.OwnsSegment(owner) {
			return true
		}
		department, err := p.owners.DepartmentOf(ctx, owner)
		if err != nil {
			p.logger.Debug("owner department lookup failed",
				"owner_segment", owner,
				"error", err,
			)
			return false
		}
		return department == principal.DepartmentID

	case models.RoleProfessor:
		if len(segments) <= ownerSegmentIndex {
			return false
		}
		return principal.OwnsSegment(segments[ownerSegmentIndex])

	default:
		return false
	}
}

// CanWrite decides write access. Only the owner of the subtree (or an
// unconditional role) may write; levels above the owner segment are
// writable by ADMIN and DEANSHIP alone.
func (p *Policy) CanWrite(ctx context.Context, path string, principal *models.Principal) bool {
	return p.canMutate(path, principal)
}

// CanDelete decides delete access. Deletion follows the same structural
// rule as writing.
func (p *Policy) CanDelete(ctx context.Context, path string, principal *models.Principal) bool {
	return p.canMutate(path, principal)
}

func (p *Policy) canMutate(path string, principal *models.Principal) bool {
	if principal == nil {
		return false
	}

	segments := splitSegments(p.resolver.Normalize(path))

	switch principal.Role {
	case models.RoleAdmin, models.RoleDeanship:
		return true

	case models.RoleHOD, models.RoleProfessor:
		// HODs have no department-wide write: outside their own
		// subtree their materials access matches a professor's.
		if len(segments) <= ownerSegmentIndex {
			return false
		}
		return principal.OwnsSegment(segments[ownerSegmentIndex])

	default:
		return false
	}
}
