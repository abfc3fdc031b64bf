package archive

import "context"

// OwnerDirectory resolves the owner segment of a canonical path to the
// owning user's department. Owner directories are named after either the
// user's ID or display name. Used by the HOD department-scope rule; all
// other access decisions need no lookup at all.
type OwnerDirectory interface {
	DepartmentOf(ctx context.Context, ownerSegment string) (string, error)
}
