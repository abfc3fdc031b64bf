package config

const (
	// MaxSegmentLength is the maximum length of a single canonical path
	// segment. User-created folder names share this limit.
	MaxSegmentLength = 128

	// MaxPathLength caps a full canonical path. Longer paths indicate
	// an overly deep hierarchy.
	MaxPathLength = 1024

	// MaxNotesLength caps the free-text notes attached to an upload.
	MaxNotesLength = 2000

	// MaxTreeDepth caps a single tree request. Deeper levels are
	// fetched lazily with follow-up calls.
	MaxTreeDepth = 10

	// DefaultPageSize and MaxPageSize bound directory listing pages.
	DefaultPageSize = 50
	MaxPageSize     = 500
)
