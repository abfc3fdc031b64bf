package archive

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"univault/internal/config"
	"univault/internal/domain"
)

// forbiddenSegmentChars are rejected inside a path segment. Slashes and
// backslashes never reach segment validation because normalization
// treats both as separators.
const forbiddenSegmentChars = `?*:<>|"`

// Resolver validates, normalizes and resolves canonical archive paths
// against the configured storage root. Every path handed to the
// filesystem goes through Resolve, which re-checks containment after
// joining so no accepted input can escape the root.
type Resolver struct {
	root       string // absolute, cleaned
	maxSegment int
}

// NewResolver creates a resolver rooted at the given storage directory.
func NewResolver(root string) (*Resolver, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	return &Resolver{
		root:       filepath.Clean(abs),
		maxSegment: config.MaxSegmentLength,
	}, nil
}

// Root returns the absolute storage root.
func (r *Resolver) Root() string {
	return r.root
}

// ValidateSyntax rejects traversal segments, drive-letter prefixes,
// control and forbidden characters and oversized segments. The empty
// string and a bare separator (the root marker) are valid.
func (r *Resolver) ValidateSyntax(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	if len(path) > config.MaxPathLength {
		return fmt.Errorf("%w: path exceeds %d characters", domain.ErrInvalidPath, config.MaxPathLength)
	}

	// Drive-letter prefixes ("C:\...") are absolute paths in disguise.
	if len(path) >= 2 && path[1] == ':' && isASCIILetter(path[0]) {
		return fmt.Errorf("%w: drive-letter prefix", domain.ErrInvalidPath)
	}

	for _, c := range path {
		if c < 0x20 || c == 0x7f {
			return fmt.Errorf("%w: control character", domain.ErrInvalidPath)
		}
	}

	for _, segment := range splitSegments(path) {
		if segment == "." || segment == ".." {
			return fmt.Errorf("%w: traversal segment %q", domain.ErrInvalidPath, segment)
		}
		if len(segment) > r.maxSegment {
			return fmt.Errorf("%w: segment exceeds %d characters", domain.ErrInvalidPath, r.maxSegment)
		}
		if strings.ContainsAny(segment, forbiddenSegmentChars) {
			return fmt.Errorf("%w: forbidden character in segment %q", domain.ErrInvalidPath, segment)
		}
	}

	return nil
}

// Normalize trims whitespace, converts backslashes to the canonical
// forward slash, collapses repeated separators and strips leading and
// trailing separators. Idempotent: Normalize(Normalize(p)) == Normalize(p).
func (r *Resolver) Normalize(path string) string {
	return strings.Join(splitSegments(path), "/")
}

// splitSegments breaks a raw path into its non-empty segments, treating
// both separator styles alike.
func splitSegments(path string) []string {
	path = strings.TrimSpace(path)
	path = strings.ReplaceAll(path, "\\", "/")

	var segments []string
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

// Resolve validates and normalizes a relative path, joins it against
// the storage root and verifies the result is still contained by the
// root. The containment re-check after the join guards against
// encoding tricks that only surface once concatenated.
func (r *Resolver) Resolve(relativePath string) (string, error) {
	if err := r.ValidateSyntax(relativePath); err != nil {
		return "", err
	}

	norm := r.Normalize(relativePath)
	if norm == "" {
		return r.root, nil
	}

	abs := filepath.Clean(filepath.Join(r.root, filepath.FromSlash(norm)))
	if !r.contains(abs) {
		return "", fmt.Errorf("%w: escapes storage root", domain.ErrInvalidPath)
	}

	return abs, nil
}

// ResolveExisting resolves a path and confirms a filesystem entry
// backs it, returning the absolute path and its file info.
func (r *Resolver) ResolveExisting(relativePath string) (string, fs.FileInfo, error) {
	abs, err := r.Resolve(relativePath)
	if err != nil {
		return "", nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("%q: %w", r.Normalize(relativePath), domain.ErrNotFound)
		}
		return "", nil, fmt.Errorf("stat %q: %w", relativePath, err)
	}

	return abs, info, nil
}

// ResolveExistingDir resolves a path to an existing directory.
func (r *Resolver) ResolveExistingDir(relativePath string) (string, fs.FileInfo, error) {
	abs, info, err := r.ResolveExisting(relativePath)
	if err != nil {
		return "", nil, err
	}
	if !info.IsDir() {
		return "", nil, fmt.Errorf("%q: %w", r.Normalize(relativePath), domain.ErrNotADirectory)
	}
	return abs, info, nil
}

// ResolveExistingFile resolves a path to an existing regular file.
func (r *Resolver) ResolveExistingFile(relativePath string) (string, fs.FileInfo, error) {
	abs, info, err := r.ResolveExisting(relativePath)
	if err != nil {
		return "", nil, err
	}
	if info.IsDir() {
		return "", nil, fmt.Errorf("%q: %w", r.Normalize(relativePath), domain.ErrNotAFile)
	}
	return abs, info, nil
}

// ToRelativePath is the inverse of Resolve: it relativizes an absolute
// path against the storage root. Fails for paths outside the root;
// with correct callers that is unreachable, but raw scan results are
// relativized through here rather than trusted.
func (r *Resolver) ToRelativePath(absolute string) (string, error) {
	abs := filepath.Clean(absolute)
	if !r.contains(abs) {
		return "", fmt.Errorf("%w: %q is outside the storage root", domain.ErrInvalidPath, absolute)
	}
	if abs == r.root {
		return "", nil
	}

	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidPath, err)
	}

	return filepath.ToSlash(rel), nil
}

// ParentPath returns the canonical parent of a canonical path, and ""
// for root-level paths.
func (r *Resolver) ParentPath(relativePath string) string {
	norm := r.Normalize(relativePath)
	idx := strings.LastIndex(norm, "/")
	if idx < 0 {
		return ""
	}
	return norm[:idx]
}

// contains reports whether abs is the root itself or a descendant of it.
func (r *Resolver) contains(abs string) bool {
	if abs == r.root {
		return true
	}
	return strings.HasPrefix(abs, r.root+string(filepath.Separator))
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
