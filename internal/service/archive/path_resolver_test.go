package archive

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"univault/internal/config"
	"univault/internal/domain"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(t.TempDir())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return r
}

func TestValidateSyntax(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "empty path is root", path: "", wantErr: false},
		{name: "single separator is root", path: "/", wantErr: false},
		{name: "simple path", path: "2023-2024/first/P1", wantErr: false},
		{name: "backslash separators", path: `2023-2024\first\P1`, wantErr: false},
		{name: "dot dot segment", path: "2023-2024/../etc", wantErr: true},
		{name: "single dot segment", path: "2023-2024/./first", wantErr: true},
		{name: "bare dot dot", path: "..", wantErr: true},
		{name: "drive letter", path: `C:\Windows`, wantErr: true},
		{name: "control character", path: "2023-2024/fi\x00rst", wantErr: true},
		{name: "question mark", path: "what?", wantErr: true},
		{name: "angle bracket", path: "a/<b>", wantErr: true},
		{name: "pipe", path: "a|b", wantErr: true},
		{name: "quote", path: `say-"hi"`, wantErr: true},
		{name: "oversized segment", path: strings.Repeat("a", config.MaxSegmentLength+1), wantErr: true},
		{name: "segment at limit", path: strings.Repeat("a", config.MaxSegmentLength), wantErr: false},
		{name: "oversized path", path: strings.Repeat("ab/", config.MaxPathLength), wantErr: true},
		{name: "unicode segment", path: "2023-2024/первый", wantErr: false},
		{name: "spaces inside segment", path: "2023-2024/first/Jane Doe", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.ValidateSyntax(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateSyntax(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidPath) {
				t.Errorf("error %v is not ErrInvalidPath", err)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/", ""},
		{"//", ""},
		{"a/b/c", "a/b/c"},
		{"/a/b/c/", "a/b/c"},
		{"a//b///c", "a/b/c"},
		{`a\b\c`, "a/b/c"},
		{"  a/b  ", "a/b"},
		{`\a\\b/`, "a/b"},
	}

	for _, tt := range tests {
		got := r.Normalize(tt.in)
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
		// Normalization must be idempotent.
		if again := r.Normalize(got); again != got {
			t.Errorf("Normalize not idempotent: %q -> %q -> %q", tt.in, got, again)
		}
	}
}

func TestResolveContainment(t *testing.T) {
	r := newTestResolver(t)

	abs, err := r.Resolve("2023-2024/first/P1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.HasPrefix(abs, r.Root()) {
		t.Errorf("resolved path %q escapes root %q", abs, r.Root())
	}
	if filepath.Base(abs) != "P1" {
		t.Errorf("resolved leaf = %q, want P1", filepath.Base(abs))
	}

	if _, err := r.Resolve("../outside"); !errors.Is(err, domain.ErrInvalidPath) {
		t.Errorf("Resolve traversal error = %v, want ErrInvalidPath", err)
	}

	root, err := r.Resolve("")
	if err != nil {
		t.Fatalf("Resolve root: %v", err)
	}
	if root != r.Root() {
		t.Errorf("Resolve(\"\") = %q, want root %q", root, r.Root())
	}
}

func TestToRelativePathRoundTrip(t *testing.T) {
	r := newTestResolver(t)

	for _, path := range []string{"", "2023-2024", "2023-2024/first/P1/CS101"} {
		abs, err := r.Resolve(path)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", path, err)
		}
		rel, err := r.ToRelativePath(abs)
		if err != nil {
			t.Fatalf("ToRelativePath(%q): %v", abs, err)
		}
		if rel != r.Normalize(path) {
			t.Errorf("round trip of %q = %q", path, rel)
		}
	}

	if _, err := r.ToRelativePath("/definitely/elsewhere"); !errors.Is(err, domain.ErrInvalidPath) {
		t.Errorf("ToRelativePath outside root error = %v, want ErrInvalidPath", err)
	}
}

func TestParentPath(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		in   string
		want string
	}{
		{"a/b/c", "a/b"},
		{"a", ""},
		{"", ""},
		{"/a/b/", "a"},
	}

	for _, tt := range tests {
		if got := r.ParentPath(tt.in); got != tt.want {
			t.Errorf("ParentPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
