package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/nvoss/toolgate/internal/domain"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Root confines all file and command access to one fixed directory.
// Every caller-supplied path is resolved against it and rejected before
// any filesystem operation if the resolution escapes.
type Root struct {
	dir string
}

// NewRoot resolves dir to an absolute path and creates it if needed.
func NewRoot(dir string) (*Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sandbox root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sandbox root: %w", err)
	}
	return &Root{dir: abs}, nil
}

// Dir returns the absolute root directory.
func (r *Root) Dir() string {
	return r.dir
}

// SafeName reduces a caller-supplied file name to a storable base name:
// directories are stripped, anything outside [A-Za-z0-9_.-] becomes an
// underscore, and leading dots are removed. An empty result is replaced
// with a time-derived placeholder so storage never sees an empty name.
func SafeName(name string) string {
	base := filepath.Base(name)
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.TrimLeft(base, ".")
	if base == "" {
		base = fmt.Sprintf("f_%d", time.Now().Unix())
	}
	return base
}

// StripTraversal removes parent-directory tokens and leading separators.
func StripTraversal(p string) string {
	p = strings.ReplaceAll(p, "../", "")
	return strings.TrimLeft(p, "/")
}

// Resolve resolves a (possibly relative) path against the root and
// verifies containment. The root itself is a valid resolution. Any
// escape fails with domain.ErrAccessDenied.
func (r *Root) Resolve(path string) (string, error) {
	candidate := path
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(r.dir, candidate)
	}
	candidate = filepath.Clean(candidate)

	rel, err := filepath.Rel(r.dir, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", domain.ErrAccessDenied
	}
	return candidate, nil
}
