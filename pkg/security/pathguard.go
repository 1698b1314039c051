package security

import (
	"os"
	"path/filepath"
	"strings"
)

// ConfinedPath is an absolute, resolved path together with the base
// directory it was proven to live under. Values can only be produced by
// Confine, never from a bare string.
type ConfinedPath struct {
	path string
	base string
}

// Path returns the resolved absolute path.
func (c ConfinedPath) Path() string { return c.path }

// Base returns the resolved absolute base directory.
func (c ConfinedPath) Base() string { return c.base }

// IsZero reports whether c was never constructed by Confine.
func (c ConfinedPath) IsZero() bool { return c.path == "" }

// Confine resolves candidate against base and proves the result stays
// inside it. The check is deliberately doubled: the raw candidate is
// rejected up front if it is rooted or carries a parent segment, and the
// joined path is re-proven against the resolved base afterwards, so a
// normalization bug in either layer is caught by the other. Confine never
// creates the target.
func Confine(candidate, base string) (ConfinedPath, error) {
	if strings.TrimSpace(base) == "" {
		return ConfinedPath{}, &ValidationError{Class: "base directory", Reason: "empty"}
	}
	if strings.TrimSpace(candidate) == "" {
		return ConfinedPath{}, &ValidationError{Class: "path candidate", Reason: "empty"}
	}
	if strings.ContainsRune(candidate, 0) {
		return ConfinedPath{}, &ValidationError{Class: "path candidate", Reason: "contains NUL byte"}
	}
	if filepath.IsAbs(candidate) || strings.HasPrefix(candidate, "/") || strings.HasPrefix(candidate, `\`) {
		return ConfinedPath{}, &TraversalError{Candidate: candidate, Base: base}
	}
	if hasParentSegment(candidate) {
		return ConfinedPath{}, &TraversalError{Candidate: candidate, Base: base}
	}

	absBase := normalizePath(base)
	resolved := filepath.Clean(filepath.Join(absBase, candidate))
	if !withinBase(resolved, absBase) {
		return ConfinedPath{}, &TraversalError{Candidate: candidate, Base: absBase}
	}

	// When the target already exists, follow symlinks and prove the real
	// location as well.
	if real, err := filepath.EvalSymlinks(resolved); err == nil {
		realBase := absBase
		if rb, err := filepath.EvalSymlinks(absBase); err == nil {
			realBase = rb
		}
		if !withinBase(real, realBase) {
			return ConfinedPath{}, &TraversalError{Candidate: candidate, Base: realBase}
		}
	}

	return ConfinedPath{path: resolved, base: absBase}, nil
}

// EnsureDirectory idempotently creates the directory tree at an
// already-confined path. Calling it repeatedly is safe.
func EnsureDirectory(cp ConfinedPath) error {
	if cp.IsZero() {
		return &ValidationError{Class: "confined path", Reason: "zero value"}
	}
	return os.MkdirAll(cp.path, 0o755)
}

func hasParentSegment(candidate string) bool {
	normalized := strings.ReplaceAll(candidate, `\`, "/")
	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return true
		}
	}
	return false
}

func normalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}

// withinBase treats prefix as a directory boundary, not a naive substring:
// /a must not match /ab.
func withinBase(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)

	if path == prefix {
		return true
	}
	if prefix == string(filepath.Separator) {
		return true
	}
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
