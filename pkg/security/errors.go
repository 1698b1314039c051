package security

import "fmt"

// ValidationError reports input that failed a whitelist rule. It is always
// raised before any I/O happens, so a caller that sees one knows no side
// effect occurred.
type ValidationError struct {
	Class  string // input class, e.g. "model name"
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("security: invalid %s: %s", e.Class, e.Reason)
}

// TraversalError reports a candidate path that escapes its base directory.
// It is fatal to the requested operation; callers must not truncate or
// otherwise "correct" the path and continue.
type TraversalError struct {
	Candidate string
	Base      string
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("security: path traversal detected: %q escapes %q", e.Candidate, e.Base)
}
