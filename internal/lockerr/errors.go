// Package lockerr defines the error taxonomy shared by the lock checkers.
//
//   - ParseError: a malformed manifest line or lock artifact
//   - IOError: a missing or unreadable file or directory
//   - ErrCancelled: the caller's context ended before the check finished
//
// A drifted lock is not represented here; lockcheck.InconsistentLockError
// carries the full comparison result instead.
package lockerr

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned (wrapped together with the context error) when a
// check is aborted through its context.
var ErrCancelled = errors.New("lock check cancelled")

// ParseError reports malformed input. Line is 1-based; 0 means the error is
// not tied to a single line (e.g. invalid JSON).
type ParseError struct {
	Path   string
	Line   int
	Text   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %q", e.Path, e.Line, e.Reason, e.Text)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IOError reports a filesystem failure. Op names what was attempted
// ("open manifest", "read source", ...).
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Cancelled wraps a context error so that both ErrCancelled and the original
// context error match with errors.Is.
func Cancelled(ctxErr error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, ctxErr)
}

// IsParse reports whether err contains a *ParseError.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsIO reports whether err contains an *IOError.
func IsIO(err error) bool {
	var ie *IOError
	return errors.As(err, &ie)
}
