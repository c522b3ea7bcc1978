package domain

import (
	"errors"
	"fmt"
)

// Provider outcomes are classified once, at the infrastructure edge, into
// this small taxonomy. The application layer branches on these and never
// inspects SDK error types directly.
var (
	// ErrNotFound marks a missing resource or entry. During a locate
	// step it is a control signal (take the create path), not a failure.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists marks a duplicate-name rejection from a create
	// call. For user creation it degrades the operation to an update.
	ErrAlreadyExists = errors.New("already exists")
)

// RejectedError is a provider-side rejection of otherwise well-formed
// input (e.g. a password failing the complexity policy). The provider's
// code and message are preserved verbatim for the caller.
type RejectedError struct {
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// UnavailableError wraps a transport-level failure talking to a provider.
// Never retried here; callers wanting retries must wrap their calls.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("provider unavailable during %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// InconsistentError reports a registry write that failed after the
// authoritative directory write succeeded. The two stores now disagree;
// this is surfaced for manual reconciliation, never rolled back.
type InconsistentError struct {
	Org      string
	Username string
	Err      error
}

func (e *InconsistentError) Error() string {
	return fmt.Sprintf("directory updated but registry write failed for %q in org %q: %v",
		e.Username, e.Org, e.Err)
}

func (e *InconsistentError) Unwrap() error { return e.Err }
