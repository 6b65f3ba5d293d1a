package rewrite

import (
	"errors"
	"fmt"
)

// ErrConflict marks a restricted-parameter collision.  Match with errors.Is;
// use errors.As with *ConflictError for the details.
var ErrConflict = errors.New("restricted parameter conflict")

// ConflictError reports a canonical parameter that the inbound request
// already carries.  The host must stop handling the request: neither value
// can be picked safely.
type ConflictError struct {
	Param     string // offending key
	Canonical string // resolved canonical URL, query included
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"parameter %q is restricted as this parameter is already present in original url (%s).",
		e.Param, e.Canonical)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
