// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver errors: ErrNotFound and ErrInvalidState become inline
// messages, ErrForbidden a 403, ErrConflict a 409.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the targeted row does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidState is returned when a guarded transition is attempted from
// a state that does not allow it (enabling a listing with no stock,
// approving a vendor who is not pending, suspending a suspended user).
var ErrInvalidState = errors.New("invalid state")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as deleting a catalog
// template that vendors still list. Handlers should translate this
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when registering an address already in use.
var ErrEmailExists = errors.New("email already exists")

// ErrDuplicateCatalog is returned when a catalog template with the same
// category, brand and model number already exists.
var ErrDuplicateCatalog = errors.New("duplicate catalog entry")

// StateError wraps ErrInvalidState, ErrNotFound or ErrConflict with the
// message shown to the admin who triggered it.
type StateError struct {
	Err     error
	Message string
}

func (e *StateError) Error() string { return e.Message }
func (e *StateError) Unwrap() error { return e.Err }

func invalidState(msg string) error { return &StateError{Err: ErrInvalidState, Message: msg} }
func notFound(msg string) error     { return &StateError{Err: ErrNotFound, Message: msg} }
func conflict(msg string) error     { return &StateError{Err: ErrConflict, Message: msg} }

// ValidationError lists user-correctable problems with submitted input.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string { return strings.Join(e.Problems, " ") }

// isDuplicateKey reports whether err is a unique-index violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
