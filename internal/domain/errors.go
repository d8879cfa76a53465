package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUnknownPermission = errors.New("unknown permission level")
	ErrDatabase          = errors.New("database error")

	ErrRoleNotFound     = fmt.Errorf("role %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)
)

// DatabaseError is the single opaque storage failure kind. It matches ErrDatabase
// and does not unwrap to the driver error.
type DatabaseError struct {
	Op    string
	cause string
}

func NewDatabaseError(op string, cause error) *DatabaseError {
	e := &DatabaseError{Op: op}
	if cause != nil {
		e.cause = cause.Error()
	}
	return e
}

func (e *DatabaseError) Error() string {
	msg := ErrDatabase.Error()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.cause != "" {
		msg += ": " + e.cause
	}
	return msg
}

func (e *DatabaseError) Is(target error) bool {
	return target == ErrDatabase
}

// Reissue maps a lower-layer storage error into a fresh DatabaseError owned by op.
// The inner op chain and cause are kept. Errors that are not storage failures
// are returned unchanged.
func Reissue(op string, err error) error {
	if err == nil {
		return nil
	}
	var inner *DatabaseError
	if errors.As(err, &inner) {
		return &DatabaseError{Op: joinOps(op, inner.Op), cause: inner.cause}
	}
	if errors.Is(err, ErrDatabase) {
		return NewDatabaseError(op, nil)
	}
	return err
}

func joinOps(outer, inner string) string {
	switch {
	case outer == "":
		return inner
	case inner == "":
		return outer
	}
	return outer + ": " + inner
}
