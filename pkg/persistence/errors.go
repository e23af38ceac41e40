// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	ErrRouteModelNotFound = errors.New("route model not found")
	ErrRouteNotFound      = errors.New("route not found")
	ErrRouteStepNotFound  = errors.New("route step not found")
	ErrAclNotFound        = errors.New("acl entry not found")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrFileNotFound       = errors.New("file not found")
	ErrTagNotFound        = errors.New("tag not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrGroupNotFound      = errors.New("group not found")
)

// StoreError wraps repository errors with operation context.
type StoreError struct {
	Op       string // Operation being performed (e.g. "GetByID", "Save")
	EntityID string // Entity ID if applicable
	Err      error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.EntityID != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.EntityID, e.Err)
	}

	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a store error with operation context.
func NewStoreError(op, entityID string, err error) *StoreError {
	return &StoreError{Op: op, EntityID: entityID, Err: err}
}

// IsNotFound reports whether the error is any of the not-found sentinels.
func IsNotFound(err error) bool {
	for _, sentinel := range []error{
		ErrRouteModelNotFound, ErrRouteNotFound, ErrRouteStepNotFound,
		ErrAclNotFound, ErrDocumentNotFound, ErrFileNotFound,
		ErrTagNotFound, ErrUserNotFound, ErrGroupNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}

	return false
}
