// Package routing implements the document approval routing engine: the
// per-document workflow state machine, the route model service and the
// event listeners that keep routes consistent with the platform.
package routing

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentAlreadyRouted indicates the document already has an
	// active route; one active route per document at a time.
	ErrDocumentAlreadyRouted = errors.New("document already has an active route")

	// ErrRouteStepAlreadyEnded indicates a transition was posted on a
	// terminal step.
	ErrRouteStepAlreadyEnded = errors.New("route step already ended")

	// ErrRouteModelInUse indicates the route model cannot be changed or
	// deleted because routes reference it.
	ErrRouteModelInUse = errors.New("route model is referenced by routes")
)

// ValidationError marks a caller fault: malformed model, action spec or
// outcome. Correcting the input recovers; never retried automatically.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation failed: %s: %v", e.Msg, e.Err)
	}

	return "validation failed: " + e.Msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

func NewValidationError(msg string, err error) *ValidationError {
	return &ValidationError{Msg: msg, Err: err}
}

// ForbiddenError marks an authorization failure; never retried.
type ForbiddenError struct {
	UserID string
	Msg    string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden for user %s: %s", e.UserID, e.Msg)
}

// NotFoundError marks a missing model, route or step.
type NotFoundError struct {
	Kind string
	ID   string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ActionExecutionError marks a failed transition action. It is logged
// and never rolls back the step transition.
type ActionExecutionError struct {
	Kind   string
	StepID string
	Err    error
}

func (e *ActionExecutionError) Error() string {
	return fmt.Sprintf("action %s failed on step %s: %v", e.Kind, e.StepID, e.Err)
}

func (e *ActionExecutionError) Unwrap() error { return e.Err }

func IsValidationError(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}

func IsForbiddenError(err error) bool {
	var fe *ForbiddenError

	return errors.As(err, &fe)
}

func IsNotFoundError(err error) bool {
	var ne *NotFoundError

	return errors.As(err, &ne)
}
