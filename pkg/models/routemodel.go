package models

import (
	"fmt"
	"time"
)

// StepType determines how a route step is resolved and which permission
// the step target is granted while the step is pending.
type StepType string

const (
	StepTypeApprove  StepType = "APPROVE"  // grants WRITE, resolved with APPROVED or REJECTED
	StepTypeValidate StepType = "VALIDATE" // grants READ, resolved with VALIDATED
)

// Outcome is the labeled result of resolving a pending route step.
type Outcome string

const (
	OutcomeApproved  Outcome = "APPROVED"
	OutcomeRejected  Outcome = "REJECTED"
	OutcomeValidated Outcome = "VALIDATED"
)

// StepPermission returns the permission a step of the given type grants
// to its target while pending.
func StepPermission(stepType StepType) Permission {
	if stepType == StepTypeApprove {
		return PermissionWrite
	}

	return PermissionRead
}

// AllowedOutcomes returns the outcomes legal for a step type.
func AllowedOutcomes(stepType StepType) []Outcome {
	if stepType == StepTypeApprove {
		return []Outcome{OutcomeApproved, OutcomeRejected}
	}

	return []Outcome{OutcomeValidated}
}

// OutcomeAllowed reports whether the outcome is legal for the step type.
func OutcomeAllowed(stepType StepType, outcome Outcome) bool {
	for _, o := range AllowedOutcomes(stepType) {
		if o == outcome {
			return true
		}
	}

	return false
}

// ActionSpec binds an action kind and its parameter bag to a transition
// outcome of a step template. Params are validated against the action's
// schema when the model is saved, before any route can reference it.
type ActionSpec struct {
	Kind   string         `json:"kind" validate:"required"`
	Params map[string]any `json:"params,omitempty"`
}

// StepTemplate is one step definition inside a route model.
type StepTemplate struct {
	Name       string                   `json:"name"        validate:"required,min=1"`
	Type       StepType                 `json:"type"        validate:"required,oneof=APPROVE VALIDATE"`
	TargetType TargetType               `json:"target_type" validate:"required,oneof=USER GROUP"`
	TargetID   string                   `json:"target_id"   validate:"required"`
	Actions    map[Outcome][]ActionSpec `json:"actions,omitempty"`
}

// ValidateOutcomes checks that every outcome carrying actions is legal
// for the step's type.
func (st *StepTemplate) ValidateOutcomes() error {
	for outcome := range st.Actions {
		if !OutcomeAllowed(st.Type, outcome) {
			return fmt.Errorf("outcome %s is not legal for %s step %q", outcome, st.Type, st.Name)
		}
	}

	return nil
}

// RouteModel is a reusable named workflow template. It becomes immutable
// once a route has been instantiated from it; the routing engine
// enforces this, not the store.
type RouteModel struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"  validate:"required,min=1"`
	Steps     []StepTemplate `json:"steps" validate:"required,min=1,dive"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
