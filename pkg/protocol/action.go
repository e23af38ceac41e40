// Package protocol defines the contracts for pluggable routing actions.
package protocol

import (
	"context"
	"log/slog"

	"github.com/docdeck/docdeck/pkg/eventbus"
	"github.com/docdeck/docdeck/pkg/models"
	"github.com/docdeck/docdeck/pkg/persistence"
)

// ActionContext carries the document being routed and the collaborators
// an action may use. The routing engine builds one per transition and
// invokes actions while holding the document's mutation lock, so
// read-then-write sequences on the document are safe.
type ActionContext struct {
	DocumentID string
	RouteID    string
	StepID     string
	Outcome    models.Outcome

	Documents persistence.DocumentRepository
	Files     persistence.FileRepository
	Tags      persistence.TagRepository
	Events    eventbus.EventPublisher
}

// Action is one side effect bound to a step transition. Failures are
// logged by the engine and never roll back the transition.
type Action interface {
	Execute(ctx context.Context, actionCtx ActionContext, logger *slog.Logger) error
}

// ActionFactory creates action instances and describes the action kind.
type ActionFactory interface {
	// Create builds an action from a validated parameter bag.
	Create(params map[string]any) (Action, error)

	// ID returns the action kind identifier used in ActionSpec.Kind.
	ID() string

	// Name returns the human-readable name for this action kind.
	Name() string

	// Description returns a description of what this action does.
	Description() string

	// Schema returns the JSON schema the parameter bag is validated
	// against at model save time.
	Schema() map[string]any
}
