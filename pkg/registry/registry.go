// Package registry maps action kinds to their implementations and
// validates action parameters against each kind's schema.
package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/xeipuuv/gojsonschema"

	"github.com/docdeck/docdeck/pkg/protocol"
)

type Registry struct {
	logger          *slog.Logger
	actionFactories map[string]protocol.ActionFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:          logger,
		actionFactories: make(map[string]protocol.ActionFactory),
	}
}

func (r *Registry) RegisterAction(factory protocol.ActionFactory) {
	r.actionFactories[factory.ID()] = factory
}

// CreateAction builds an executable action for the given kind.
func (r *Registry) CreateAction(kind string, params map[string]any) (protocol.Action, error) {
	factory, ok := r.actionFactories[kind]
	if !ok {
		return nil, fmt.Errorf("action kind '%s' not registered", kind)
	}

	return factory.Create(params)
}

// ValidateSpec checks an action parameter bag against the kind's JSON
// schema. Called at model save time so invalid specs are rejected before
// any route can reference the model.
func (r *Registry) ValidateSpec(kind string, params map[string]any) error {
	factory, ok := r.actionFactories[kind]
	if !ok {
		return fmt.Errorf("action kind '%s' not registered", kind)
	}

	schemaJSON, err := json.Marshal(factory.Schema())
	if err != nil {
		return fmt.Errorf("invalid schema for action kind '%s': %w", kind, err)
	}

	if params == nil {
		params = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(params),
	)
	if err != nil {
		return fmt.Errorf("schema validation for action kind '%s': %w", kind, err)
	}

	if !result.Valid() {
		first := result.Errors()[0]

		return fmt.Errorf("invalid params for action kind '%s': %s", kind, first.String())
	}

	return nil
}

// ActionKinds returns the registered kinds.
func (r *Registry) ActionKinds() []string {
	kinds := make([]string, 0, len(r.actionFactories))
	for kind := range r.actionFactories {
		kinds = append(kinds, kind)
	}

	return kinds
}
