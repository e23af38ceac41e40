package routing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/docdeck/docdeck/pkg/acl"
	"github.com/docdeck/docdeck/pkg/eventbus"
	"github.com/docdeck/docdeck/pkg/events"
	"github.com/docdeck/docdeck/pkg/keylock"
	"github.com/docdeck/docdeck/pkg/models"
	"github.com/docdeck/docdeck/pkg/persistence"
	"github.com/docdeck/docdeck/pkg/protocol"
	"github.com/docdeck/docdeck/pkg/registry"
)

// Engine drives the per-document approval workflow. Every mutating
// operation runs inside the document's keyed mutex, so the permission
// check, the revoke+grant pair and the step mutation of one transition
// observe a consistent snapshot.
type Engine struct {
	persistence persistence.Persistence
	acls        *acl.Store
	registry    *registry.Registry
	models      *ModelService
	bus         eventbus.EventPublisher
	locks       *keylock.KeyedMutex
	logger      *slog.Logger
}

func NewEngine(
	p persistence.Persistence,
	acls *acl.Store,
	reg *registry.Registry,
	modelService *ModelService,
	bus eventbus.EventPublisher,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		persistence: p,
		acls:        acls,
		registry:    reg,
		models:      modelService,
		bus:         bus,
		locks:       keylock.New(),
		logger:      logger.With("module", "routing"),
	}
}

// StartRoute instantiates a route from a model for a document, grants
// the first step's target its step-scoped permission and emits the
// acl-created event.
func (e *Engine) StartRoute(ctx context.Context, documentID, routeModelID, initiatorID string) (*models.Route, error) {
	if _, err := e.persistence.DocumentRepository().GetByID(ctx, documentID); err != nil {
		if errors.Is(err, persistence.ErrDocumentNotFound) {
			return nil, &NotFoundError{Kind: "document", ID: documentID, Err: err}
		}

		return nil, err
	}

	model, err := e.models.Get(ctx, routeModelID)
	if err != nil {
		return nil, err
	}

	if err := e.models.ValidateModel(model); err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(documentID)
	defer unlock()

	active, err := e.persistence.RouteRepository().ActiveByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if active != nil {
		return nil, NewValidationError("document "+documentID, ErrDocumentAlreadyRouted)
	}

	route := e.materialize(model, documentID, initiatorID)

	if err := e.persistence.RouteRepository().Save(ctx, route); err != nil {
		return nil, err
	}

	if err := e.grantStepPermission(ctx, route.DocumentID, &route.Steps[0]); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "Started route",
		"route_id", route.ID, "document_id", documentID, "route_model_id", routeModelID)

	return route, nil
}

// materialize copies the model's step templates into step instances.
// The copy is private to the route: later model edits never reach it.
func (e *Engine) materialize(model *models.RouteModel, documentID, initiatorID string) *models.Route {
	route := &models.Route{
		ID:           uuid.New().String(),
		DocumentID:   documentID,
		RouteModelID: model.ID,
		CreatorID:    initiatorID,
		CreatedAt:    time.Now(),
		Steps:        make([]models.RouteStep, len(model.Steps)),
	}

	for i, template := range model.Steps {
		route.Steps[i] = models.RouteStep{
			ID:         uuid.New().String(),
			RouteID:    route.ID,
			Index:      i,
			Name:       template.Name,
			Type:       template.Type,
			TargetType: template.TargetType,
			TargetID:   template.TargetID,
			Actions:    template.Actions,
		}
	}

	return route
}

// Transition resolves the pending step with the given outcome. On
// success the step is terminal, its routing permission is revoked, the
// outcome's actions have run best-effort, and either the next step's
// target holds the follow-up permission or the route is completed.
func (e *Engine) Transition(ctx context.Context, routeStepID string, outcome models.Outcome, actingUserID, comment string) (*models.RouteStep, error) {
	located, err := e.persistence.RouteRepository().GetByStepID(ctx, routeStepID)
	if err != nil {
		if errors.Is(err, persistence.ErrRouteStepNotFound) {
			return nil, &NotFoundError{Kind: "route step", ID: routeStepID, Err: err}
		}

		return nil, err
	}

	unlock := e.locks.Lock(located.DocumentID)
	defer unlock()

	// Reload under the lock; a concurrent transition may have won.
	route, err := e.persistence.RouteRepository().GetByID(ctx, located.ID)
	if err != nil {
		return nil, err
	}

	step := findStep(route, routeStepID)
	if step == nil {
		return nil, &NotFoundError{Kind: "route step", ID: routeStepID, Err: persistence.ErrRouteStepNotFound}
	}

	if step.Ended() {
		return nil, ErrRouteStepAlreadyEnded
	}

	pending := route.PendingStep()
	if pending == nil || pending.ID != step.ID {
		return nil, NewValidationError("step "+routeStepID+" is not the current step of its route", nil)
	}

	isTarget, err := e.acls.IsStepTarget(ctx, step, actingUserID)
	if err != nil {
		return nil, err
	}

	if !isTarget {
		return nil, &ForbiddenError{UserID: actingUserID, Msg: "not the assigned target of step " + step.ID}
	}

	if !models.OutcomeAllowed(step.Type, outcome) {
		return nil, NewValidationError(
			"outcome "+string(outcome)+" is not legal for "+string(step.Type)+" steps", nil)
	}

	now := time.Now()
	step.EndDate = &now
	step.Outcome = &outcome
	step.ActorID = actingUserID
	step.Comment = comment

	if err := e.persistence.RouteRepository().Save(ctx, route); err != nil {
		return nil, err
	}

	if err := e.acls.RevokeByStep(ctx, step.ID); err != nil {
		return nil, err
	}

	e.runActions(ctx, route, step, outcome)

	// A REJECTED outcome still advances: rejection is a labeled
	// transition, not an abort. Terminating on rejection is the model
	// designer's job, via a model that ends there.
	next := route.PendingStep()
	if next != nil {
		if err := e.grantStepPermission(ctx, route.DocumentID, next); err != nil {
			return nil, err
		}
	} else {
		e.publishCompleted(ctx, route, outcome)
	}

	e.logger.InfoContext(ctx, "Transitioned route step",
		"route_id", route.ID, "step_id", step.ID, "outcome", outcome, "actor_id", actingUserID)

	result := *step

	return &result, nil
}

// ActiveStep returns the document's current pending step, or nil when
// the document has no active route.
func (e *Engine) ActiveStep(ctx context.Context, documentID string) (*models.RouteStep, error) {
	route, err := e.persistence.RouteRepository().ActiveByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if route == nil {
		return nil, nil
	}

	pending := route.PendingStep()
	if pending == nil {
		return nil, nil
	}

	result := *pending

	return &result, nil
}

// ActiveRoute returns the document's active route, or nil.
func (e *Engine) ActiveRoute(ctx context.Context, documentID string) (*models.Route, error) {
	return e.persistence.RouteRepository().ActiveByDocument(ctx, documentID)
}

// GetRoute returns a route by id.
func (e *Engine) GetRoute(ctx context.Context, routeID string) (*models.Route, error) {
	route, err := e.persistence.RouteRepository().GetByID(ctx, routeID)
	if err != nil {
		if errors.Is(err, persistence.ErrRouteNotFound) {
			return nil, &NotFoundError{Kind: "route", ID: routeID, Err: err}
		}

		return nil, err
	}

	return route, nil
}

// TerminateForDocument cascade-terminates the document's active route:
// every routing permission it owns is revoked and the route is removed.
// Invoked when the document is deleted.
func (e *Engine) TerminateForDocument(ctx context.Context, documentID string) error {
	unlock := e.locks.Lock(documentID)
	defer unlock()

	route, err := e.persistence.RouteRepository().ActiveByDocument(ctx, documentID)
	if err != nil {
		return err
	}

	if route == nil {
		return nil
	}

	for i := range route.Steps {
		if err := e.acls.RevokeByStep(ctx, route.Steps[i].ID); err != nil {
			return err
		}
	}

	if err := e.persistence.RouteRepository().Delete(ctx, route.ID); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "Terminated route for deleted document",
		"route_id", route.ID, "document_id", documentID)

	return nil
}

// grantStepPermission grants the step's target the step-scoped routing
// permission: WRITE for APPROVE steps, READ for VALIDATE steps.
func (e *Engine) grantStepPermission(ctx context.Context, documentID string, step *models.RouteStep) error {
	_, err := e.acls.Grant(ctx, models.Acl{
		SourceID:    documentID,
		Perm:        models.StepPermission(step.Type),
		TargetType:  step.TargetType,
		TargetID:    step.TargetID,
		Origin:      models.AclOriginRouting,
		RouteStepID: step.ID,
	})

	return err
}

// runActions executes the specs bound to the outcome, in list order,
// best-effort: a failure is logged and the remaining actions still run.
func (e *Engine) runActions(ctx context.Context, route *models.Route, step *models.RouteStep, outcome models.Outcome) {
	specs := step.Actions[outcome]
	if len(specs) == 0 {
		return
	}

	actionCtx := protocol.ActionContext{
		DocumentID: route.DocumentID,
		RouteID:    route.ID,
		StepID:     step.ID,
		Outcome:    outcome,
		Documents:  e.persistence.DocumentRepository(),
		Files:      e.persistence.FileRepository(),
		Tags:       e.persistence.TagRepository(),
		Events:     e.bus,
	}

	for _, spec := range specs {
		action, err := e.registry.CreateAction(spec.Kind, spec.Params)
		if err != nil {
			e.logger.ErrorContext(ctx, "Skipping unresolvable action",
				"error", &ActionExecutionError{Kind: spec.Kind, StepID: step.ID, Err: err})

			continue
		}

		if err := action.Execute(ctx, actionCtx, e.logger); err != nil {
			e.logger.ErrorContext(ctx, "Transition action failed",
				"error", &ActionExecutionError{Kind: spec.Kind, StepID: step.ID, Err: err})
		}
	}
}

func (e *Engine) publishCompleted(ctx context.Context, route *models.Route, lastOutcome models.Outcome) {
	event := events.RouteCompleted{
		BaseEvent: events.BaseEvent{
			ID:        uuid.New().String(),
			Type:      events.RouteCompletedEvent,
			Timestamp: time.Now(),
		},
		RouteID:     route.ID,
		DocumentID:  route.DocumentID,
		LastOutcome: string(lastOutcome),
	}

	if err := e.bus.Publish(ctx, route.DocumentID, event); err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish route-completed event",
			"route_id", route.ID, "error", err)
	}
}

func findStep(route *models.Route, stepID string) *models.RouteStep {
	for i := range route.Steps {
		if route.Steps[i].ID == stepID {
			return &route.Steps[i]
		}
	}

	return nil
}
