package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/docdeck/docdeck/pkg/models"
	"github.com/docdeck/docdeck/pkg/persistence"
	"github.com/docdeck/docdeck/pkg/registry"
)

// ModelService manages reusable route models. Models are validated on
// save, including every action spec against the registry, and become
// immutable once a route has been instantiated from them.
type ModelService struct {
	routeModels persistence.RouteModelRepository
	routes      persistence.RouteRepository
	registry    *registry.Registry
	validate    *validator.Validate
}

func NewModelService(
	routeModels persistence.RouteModelRepository,
	routes persistence.RouteRepository,
	reg *registry.Registry,
) *ModelService {
	return &ModelService{
		routeModels: routeModels,
		routes:      routes,
		registry:    reg,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ValidateModel runs structural validation plus outcome legality and
// action spec schema checks for every step.
func (s *ModelService) ValidateModel(model *models.RouteModel) error {
	if err := s.validate.Struct(model); err != nil {
		return NewValidationError("route model is malformed", err)
	}

	for i := range model.Steps {
		step := &model.Steps[i]

		if err := step.ValidateOutcomes(); err != nil {
			return NewValidationError("illegal outcome mapping", err)
		}

		for outcome, specs := range step.Actions {
			for _, spec := range specs {
				if err := s.registry.ValidateSpec(spec.Kind, spec.Params); err != nil {
					return NewValidationError(
						fmt.Sprintf("invalid action on step %q outcome %s", step.Name, outcome), err)
				}
			}
		}
	}

	return nil
}

// Create validates and stores a new route model.
func (s *ModelService) Create(ctx context.Context, model *models.RouteModel) (*models.RouteModel, error) {
	if err := s.ValidateModel(model); err != nil {
		return nil, err
	}

	if model.ID == "" {
		model.ID = uuid.New().String()
	}

	now := time.Now()
	model.CreatedAt = now
	model.UpdatedAt = now

	if err := s.routeModels.Save(ctx, model); err != nil {
		return nil, err
	}

	return model, nil
}

// Update replaces a route model. Rejected once any route, active or
// completed, has been instantiated from it: in-flight routes carry their
// own step copies, but the model itself stays frozen as their record.
func (s *ModelService) Update(ctx context.Context, id string, model *models.RouteModel) (*models.RouteModel, error) {
	existing, err := s.routeModels.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrRouteModelNotFound) {
			return nil, &NotFoundError{Kind: "route model", ID: id, Err: err}
		}

		return nil, err
	}

	count, err := s.routes.CountByModel(ctx, id)
	if err != nil {
		return nil, err
	}

	if count > 0 {
		return nil, NewValidationError("route model has been instantiated", ErrRouteModelInUse)
	}

	model.ID = id

	if err := s.ValidateModel(model); err != nil {
		return nil, err
	}

	model.CreatedAt = existing.CreatedAt
	model.UpdatedAt = time.Now()

	if err := s.routeModels.Save(ctx, model); err != nil {
		return nil, err
	}

	return model, nil
}

// Delete removes a route model unless active routes still reference it.
func (s *ModelService) Delete(ctx context.Context, id string) error {
	if _, err := s.routeModels.GetByID(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrRouteModelNotFound) {
			return &NotFoundError{Kind: "route model", ID: id, Err: err}
		}

		return err
	}

	active, err := s.routes.CountActiveByModel(ctx, id)
	if err != nil {
		return err
	}

	if active > 0 {
		return NewValidationError("route model has active routes", ErrRouteModelInUse)
	}

	return s.routeModels.Delete(ctx, id)
}

// Get returns a route model by id.
func (s *ModelService) Get(ctx context.Context, id string) (*models.RouteModel, error) {
	model, err := s.routeModels.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrRouteModelNotFound) {
			return nil, &NotFoundError{Kind: "route model", ID: id, Err: err}
		}

		return nil, err
	}

	return model, nil
}

// List returns every stored route model.
func (s *ModelService) List(ctx context.Context) ([]*models.RouteModel, error) {
	return s.routeModels.List(ctx)
}
