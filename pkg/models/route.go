package models

import "time"

// RouteStep is one step instance inside a running route. It is created
// at route start from the model's step template, mutated exactly once on
// its transition, and terminal once EndDate is set.
type RouteStep struct {
	ID         string                   `json:"id"`
	RouteID    string                   `json:"route_id"`
	Index      int                      `json:"index"`
	Name       string                   `json:"name"`
	Type       StepType                 `json:"type"`
	TargetType TargetType               `json:"target_type"`
	TargetID   string                   `json:"target_id"`
	Actions    map[Outcome][]ActionSpec `json:"actions,omitempty"`
	EndDate    *time.Time               `json:"end_date,omitempty"`
	Outcome    *Outcome                 `json:"outcome,omitempty"`
	Comment    string                   `json:"comment,omitempty"`
	ActorID    string                   `json:"actor_id,omitempty"`
}

// Ended reports whether the step is terminal.
func (s *RouteStep) Ended() bool {
	return s.EndDate != nil
}

// Route is a running workflow instance applied to one document. Steps
// are a private copy materialized from the model at start time, immune
// to later model edits.
type Route struct {
	ID           string      `json:"id"`
	DocumentID   string      `json:"document_id"`
	RouteModelID string      `json:"route_model_id"`
	CreatorID    string      `json:"creator_id"`
	CreatedAt    time.Time   `json:"created_at"`
	Steps        []RouteStep `json:"steps"`
}

// PendingStep returns the single step with no end date, or nil when the
// route is completed.
func (r *Route) PendingStep() *RouteStep {
	for i := range r.Steps {
		if !r.Steps[i].Ended() {
			return &r.Steps[i]
		}
	}

	return nil
}

// Completed reports whether every step of the route has ended.
func (r *Route) Completed() bool {
	return r.PendingStep() == nil
}
