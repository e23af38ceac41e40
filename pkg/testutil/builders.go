// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/docdeck/docdeck/pkg/models"
)

// CreateTestModel creates a route model with one APPROVE step targeting
// the given user. Overrides can reshape the steps entirely.
func CreateTestModel(overrides ...func(*models.RouteModel)) *models.RouteModel {
	model := &models.RouteModel{
		ID:   uuid.New().String(),
		Name: "Test Model",
		Steps: []models.StepTemplate{
			{
				Name:       "Approval",
				Type:       models.StepTypeApprove,
				TargetType: models.TargetTypeUser,
				TargetID:   "approver-1",
			},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	for _, override := range overrides {
		override(model)
	}

	return model
}

// WithSteps replaces the model's step templates.
func WithSteps(steps ...models.StepTemplate) func(*models.RouteModel) {
	return func(m *models.RouteModel) {
		m.Steps = steps
	}
}

// ApproveStep builds an APPROVE step template targeting a user.
func ApproveStep(name, targetUserID string) models.StepTemplate {
	return models.StepTemplate{
		Name:       name,
		Type:       models.StepTypeApprove,
		TargetType: models.TargetTypeUser,
		TargetID:   targetUserID,
	}
}

// ValidateStep builds a VALIDATE step template targeting a group.
func ValidateStep(name, targetGroupID string) models.StepTemplate {
	return models.StepTemplate{
		Name:       name,
		Type:       models.StepTypeValidate,
		TargetType: models.TargetTypeGroup,
		TargetID:   targetGroupID,
	}
}

// WithActions attaches action specs to an outcome of a step template.
func WithActions(step models.StepTemplate, outcome models.Outcome, specs ...models.ActionSpec) models.StepTemplate {
	if step.Actions == nil {
		step.Actions = make(map[models.Outcome][]models.ActionSpec)
	}

	step.Actions[outcome] = specs

	return step
}

// CreateTestDocument creates a document with default values.
func CreateTestDocument(overrides ...func(*models.Document)) *models.Document {
	doc := &models.Document{
		ID:        uuid.New().String(),
		Name:      "Test Document",
		CreatorID: "creator-1",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	for _, override := range overrides {
		override(doc)
	}

	return doc
}

// CreateTestGroup creates a group with the given direct user members.
func CreateTestGroup(id string, userIDs ...string) *models.Group {
	return &models.Group{
		ID:            id,
		Name:          "Group " + id,
		MemberUserIDs: userIDs,
		CreatedAt:     time.Now(),
	}
}
