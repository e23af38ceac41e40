package routing

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdeck/docdeck/pkg/actions/addtag"
	"github.com/docdeck/docdeck/pkg/models"
	"github.com/docdeck/docdeck/pkg/persistence/memory"
	"github.com/docdeck/docdeck/pkg/registry"
	"github.com/docdeck/docdeck/pkg/testutil"
)

func newModelServiceFixture(t *testing.T) (*ModelService, *memory.Persistence) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := memory.NewPersistence()
	reg := registry.NewBuiltinRegistry(logger)

	return NewModelService(p.RouteModelRepository(), p.RouteRepository(), reg), p
}

func TestModelService_Create(t *testing.T) {
	service, _ := newModelServiceFixture(t)

	model := testutil.CreateTestModel()
	model.ID = ""

	created, err := service.Create(t.Context(), model)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestModelService_ValidateModel(t *testing.T) {
	service, _ := newModelServiceFixture(t)

	t.Run("no steps", func(t *testing.T) {
		model := testutil.CreateTestModel(testutil.WithSteps())

		err := service.ValidateModel(model)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("missing target", func(t *testing.T) {
		step := testutil.ApproveStep("Approval", "")
		model := testutil.CreateTestModel(testutil.WithSteps(step))

		assert.True(t, IsValidationError(service.ValidateModel(model)))
	})

	t.Run("illegal outcome mapping", func(t *testing.T) {
		// APPROVED actions on a VALIDATE step are never reachable.
		step := testutil.WithActions(
			testutil.ValidateStep("Review", "group-1"),
			models.OutcomeApproved,
			models.ActionSpec{Kind: addtag.Kind, Params: map[string]any{"tag_id": "t"}},
		)
		model := testutil.CreateTestModel(testutil.WithSteps(step))

		assert.True(t, IsValidationError(service.ValidateModel(model)))
	})

	t.Run("unknown action kind", func(t *testing.T) {
		step := testutil.WithActions(
			testutil.ApproveStep("Approval", "approver-1"),
			models.OutcomeApproved,
			models.ActionSpec{Kind: "NO_SUCH_ACTION"},
		)
		model := testutil.CreateTestModel(testutil.WithSteps(step))

		assert.True(t, IsValidationError(service.ValidateModel(model)))
	})

	t.Run("action params rejected by schema", func(t *testing.T) {
		step := testutil.WithActions(
			testutil.ApproveStep("Approval", "approver-1"),
			models.OutcomeApproved,
			models.ActionSpec{Kind: addtag.Kind, Params: map[string]any{"wrong_key": "x"}},
		)
		model := testutil.CreateTestModel(testutil.WithSteps(step))

		assert.True(t, IsValidationError(service.ValidateModel(model)))
	})

	t.Run("valid model", func(t *testing.T) {
		step := testutil.WithActions(
			testutil.ApproveStep("Approval", "approver-1"),
			models.OutcomeApproved,
			models.ActionSpec{Kind: addtag.Kind, Params: map[string]any{"tag_id": "tag-1"}},
		)
		model := testutil.CreateTestModel(testutil.WithSteps(step))

		assert.NoError(t, service.ValidateModel(model))
	})
}

func TestModelService_Update(t *testing.T) {
	service, _ := newModelServiceFixture(t)

	created, err := service.Create(t.Context(), testutil.CreateTestModel())
	require.NoError(t, err)

	replacement := testutil.CreateTestModel()
	replacement.Name = "Renamed"

	updated, err := service.Update(t.Context(), created.ID, replacement)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, created.ID, updated.ID)
}

func TestModelService_Update_FrozenOnceInstantiated(t *testing.T) {
	service, p := newModelServiceFixture(t)

	created, err := service.Create(t.Context(), testutil.CreateTestModel())
	require.NoError(t, err)

	route := &models.Route{
		ID:           "route-1",
		DocumentID:   "doc-1",
		RouteModelID: created.ID,
		Steps: []models.RouteStep{
			{ID: "step-1", RouteID: "route-1", Name: "Approval", Type: models.StepTypeApprove,
				TargetType: models.TargetTypeUser, TargetID: "approver-1"},
		},
	}
	require.NoError(t, p.RouteRepository().Save(t.Context(), route))

	_, err = service.Update(t.Context(), created.ID, testutil.CreateTestModel())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRouteModelInUse)
}

func TestModelService_Delete_BlockedByActiveRoutes(t *testing.T) {
	service, p := newModelServiceFixture(t)

	created, err := service.Create(t.Context(), testutil.CreateTestModel())
	require.NoError(t, err)

	route := &models.Route{
		ID:           "route-1",
		DocumentID:   "doc-1",
		RouteModelID: created.ID,
		Steps: []models.RouteStep{
			{ID: "step-1", RouteID: "route-1", Name: "Approval", Type: models.StepTypeApprove,
				TargetType: models.TargetTypeUser, TargetID: "approver-1"},
		},
	}
	require.NoError(t, p.RouteRepository().Save(t.Context(), route))

	err = service.Delete(t.Context(), created.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRouteModelInUse)
}

func TestModelService_Delete(t *testing.T) {
	service, _ := newModelServiceFixture(t)

	created, err := service.Create(t.Context(), testutil.CreateTestModel())
	require.NoError(t, err)

	require.NoError(t, service.Delete(t.Context(), created.ID))

	_, err = service.Get(t.Context(), created.ID)
	assert.True(t, IsNotFoundError(err))
}
