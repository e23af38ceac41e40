package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdeck/docdeck/pkg/acl"
	"github.com/docdeck/docdeck/pkg/auth"
	"github.com/docdeck/docdeck/pkg/eventbus"
	"github.com/docdeck/docdeck/pkg/models"
	"github.com/docdeck/docdeck/pkg/persistence/memory"
	"github.com/docdeck/docdeck/pkg/registry"
	"github.com/docdeck/docdeck/pkg/routing"
	"github.com/docdeck/docdeck/pkg/services"
	"github.com/docdeck/docdeck/pkg/web"
)

type testEnv struct {
	app         *fiber.App
	persistence *memory.Persistence
}

func setupTestApp(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := memory.NewPersistence()
	bus := eventbus.NewWatermillEventBus(logger)

	t.Cleanup(func() { _ = bus.Close() })

	reg := registry.NewBuiltinRegistry(logger)
	aclStore := acl.NewStore(p.AclRepository(), p.GroupRepository(), bus, logger)
	modelService := routing.NewModelService(p.RouteModelRepository(), p.RouteRepository(), reg)
	engine := routing.NewEngine(p, aclStore, reg, modelService, bus, logger)
	documents := services.NewDocuments(p, bus)

	authRegistry := auth.NewRegistry(logger)
	authRegistry.Register(auth.NewInternalAuthenticator(p.UserRepository()))

	routing.RegisterListeners(bus, engine, &routing.LogProcessor{Logger: logger}, logger)

	handlers := web.NewAPIHandlers(engine, modelService, documents, authRegistry)

	app := fiber.New()
	app.Post("/login", handlers.Login)

	m := app.Group("/route-models")
	m.Get("/", handlers.GetRouteModels)
	m.Post("/", handlers.CreateRouteModel)
	m.Get("/:id", handlers.GetRouteModel)
	m.Put("/:id", handlers.UpdateRouteModel)
	m.Delete("/:id", handlers.DeleteRouteModel)

	r := app.Group("/routes")
	r.Post("/", handlers.StartRoute)
	r.Get("/:id", handlers.GetRoute)

	app.Post("/route-steps/:id/transition", handlers.TransitionStep)

	d := app.Group("/documents")
	d.Post("/", handlers.CreateDocument)
	d.Get("/:id", handlers.GetDocument)
	d.Delete("/:id", handlers.DeleteDocument)
	d.Post("/:id/files", handlers.AttachFile)
	d.Get("/:id/active-step", handlers.GetActiveStep)

	tg := app.Group("/tags")
	tg.Get("/", handlers.GetTags)
	tg.Post("/", handlers.CreateTag)

	return &testEnv{app: app, persistence: p}
}

func (e *testEnv) request(t *testing.T, method, path, userID string, payload any) *http.Response {
	t.Helper()

	var body io.Reader

	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)

		body = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if userID != "" {
		req.Header.Set(web.UserHeader, userID)
	}

	resp, err := e.app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(body, out))
}

func (e *testEnv) createModel(t *testing.T, steps ...map[string]any) string {
	t.Helper()

	if len(steps) == 0 {
		steps = []map[string]any{
			{"name": "Approval", "type": "APPROVE", "target_type": "USER", "target_id": "approver-1"},
		}
	}

	resp := e.request(t, http.MethodPost, "/route-models", "", map[string]any{
		"name":  "Test Model",
		"steps": steps,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var model models.RouteModel

	decodeBody(t, resp, &model)

	return model.ID
}

func (e *testEnv) createDocument(t *testing.T) string {
	t.Helper()

	resp := e.request(t, http.MethodPost, "/documents", "creator-1", map[string]any{"name": "Contract"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var doc models.Document

	decodeBody(t, resp, &doc)

	return doc.ID
}

type routeSummary struct {
	ID        string `json:"id"`
	Completed bool   `json:"completed"`
	Steps     []struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		State string `json:"state"`
	} `json:"steps"`
}

func (e *testEnv) startRoute(t *testing.T, documentID, modelID string) routeSummary {
	t.Helper()

	resp := e.request(t, http.MethodPost, "/routes", "initiator-1", map[string]any{
		"document_id":    documentID,
		"route_model_id": modelID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var summary routeSummary

	decodeBody(t, resp, &summary)

	return summary
}

func TestCreateRouteModel_Invalid(t *testing.T) {
	env := setupTestApp(t)

	resp := env.request(t, http.MethodPost, "/route-models", "", map[string]any{
		"name":  "No steps",
		"steps": []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouteLifecycle(t *testing.T) {
	env := setupTestApp(t)

	modelID := env.createModel(t,
		map[string]any{"name": "Approval", "type": "APPROVE", "target_type": "USER", "target_id": "approver-1"},
		map[string]any{"name": "Review", "type": "VALIDATE", "target_type": "USER", "target_id": "reviewer-1"},
	)
	docID := env.createDocument(t)

	summary := env.startRoute(t, docID, modelID)
	require.Len(t, summary.Steps, 2)
	assert.Equal(t, "PENDING", summary.Steps[0].State)
	assert.Equal(t, "WAITING", summary.Steps[1].State)

	// Starting a second route on the same document conflicts.
	resp := env.request(t, http.MethodPost, "/routes", "initiator-1", map[string]any{
		"document_id":    docID,
		"route_model_id": modelID,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// A non-target cannot transition.
	resp = env.request(t, http.MethodPost, "/route-steps/"+summary.Steps[0].ID+"/transition", "intruder",
		map[string]any{"outcome": "APPROVED"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The assigned approver resolves the step.
	resp = env.request(t, http.MethodPost, "/route-steps/"+summary.Steps[0].ID+"/transition", "approver-1",
		map[string]any{"outcome": "APPROVED", "comment": "fine"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var step models.RouteStep

	decodeBody(t, resp, &step)
	require.NotNil(t, step.Outcome)
	assert.Equal(t, models.OutcomeApproved, *step.Outcome)

	// Re-resolving the same step conflicts.
	resp = env.request(t, http.MethodPost, "/route-steps/"+summary.Steps[0].ID+"/transition", "approver-1",
		map[string]any{"outcome": "APPROVED"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The active step moved on.
	resp = env.request(t, http.MethodGet, "/documents/"+docID+"/active-step", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var active models.RouteStep

	decodeBody(t, resp, &active)
	assert.Equal(t, "Review", active.Name)

	resp = env.request(t, http.MethodPost, "/route-steps/"+active.ID+"/transition", "reviewer-1",
		map[string]any{"outcome": "VALIDATED"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Route completed; no active step left.
	resp = env.request(t, http.MethodGet, "/documents/"+docID+"/active-step", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/routes/"+summary.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var final routeSummary

	decodeBody(t, resp, &final)
	assert.True(t, final.Completed)
	assert.Equal(t, "APPROVED", final.Steps[0].State)
	assert.Equal(t, "VALIDATED", final.Steps[1].State)
}

func TestTransition_IllegalOutcome(t *testing.T) {
	env := setupTestApp(t)

	modelID := env.createModel(t)
	docID := env.createDocument(t)
	summary := env.startRoute(t, docID, modelID)

	resp := env.request(t, http.MethodPost, "/route-steps/"+summary.Steps[0].ID+"/transition", "approver-1",
		map[string]any{"outcome": "VALIDATED"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateRouteModel_FrozenOnceRouted(t *testing.T) {
	env := setupTestApp(t)

	modelID := env.createModel(t)
	docID := env.createDocument(t)
	env.startRoute(t, docID, modelID)

	resp := env.request(t, http.MethodPut, "/route-models/"+modelID, "", map[string]any{
		"name": "Changed",
		"steps": []map[string]any{
			{"name": "Approval", "type": "APPROVE", "target_type": "USER", "target_id": "approver-2"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteDocument_TerminatesRoute(t *testing.T) {
	env := setupTestApp(t)

	modelID := env.createModel(t)
	docID := env.createDocument(t)
	env.startRoute(t, docID, modelID)

	resp := env.request(t, http.MethodDelete, "/documents/"+docID, "creator-1", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/documents/"+docID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAttachFile(t *testing.T) {
	env := setupTestApp(t)

	docID := env.createDocument(t)

	resp := env.request(t, http.MethodPost, "/documents/"+docID+"/files", "creator-1", map[string]any{
		"name":         "contract.pdf",
		"content_type": "application/pdf",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var file models.File

	decodeBody(t, resp, &file)
	assert.Equal(t, docID, file.DocumentID)
	assert.Equal(t, "contract.pdf", file.Name)

	resp = env.request(t, http.MethodPost, "/documents/missing/files", "creator-1", map[string]any{
		"name": "contract.pdf",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTags(t *testing.T) {
	env := setupTestApp(t)

	resp := env.request(t, http.MethodPost, "/tags", "", map[string]any{"name": "urgent"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/tags", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Tags []models.Tag `json:"tags"`
	}

	decodeBody(t, resp, &list)
	require.Len(t, list.Tags, 1)
	assert.Equal(t, "urgent", list.Tags[0].Name)
}

func TestLogin(t *testing.T) {
	env := setupTestApp(t)

	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)

	require.NoError(t, env.persistence.UserRepository().Save(t.Context(), &models.User{
		ID: "user-1", Username: "alice", PasswordHash: hash,
	}))

	resp := env.request(t, http.MethodPost, "/login", "", map[string]any{
		"username": "alice", "password": "s3cret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]string

	decodeBody(t, resp, &result)
	assert.Equal(t, "user-1", result["user_id"])

	resp = env.request(t, http.MethodPost, "/login", "", map[string]any{
		"username": "alice", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
