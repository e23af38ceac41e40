// Package web provides the HTTP resource layer over the routing engine.
// It is thin plumbing: parsing, the acting-user header and error
// mapping; all behavior lives in the engine and the services.
package web

import (
	"github.com/gofiber/fiber/v3"

	"github.com/docdeck/docdeck/pkg/auth"
	"github.com/docdeck/docdeck/pkg/models"
	"github.com/docdeck/docdeck/pkg/routing"
	"github.com/docdeck/docdeck/pkg/services"
)

// UserHeader carries the acting user id. Token and cookie transport are
// handled by the deployment's gateway, outside this module.
const UserHeader = "X-User-ID"

type APIHandlers struct {
	engine    *routing.Engine
	models    *routing.ModelService
	documents *services.Documents
	auth      *auth.Registry
}

func NewAPIHandlers(
	engine *routing.Engine,
	modelService *routing.ModelService,
	documents *services.Documents,
	authRegistry *auth.Registry,
) *APIHandlers {
	return &APIHandlers{
		engine:    engine,
		models:    modelService,
		documents: documents,
		auth:      authRegistry,
	}
}

func actingUser(c fiber.Ctx) string {
	return c.Get(UserHeader)
}

// stepSummary is the step shape of the route summary contract.
type stepSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Target string `json:"target"`
	State  string `json:"state"`
}

func summarizeRoute(route *models.Route) fiber.Map {
	steps := make([]stepSummary, len(route.Steps))
	pending := route.PendingStep()

	for i := range route.Steps {
		step := &route.Steps[i]
		state := "WAITING"

		switch {
		case step.Ended():
			state = string(*step.Outcome)
		case pending != nil && pending.ID == step.ID:
			state = "PENDING"
		}

		steps[i] = stepSummary{
			ID:     step.ID,
			Name:   step.Name,
			Type:   string(step.Type),
			Target: string(step.TargetType) + ":" + step.TargetID,
			State:  state,
		}
	}

	return fiber.Map{
		"id":             route.ID,
		"document_id":    route.DocumentID,
		"route_model_id": route.RouteModelID,
		"completed":      route.Completed(),
		"steps":          steps,
	}
}

// Route models

func (h *APIHandlers) CreateRouteModel(c fiber.Ctx) error {
	var model models.RouteModel
	if err := c.Bind().JSON(&model); err != nil {
		return badRequest(c, "invalid route model payload: "+err.Error())
	}

	created, err := h.models.Create(c.Context(), &model)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetRouteModels(c fiber.Ctx) error {
	list, err := h.models.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"route_models": list})
}

func (h *APIHandlers) GetRouteModel(c fiber.Ctx) error {
	model, err := h.models.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(model)
}

func (h *APIHandlers) UpdateRouteModel(c fiber.Ctx) error {
	var model models.RouteModel
	if err := c.Bind().JSON(&model); err != nil {
		return badRequest(c, "invalid route model payload: "+err.Error())
	}

	updated, err := h.models.Update(c.Context(), c.Params("id"), &model)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteRouteModel(c fiber.Ctx) error {
	if err := h.models.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Routes

type startRouteRequest struct {
	DocumentID   string `json:"document_id"`
	RouteModelID string `json:"route_model_id"`
}

func (h *APIHandlers) StartRoute(c fiber.Ctx) error {
	var req startRouteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid start route payload: "+err.Error())
	}

	if req.DocumentID == "" || req.RouteModelID == "" {
		return badRequest(c, "document_id and route_model_id are required")
	}

	route, err := h.engine.StartRoute(c.Context(), req.DocumentID, req.RouteModelID, actingUser(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(summarizeRoute(route))
}

func (h *APIHandlers) GetRoute(c fiber.Ctx) error {
	route, err := h.engine.GetRoute(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(summarizeRoute(route))
}

type transitionRequest struct {
	Outcome string `json:"outcome"`
	Comment string `json:"comment"`
}

func (h *APIHandlers) TransitionStep(c fiber.Ctx) error {
	var req transitionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid transition payload: "+err.Error())
	}

	step, err := h.engine.Transition(
		c.Context(), c.Params("id"), models.Outcome(req.Outcome), actingUser(c), req.Comment)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(step)
}

func (h *APIHandlers) GetActiveStep(c fiber.Ctx) error {
	step, err := h.engine.ActiveStep(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	if step == nil {
		return notFound(c, "document has no active route step")
	}

	return c.JSON(step)
}

// Documents and tags

type createDocumentRequest struct {
	Name string `json:"name"`
}

func (h *APIHandlers) CreateDocument(c fiber.Ctx) error {
	var req createDocumentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid document payload: "+err.Error())
	}

	if req.Name == "" {
		return badRequest(c, "name is required")
	}

	doc, err := h.documents.Create(c.Context(), req.Name, actingUser(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(doc)
}

func (h *APIHandlers) GetDocument(c fiber.Ctx) error {
	doc, err := h.documents.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(doc)
}

func (h *APIHandlers) DeleteDocument(c fiber.Ctx) error {
	if err := h.documents.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type attachFileRequest struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
}

func (h *APIHandlers) AttachFile(c fiber.Ctx) error {
	var req attachFileRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid file payload: "+err.Error())
	}

	if req.Name == "" {
		return badRequest(c, "name is required")
	}

	file, err := h.documents.AttachFile(c.Context(), c.Params("id"), req.Name, req.ContentType)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(file)
}

type createTagRequest struct {
	Name string `json:"name"`
}

func (h *APIHandlers) CreateTag(c fiber.Ctx) error {
	var req createTagRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid tag payload: "+err.Error())
	}

	if req.Name == "" {
		return badRequest(c, "name is required")
	}

	tag, err := h.documents.CreateTag(c.Context(), req.Name)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(tag)
}

func (h *APIHandlers) GetTags(c fiber.Ctx) error {
	tags, err := h.documents.ListTags(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"tags": tags})
}

// Login

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *APIHandlers) Login(c fiber.Ctx) error {
	var req loginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid login payload: "+err.Error())
	}

	user, err := h.auth.Authenticate(c.Context(), req.Username, req.Password)
	if err != nil {
		return unauthorized(c, "invalid credentials")
	}

	return c.JSON(fiber.Map{"user_id": user.ID, "username": user.Username})
}
