package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/docdeck/docdeck/pkg/auth"
	"github.com/docdeck/docdeck/pkg/persistence"
	"github.com/docdeck/docdeck/pkg/routing"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func unauthorized(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(401).
		WithInstance(c.Path()).
		WithType("unauthorized").
		WithDetail(detail)

	return c.Status(fiber.StatusUnauthorized).JSON(problem)
}

func conflict(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

// handleServiceError maps the engine's error taxonomy onto the REST
// contract.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, routing.ErrDocumentAlreadyRouted):
		return conflict(c, "document_already_routed", "document already has an active route")

	case errors.Is(err, routing.ErrRouteStepAlreadyEnded):
		return conflict(c, "route_step_already_ended", "route step already ended")

	case routing.IsForbiddenError(err):
		problem := problems.NewStatusProblem(403).
			WithInstance(c.Path()).
			WithType("forbidden").
			WithDetail(err.Error())

		return c.Status(fiber.StatusForbidden).JSON(problem)

	case routing.IsNotFoundError(err) || persistence.IsNotFound(err):
		return notFound(c, err.Error())

	case routing.IsValidationError(err):
		return badRequest(c, err.Error())

	case errors.Is(err, auth.ErrInvalidCredentials):
		return unauthorized(c, "invalid credentials")

	default:
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}
}
