package web

import (
	"errors"

	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// notFoundKinds maps repository sentinels to the problem type they render as.
var notFoundKinds = []struct {
	err    error
	kind   string
	detail string
}{
	{persistence.ErrLeadNotFound, "lead_not_found", "lead not found"},
	{persistence.ErrClientNotFound, "client_not_found", "client not found"},
	{persistence.ErrActivityNotFound, "activity_not_found", "activity not found"},
	{persistence.ErrWorkflowNotFound, "workflow_not_found", "workflow not found"},
}

func problem(c fiber.Ctx, status int, kind string) *problems.Problem {
	return problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(kind)
}

func badRequest(c fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusBadRequest).
		JSON(problem(c, fiber.StatusBadRequest, "validation_error").WithDetail(detail))
}

func notFound(c fiber.Ctx, kind, detail string) error {
	return c.Status(fiber.StatusNotFound).
		JSON(problem(c, fiber.StatusNotFound, kind).WithDetail(detail))
}

func internalError(c fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).
		JSON(problem(c, fiber.StatusInternalServerError, "internal_error").WithError(err))
}

// handleServiceError renders service errors as problem documents: validation
// failures as 400, missing records as 404 and anything else as 500.
func handleServiceError(c fiber.Ctx, err error) error {
	if services.IsValidationError(err) {
		return badRequest(c, err.Error())
	}

	for _, nf := range notFoundKinds {
		if errors.Is(err, nf.err) {
			return notFound(c, nf.kind, nf.detail)
		}
	}

	return internalError(c, err)
}
