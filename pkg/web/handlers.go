// Package web provides HTTP handlers and REST API endpoints for leads,
// clients, activities and workflow definitions.
package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// Scanner runs the inactivity scan on demand.
type Scanner interface {
	ScanAndFire(ctx context.Context) (int, error)
}

type APIHandlers struct {
	leadService     *services.Lead
	clientService   *services.Client
	activityService *services.Activity
	workflowService *services.Workflow
	scanner         Scanner
	validator       *validator.Validate
}

func NewAPIHandlers(
	leadService *services.Lead,
	clientService *services.Client,
	activityService *services.Activity,
	workflowService *services.Workflow,
	scanner Scanner,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		leadService:     leadService,
		clientService:   clientService,
		activityService: activityService,
		workflowService: workflowService,
		scanner:         scanner,
		validator:       validator,
	}
}

func parseID(c fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Leadflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Leadflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetLeads(c fiber.Ctx) error {
	filter := persistence.LeadFilter{
		Status: c.Query("status"),
		Source: c.Query("source"),
		Search: c.Query("search"),
	}

	leads, err := h.leadService.List(c.Context(), filter)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(leads)
}

func (h *APIHandlers) GetLead(c fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Lead ID must be a positive integer")
	}

	lead, err := h.leadService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(lead)
}

func (h *APIHandlers) CreateLead(c fiber.Ctx) error {
	var req LeadRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	lead, err := h.leadService.Create(c.Context(), req.input())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(lead)
}

func (h *APIHandlers) UpdateLead(c fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Lead ID must be a positive integer")
	}

	var req LeadRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	lead, err := h.leadService.Update(c.Context(), id, req.input())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(lead)
}

func (h *APIHandlers) DeleteLead(c fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Lead ID must be a positive integer")
	}

	err := h.leadService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ConvertLead(c fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Lead ID must be a positive integer")
	}

	client, err := h.leadService.Convert(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(client)
}

func (h *APIHandlers) GetClients(c fiber.Ctx) error {
	clients, err := h.clientService.List(c.Context(), persistence.ClientFilter{Search: c.Query("search")})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(clients)
}

func (h *APIHandlers) GetClient(c fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Client ID must be a positive integer")
	}

	client, err := h.clientService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(client)
}

func (h *APIHandlers) CreateClient(c fiber.Ctx) error {
	var req ClientRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	client, err := h.clientService.Create(c.Context(), req.input())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(client)
}

func (h *APIHandlers) UpdateClient(c fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Client ID must be a positive integer")
	}

	var req ClientRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	client, err := h.clientService.Update(c.Context(), id, req.input())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(client)
}

func (h *APIHandlers) DeleteClient(c fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Client ID must be a positive integer")
	}

	err := h.clientService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetActivities(c fiber.Ctx) error {
	filter := persistence.ActivityFilter{
		ParentType: models.ParentType(c.Query("parent_type")),
		Type:       c.Query("type"),
	}

	if filter.ParentType != "" && !filter.ParentType.Valid() {
		return badRequest(c, "parent_type must be lead or client")
	}

	if raw := c.Query("parent_id"); raw != "" {
		parentID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return badRequest(c, "Invalid query parameters: "+err.Error())
		}

		filter.ParentID = &parentID
	}

	activities, err := h.activityService.List(c.Context(), filter)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(activities)
}

func (h *APIHandlers) CreateActivity(c fiber.Ctx) error {
	var req CreateActivityRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	activity, err := h.activityService.Create(c.Context(), req.input())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(activity)
}

func (h *APIHandlers) DeleteActivity(c fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "Activity ID must be a positive integer")
	}

	err := h.activityService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	filter := persistence.WorkflowFilter{
		TriggerEvent: models.TriggerEvent(c.Query("trigger_event")),
	}

	if raw := c.Query("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "Invalid query parameters: "+err.Error())
		}

		filter.IsActive = &active
	}

	workflows, err := h.workflowService.List(c.Context(), filter)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var document map[string]any
	if err := c.Bind().JSON(&document); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	workflow, err := h.workflowService.Create(c.Context(), document)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var document map[string]any
	if err := c.Bind().JSON(&document); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	workflow, err := h.workflowService.Update(c.Context(), id, document)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	err := h.workflowService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ScanInactive runs the inactivity scan once and reports how many leads it
// fired for.
func (h *APIHandlers) ScanInactive(c fiber.Ctx) error {
	fired, err := h.scanner.ScanAndFire(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(ScanResponse{Fired: fired})
}
