package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atelierhq/pulse/pkg/eventbus"
	"github.com/atelierhq/pulse/pkg/events"
	"github.com/atelierhq/pulse/pkg/models"
	"github.com/atelierhq/pulse/pkg/persistence"
	"github.com/atelierhq/pulse/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	workflowService *services.Workflow
	publisher       eventbus.EventPublisher
	validator       *validator.Validate
	logger          *slog.Logger
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	publisher eventbus.EventPublisher,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		publisher:       publisher,
		validator:       validator,
		logger:          logger.With("module", "web"),
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workspaceID := c.Params("workspaceId")
	if workspaceID == "" {
		return badRequest(c, "Workspace ID is required")
	}

	workflows, err := h.workflowService.List(c.Context(), workspaceID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows": workflows,
		"count":     len(workflows),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workspaceID := c.Params("workspaceId")
	id := c.Params("id")

	if workspaceID == "" || id == "" {
		return badRequest(c, "Workspace ID and workflow ID are required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), workspaceID, id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	workspaceID := c.Params("workspaceId")
	if workspaceID == "" {
		return badRequest(c, "Workspace ID is required")
	}

	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := &models.Workflow{
		WorkspaceID: workspaceID,
		Name:        req.Name,
		Description: req.Description,
		Trigger:     req.Trigger,
		Actions:     req.Actions,
	}

	created, err := h.workflowService.Create(c.Context(), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	workspaceID := c.Params("workspaceId")
	id := c.Params("id")

	if workspaceID == "" || id == "" {
		return badRequest(c, "Workspace ID and workflow ID are required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.workflowService.FetchByID(c.Context(), workspaceID, id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.Trigger != nil {
		existing.Trigger = *req.Trigger
	}

	if req.Actions != nil {
		existing.Actions = req.Actions
	}

	updated, err := h.workflowService.Update(c.Context(), workspaceID, id, existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	workspaceID := c.Params("workspaceId")
	id := c.Params("id")

	if workspaceID == "" || id == "" {
		return badRequest(c, "Workspace ID and workflow ID are required")
	}

	err := h.workflowService.Delete(c.Context(), workspaceID, id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// SetWorkflowEnabled handles the enable and disable endpoints; the last path
// segment says which one.
func (h *APIHandlers) SetWorkflowEnabled(c fiber.Ctx) error {
	workspaceID := c.Params("workspaceId")
	id := c.Params("id")

	if workspaceID == "" || id == "" {
		return badRequest(c, "Workspace ID and workflow ID are required")
	}

	enabled := strings.HasSuffix(c.Path(), "/enable")

	workflow, err := h.workflowService.SetEnabled(c.Context(), workspaceID, id, enabled)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) GetWorkflowExecutions(c fiber.Ctx) error {
	workspaceID := c.Params("workspaceId")
	id := c.Params("id")

	if workspaceID == "" || id == "" {
		return badRequest(c, "Workspace ID and workflow ID are required")
	}

	limit := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			return badRequest(c, "Invalid limit parameter")
		}

		limit = parsed
	}

	records, err := h.workflowService.ListExecutions(c.Context(), workspaceID, id, limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions": records,
		"count":      len(records),
	})
}

// PaymentWebhook accepts invoice status notifications from the payment
// gateway. Redeliveries are fine: the dedup key derives from the invoice, so
// downstream processing collapses them onto one logical event.
func (h *APIHandlers) PaymentWebhook(c fiber.Ctx) error {
	workspaceID := c.Params("workspaceId")
	if workspaceID == "" {
		return badRequest(c, "Workspace ID is required")
	}

	var req PaymentWebhookRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if req.Status != "paid" {
		h.logger.Debug("Ignoring payment webhook with non-paid status",
			"invoice_id", req.InvoiceID,
			"status", req.Status)

		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"accepted": false})
	}

	event := events.NewInvoicePaid(workspaceID, req.InvoiceID, req.ClientID, req.AmountCents)

	err := h.publisher.Publish(c.Context(), event)
	if err != nil {
		h.logger.Error("Failed to publish invoice paid event",
			"invoice_id", req.InvoiceID,
			"error", err)

		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"accepted":  true,
		"dedup_key": event.DedupKey,
	})
}
