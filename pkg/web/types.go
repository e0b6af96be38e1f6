// Package web provides the HTTP surface for workflow management and inbound
// webhooks.
package web

import "github.com/atelierhq/pulse/pkg/models"

// CreateWorkflowRequest is the request body for creating a workflow.
type CreateWorkflowRequest struct {
	Name        string              `json:"name"        validate:"required,min=3"`
	Description string              `json:"description"`
	Trigger     models.TriggerItem  `json:"trigger"     validate:"required"`
	Actions     []models.ActionItem `json:"actions"     validate:"required,min=1"`
}

// UpdateWorkflowRequest is the request body for replacing a workflow's
// definition. Omitted fields keep their current value.
type UpdateWorkflowRequest struct {
	Name        *string             `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string             `json:"description,omitempty"`
	Trigger     *models.TriggerItem `json:"trigger,omitempty"`
	Actions     []models.ActionItem `json:"actions,omitempty"`
}

// PaymentWebhookRequest is the payload the payment gateway posts when an
// invoice changes state. Only "paid" produces a domain event; other statuses
// are acknowledged and dropped.
type PaymentWebhookRequest struct {
	InvoiceID   string `json:"invoice_id"   validate:"required"`
	ClientID    string `json:"client_id"    validate:"required"`
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status"       validate:"required"`
}
