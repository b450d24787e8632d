package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventInvoiceCreated = "invoice.created"
	EventInvoicePaid    = "invoice.paid"
)

// InvoiceEvent is published after an invoice lifecycle change has committed
type InvoiceEvent struct {
	Type       string          `json:"type"`
	InvoiceID  uuid.UUID       `json:"invoice_id"`
	Reference  string          `json:"reference"`
	Status     string          `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	ActorID    uuid.UUID       `json:"actor_id"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewInvoiceEvent snapshots the invoice for an event of the given type
func NewInvoiceEvent(eventType string, invoice *Invoice, actorID uuid.UUID, at time.Time) *InvoiceEvent {
	return &InvoiceEvent{
		Type:       eventType,
		InvoiceID:  invoice.ID,
		Reference:  invoice.Reference,
		Status:     invoice.Status,
		Amount:     invoice.TotalAmount,
		ActorID:    actorID,
		OccurredAt: at,
	}
}
