package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice statuses. The only legal transition is PENDING -> PAID.
const (
	InvoiceStatusPending = "PENDING"
	InvoiceStatusPaid    = "PAID"
)

// MaxInvoiceTotal caps a total at 10 digits; invoices.total_amount is
// NUMERIC(12,2), so any accepted total fits the column.
var MaxInvoiceTotal = decimal.RequireFromString("99999999.99")

type Invoice struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Reference     string          `json:"reference" db:"reference"`
	CustomerName  string          `json:"customer_name" db:"customer_name"`
	CustomerEmail *string         `json:"customer_email" db:"customer_email"`
	CustomerPhone *string         `json:"customer_phone" db:"customer_phone"`
	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status        string          `json:"status" db:"status"`
	CreatedBy     uuid.UUID       `json:"created_by" db:"created_by"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
	Items         []InvoiceItem   `json:"items" db:"-"`
}

// IsPending reports whether the invoice can still be paid
func (i *Invoice) IsPending() bool {
	return i.Status == InvoiceStatusPending
}

// ItemsTotal sums the item subtotals with exact decimal arithmetic
func ItemsTotal(items []InvoiceItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total.Round(2)
}

// InvoiceFilter narrows an invoice listing
type InvoiceFilter struct {
	Status *string `json:"status,omitempty"`
	Limit  int     `json:"limit,omitempty"`
	Offset int     `json:"offset,omitempty"`
}

// InvoicePage is one page of a scoped invoice listing
type InvoicePage struct {
	Invoices []*Invoice `json:"results"`
	Count    int        `json:"count"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

// CreateInvoiceInput carries the caller-settable fields of a new invoice.
// TotalAmount is intentionally absent: it is always derived from Items.
type CreateInvoiceInput struct {
	Reference     string             `json:"reference" validate:"required,max=100"`
	CustomerName  string             `json:"customer_name" validate:"required,max=200"`
	CustomerEmail *string            `json:"customer_email" validate:"omitempty,email,max=254"`
	CustomerPhone *string            `json:"customer_phone" validate:"omitempty,max=50"`
	Items         []InvoiceItemInput `json:"items" validate:"dive"`
}

// InvoiceUpdate is a partial update request. Only Status may ever be applied;
// every other non-nil field is reported as immutable.
type InvoiceUpdate struct {
	Status        *string             `json:"status,omitempty"`
	Reference     *string             `json:"reference,omitempty"`
	CustomerName  *string             `json:"customer_name,omitempty"`
	CustomerEmail *string             `json:"customer_email,omitempty"`
	CustomerPhone *string             `json:"customer_phone,omitempty"`
	Items         *[]InvoiceItemInput `json:"items,omitempty"`
	TotalAmount   *decimal.Decimal    `json:"total_amount,omitempty"`
	CreatedBy     *uuid.UUID          `json:"created_by,omitempty"`

	// OtherFields names any further keys present in the request body
	OtherFields []string `json:"-"`
}

// ImmutableFields lists the json names of every field the update tries to change
// other than status, in a stable order.
func (u *InvoiceUpdate) ImmutableFields() []string {
	var fields []string
	if u.CreatedBy != nil {
		fields = append(fields, "created_by")
	}
	if u.CustomerEmail != nil {
		fields = append(fields, "customer_email")
	}
	if u.CustomerName != nil {
		fields = append(fields, "customer_name")
	}
	if u.CustomerPhone != nil {
		fields = append(fields, "customer_phone")
	}
	if u.Items != nil {
		fields = append(fields, "items")
	}
	if u.Reference != nil {
		fields = append(fields, "reference")
	}
	if u.TotalAmount != nil {
		fields = append(fields, "total_amount")
	}
	for _, f := range u.OtherFields {
		if f != "status" && !slices.Contains(fields, f) {
			fields = append(fields, f)
		}
	}
	slices.Sort(fields)
	return fields
}
