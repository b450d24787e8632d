package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger transaction types
const (
	TransactionTypeSale    = "Sale"
	TransactionTypePayment = "Payment"
)

// Transaction is an append-only ledger entry. It is never updated or deleted.
type Transaction struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	InvoiceID       uuid.UUID       `json:"invoice_id" db:"invoice_id"`
	TransactionType string          `json:"transaction_type" db:"transaction_type"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	Date            time.Time       `json:"date" db:"date"`
	Invoice         *InvoiceSummary `json:"invoice,omitempty" db:"-"`
}

// InvoiceSummary is the slice of the owning invoice returned with a transaction
type InvoiceSummary struct {
	ID           uuid.UUID       `json:"id"`
	Reference    string          `json:"reference"`
	CustomerName string          `json:"customer_name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       string          `json:"status"`
	CreatedBy    uuid.UUID       `json:"created_by"`
}

// TransactionFilter narrows a ledger listing
type TransactionFilter struct {
	InvoiceID *uuid.UUID `json:"invoice_id,omitempty"`
	Type      *string    `json:"type,omitempty"`
	Limit     int        `json:"limit,omitempty"`
	Offset    int        `json:"offset,omitempty"`
}

type TransactionPage struct {
	Transactions []*Transaction `json:"results"`
	Count        int            `json:"count"`
	Limit        int            `json:"limit"`
	Offset       int            `json:"offset"`
}

// LedgerAnomaly describes an invoice whose ledger breaks the one-Sale /
// one-Payment-iff-PAID rule
type LedgerAnomaly struct {
	InvoiceID    uuid.UUID       `json:"invoice_id"`
	Reference    string          `json:"reference"`
	Status       string          `json:"status"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	SaleCount    int             `json:"sale_count"`
	PaymentCount int             `json:"payment_count"`
	SaleAmount   decimal.Decimal `json:"sale_amount"`
}

// Problems explains what is wrong with the anomalous ledger
func (a LedgerAnomaly) Problems() []string {
	var problems []string
	if a.SaleCount != 1 {
		problems = append(problems, "expected exactly one Sale transaction")
	} else if !a.SaleAmount.Equal(a.TotalAmount) {
		problems = append(problems, "Sale amount differs from invoice total")
	}
	wantPayments := 0
	if a.Status == InvoiceStatusPaid {
		wantPayments = 1
	}
	if a.PaymentCount != wantPayments {
		problems = append(problems, "Payment transactions do not match invoice status")
	}
	return problems
}
