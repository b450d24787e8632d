package models

import (
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	InvoiceID uuid.UUID       `json:"invoice_id" db:"invoice_id"`
	Name      string          `json:"name" db:"name"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
}

// Subtotal is quantity x price; it is derived and never stored
func (i InvoiceItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// MaxItemQuantity is the largest value invoice_items.quantity (INTEGER) holds
const MaxItemQuantity = math.MaxInt32

type InvoiceItemInput struct {
	Name     string          `json:"name" validate:"required,max=200"`
	Quantity int             `json:"quantity" validate:"min=1,max=2147483647"`
	Price    decimal.Decimal `json:"price"`
}
