package handlers

import (
	"time"

	"invoicedesk/internal/models"

	"github.com/google/uuid"
)

// Money is rendered as a fixed two-decimal string so clients never see a
// binary float.

type invoiceItemResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Quantity int       `json:"quantity"`
	Price    string    `json:"price"`
	Subtotal string    `json:"subtotal"`
}

type invoiceResponse struct {
	ID            uuid.UUID             `json:"id"`
	Reference     string                `json:"reference"`
	CustomerName  string                `json:"customer_name"`
	CustomerEmail *string               `json:"customer_email"`
	CustomerPhone *string               `json:"customer_phone"`
	TotalAmount   string                `json:"total_amount"`
	Status        string                `json:"status"`
	CreatedBy     uuid.UUID             `json:"created_by"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Items         []invoiceItemResponse `json:"items"`
}

type invoiceSummaryResponse struct {
	ID           uuid.UUID `json:"id"`
	Reference    string    `json:"reference"`
	CustomerName string    `json:"customer_name"`
	TotalAmount  string    `json:"total_amount"`
	Status       string    `json:"status"`
	CreatedBy    uuid.UUID `json:"created_by"`
}

type transactionResponse struct {
	ID              uuid.UUID               `json:"id"`
	InvoiceID       uuid.UUID               `json:"invoice_id"`
	Invoice         *invoiceSummaryResponse `json:"invoice,omitempty"`
	TransactionType string                  `json:"transaction_type"`
	Amount          string                  `json:"amount"`
	Date            time.Time               `json:"date"`
}

type userResponse struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	IsStaff    bool      `json:"is_staff"`
	DateJoined time.Time `json:"date_joined"`
}

type tokenResponse struct {
	Access    string        `json:"access"`
	TokenType string        `json:"token_type"`
	ExpiresIn int           `json:"expires_in"`
	User      *userResponse `json:"user,omitempty"`
}

type pageResponse[T any] struct {
	Count   int `json:"count"`
	Limit   int `json:"limit"`
	Offset  int `json:"offset"`
	Results []T `json:"results"`
}

func newInvoiceResponse(inv *models.Invoice) invoiceResponse {
	items := make([]invoiceItemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, invoiceItemResponse{
			ID:       item.ID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price.StringFixed(2),
			Subtotal: item.Subtotal().StringFixed(2),
		})
	}
	return invoiceResponse{
		ID:            inv.ID,
		Reference:     inv.Reference,
		CustomerName:  inv.CustomerName,
		CustomerEmail: inv.CustomerEmail,
		CustomerPhone: inv.CustomerPhone,
		TotalAmount:   inv.TotalAmount.StringFixed(2),
		Status:        inv.Status,
		CreatedBy:     inv.CreatedBy,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
		Items:         items,
	}
}

func newTransactionResponse(t *models.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:              t.ID,
		InvoiceID:       t.InvoiceID,
		TransactionType: t.TransactionType,
		Amount:          t.Amount.StringFixed(2),
		Date:            t.Date,
	}
	if t.Invoice != nil {
		resp.Invoice = &invoiceSummaryResponse{
			ID:           t.Invoice.ID,
			Reference:    t.Invoice.Reference,
			CustomerName: t.Invoice.CustomerName,
			TotalAmount:  t.Invoice.TotalAmount.StringFixed(2),
			Status:       t.Invoice.Status,
			CreatedBy:    t.Invoice.CreatedBy,
		}
	}
	return resp
}

func newUserResponse(u *models.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		IsStaff:    u.IsStaff,
		DateJoined: u.DateJoined,
	}
}
