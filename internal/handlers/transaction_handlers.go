package handlers

import (
	"net/http"

	"invoicedesk/internal/common"
	"invoicedesk/internal/models"
	"invoicedesk/internal/services"

	"github.com/labstack/echo/v4"
)

// TransactionHandlers exposes the ledger read-only
type TransactionHandlers struct {
	transactionService services.TransactionService
}

func NewTransactionHandlers(transactionService services.TransactionService) *TransactionHandlers {
	return &TransactionHandlers{transactionService: transactionService}
}

// ListTransactions handles GET /transactions
func (h *TransactionHandlers) ListTransactions(c echo.Context) error {
	ctx := c.Request().Context()

	limit, offset := common.ParsePagination(c)
	filter := models.TransactionFilter{Limit: limit, Offset: offset}
	if raw := c.QueryParam("invoice_id"); raw != "" {
		id, err := common.ValidateUUID(raw, "invoice_id")
		if err != nil {
			return common.SendValidationError(c, "invoice_id", "Enter a valid UUID.")
		}
		filter.InvoiceID = &id
	}
	if txnType := c.QueryParam("type"); txnType != "" {
		filter.Type = &txnType
	}

	page, err := h.transactionService.ListTransactions(ctx, common.GetActorFromContext(ctx), filter)
	if err != nil {
		return common.SendAppError(c, err)
	}

	results := make([]transactionResponse, 0, len(page.Transactions))
	for _, t := range page.Transactions {
		results = append(results, newTransactionResponse(t))
	}
	return c.JSON(http.StatusOK, pageResponse[transactionResponse]{
		Count:   page.Count,
		Limit:   page.Limit,
		Offset:  page.Offset,
		Results: results,
	})
}

// GetTransaction handles GET /transactions/:id
func (h *TransactionHandlers) GetTransaction(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendNotFoundError(c, "Transaction")
	}

	txn, err := h.transactionService.GetTransaction(ctx, common.GetActorFromContext(ctx), id)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusOK, newTransactionResponse(txn))
}
