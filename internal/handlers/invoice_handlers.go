package handlers

import (
	"encoding/json"
	"net/http"

	"invoicedesk/internal/common"
	"invoicedesk/internal/models"
	"invoicedesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// InvoiceHandlers handles HTTP requests for invoices
type InvoiceHandlers struct {
	invoiceService  services.InvoiceService
	documentService services.DocumentService
}

// NewInvoiceHandlers creates a new invoice handlers instance
func NewInvoiceHandlers(invoiceService services.InvoiceService, documentService services.DocumentService) *InvoiceHandlers {
	return &InvoiceHandlers{
		invoiceService:  invoiceService,
		documentService: documentService,
	}
}

// CreateInvoice handles POST /invoices
func (h *InvoiceHandlers) CreateInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.CreateInvoiceInput
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	invoice, err := h.invoiceService.CreateInvoice(ctx, common.GetActorFromContext(ctx), &req)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusCreated, newInvoiceResponse(invoice))
}

// ListInvoices handles GET /invoices
func (h *InvoiceHandlers) ListInvoices(c echo.Context) error {
	ctx := c.Request().Context()

	limit, offset := common.ParsePagination(c)
	filter := models.InvoiceFilter{Limit: limit, Offset: offset}
	if status := c.QueryParam("status"); status != "" {
		filter.Status = &status
	}

	page, err := h.invoiceService.ListInvoices(ctx, common.GetActorFromContext(ctx), filter)
	if err != nil {
		return common.SendAppError(c, err)
	}

	results := make([]invoiceResponse, 0, len(page.Invoices))
	for _, inv := range page.Invoices {
		results = append(results, newInvoiceResponse(inv))
	}
	return c.JSON(http.StatusOK, pageResponse[invoiceResponse]{
		Count:   page.Count,
		Limit:   page.Limit,
		Offset:  page.Offset,
		Results: results,
	})
}

// GetInvoice handles GET /invoices/:id
func (h *InvoiceHandlers) GetInvoice(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := invoiceID(c)
	if !ok {
		return common.SendNotFoundError(c, "Invoice")
	}

	invoice, err := h.invoiceService.GetInvoice(ctx, common.GetActorFromContext(ctx), id)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusOK, newInvoiceResponse(invoice))
}

// UpdateInvoice handles PATCH and PUT /invoices/:id. Status is the only
// field that may change; every other key in the body is rejected.
func (h *InvoiceHandlers) UpdateInvoice(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := invoiceID(c)
	if !ok {
		return common.SendNotFoundError(c, "Invoice")
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	update := &models.InvoiceUpdate{}
	for key, raw := range body {
		if key != "status" {
			update.OtherFields = append(update.OtherFields, key)
			continue
		}
		var status string
		if err := json.Unmarshal(raw, &status); err != nil {
			return common.SendValidationError(c, "status", "Not a valid string.")
		}
		update.Status = &status
	}

	invoice, err := h.invoiceService.UpdateInvoice(ctx, common.GetActorFromContext(ctx), id, update)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusOK, newInvoiceResponse(invoice))
}

// PayInvoice handles PATCH /invoices/:id/pay
func (h *InvoiceHandlers) PayInvoice(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := invoiceID(c)
	if !ok {
		return common.SendNotFoundError(c, "Invoice")
	}

	invoice, err := h.invoiceService.MarkPaid(ctx, common.GetActorFromContext(ctx), id)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusOK, newInvoiceResponse(invoice))
}

// ExportInvoicePDF handles POST /invoices/:id/pdf
func (h *InvoiceHandlers) ExportInvoicePDF(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := invoiceID(c)
	if !ok {
		return common.SendNotFoundError(c, "Invoice")
	}

	link, err := h.documentService.ExportInvoice(ctx, common.GetActorFromContext(ctx), id)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusOK, link)
}

func invoiceID(c echo.Context) (uuid.UUID, bool) {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	return id, err == nil
}
