package services

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"time"

	"invoicedesk/internal/models"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

const (
	pdfContentType = "application/pdf"
	documentTTL    = 24 * time.Hour
)

var unsafeObjectChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DocumentService renders invoices as PDFs and publishes them to object storage
type DocumentService interface {
	RenderInvoicePDF(invoice *models.Invoice) ([]byte, error)
	ExportInvoice(ctx context.Context, actor *models.Actor, id uuid.UUID) (*models.DocumentLink, error)
}

type documentService struct {
	invoices InvoiceService
	storage  DocumentStorage
	currency string
}

func NewDocumentService(invoices InvoiceService, storage DocumentStorage, currency string) DocumentService {
	return &documentService{
		invoices: invoices,
		storage:  storage,
		currency: currency,
	}
}

// ExportInvoice renders a visible invoice and returns a time-limited download
// link. It never changes the invoice or its ledger.
func (s *documentService) ExportInvoice(ctx context.Context, actor *models.Actor, id uuid.UUID) (*models.DocumentLink, error) {
	invoice, err := s.invoices.GetInvoice(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	pdfBytes, err := s.RenderInvoicePDF(invoice)
	if err != nil {
		return nil, err
	}
	if len(pdfBytes) == 0 {
		return nil, fmt.Errorf("generated PDF is empty")
	}

	objectName := fmt.Sprintf("invoices/%s-%s.pdf", unsafeObjectChars.ReplaceAllString(invoice.Reference, "_"), invoice.ID)
	if err := s.storage.Store(ctx, objectName, pdfContentType, pdfBytes); err != nil {
		return nil, fmt.Errorf("failed to upload PDF to storage: %w", err)
	}

	url, err := s.storage.DownloadURL(ctx, objectName, documentTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate download URL: %w", err)
	}

	return &models.DocumentLink{
		URL:        url,
		ObjectName: objectName,
		ExpiresAt:  time.Now().UTC().Add(documentTTL),
	}, nil
}

func (s *documentService) RenderInvoicePDF(invoice *models.Invoice) ([]byte, error) {
	if invoice == nil {
		return nil, fmt.Errorf("invoice is required")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	marginX := 20.0
	marginY := 20.0
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.SetXY(marginX, marginY)
	pdf.Cell(0, 10, "INVOICE")
	pdf.Ln(15)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Reference: %s", invoice.Reference)))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Date: %s", invoice.CreatedAt.Format("02-Jan-2006")))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", invoice.Status))
	pdf.Ln(13)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 8, "BILL TO:")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(invoice.CustomerName))
	pdf.Ln(6)
	if invoice.CustomerEmail != nil {
		pdf.Cell(0, 6, tr(*invoice.CustomerEmail))
		pdf.Ln(6)
	}
	if invoice.CustomerPhone != nil {
		pdf.Cell(0, 6, tr(*invoice.CustomerPhone))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	headers := []string{"Description", "Qty", "Price", "Subtotal"}
	colWidths := []float64{80, 20, 35, 35}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	for i, header := range headers {
		pdf.CellFormat(colWidths[i], 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	for _, item := range invoice.Items {
		pdf.CellFormat(colWidths[0], 8, tr(item.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[1], 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[2], 8, tr(FormatMoney(item.Price, s.currency)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[3], 8, tr(FormatMoney(item.Subtotal(), s.currency)), "1", 0, "R", false, 0, "")
		pdf.Ln(8)
	}
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(135, 8, "TOTAL:", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, tr(FormatMoney(invoice.TotalAmount, s.currency)), "", 0, "R", false, 0, "")
	pdf.Ln(12)

	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.Cell(0, 5, "This is a computer generated invoice")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatMoney renders an amount in the currency's display format. Unknown
// currency codes fall back to a plain two-decimal amount.
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return fmt.Sprintf("%s %s", amount.StringFixed(2), currency)
	}
	factor := decimal.New(1, int32(cur.Fraction))
	return money.New(amount.Mul(factor).Round(0).IntPart(), cur.Code).Display()
}
