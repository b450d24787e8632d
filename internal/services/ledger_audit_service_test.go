package services

import (
	"context"
	"testing"
	"time"

	"invoicedesk/internal/models"
	"invoicedesk/testhelpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerAudit_CleanLedger(t *testing.T) {
	store := testhelpers.NewMemStore()
	invoices := NewInvoiceService(store)
	ctx := context.Background()
	alice := testhelpers.StandardActor("alice")

	first, err := invoices.CreateInvoice(ctx, alice, testhelpers.InvoiceInput("INV-001"))
	require.NoError(t, err)
	_, err = invoices.CreateInvoice(ctx, alice, testhelpers.InvoiceInput("INV-002"))
	require.NoError(t, err)
	_, err = invoices.MarkPaid(ctx, alice, first.ID)
	require.NoError(t, err)

	report, err := NewLedgerAuditService(store).Audit(ctx)
	require.NoError(t, err)
	assert.True(t, report.Healthy())
	assert.NotNil(t, report.Anomalies)
}

func TestLedgerAudit_ReportsExtraPayment(t *testing.T) {
	store := testhelpers.NewMemStore()
	invoices := NewInvoiceService(store)
	ctx := context.Background()
	alice := testhelpers.StandardActor("alice")

	invoice, err := invoices.CreateInvoice(ctx, alice, testhelpers.InvoiceInput("INV-001"))
	require.NoError(t, err)

	store.AppendTransaction(models.Transaction{
		ID:              uuid.New(),
		InvoiceID:       invoice.ID,
		TransactionType: models.TransactionTypePayment,
		Amount:          invoice.TotalAmount,
		Date:            time.Now(),
	})

	report, err := NewLedgerAuditService(store).Audit(ctx)
	require.NoError(t, err)
	require.Len(t, report.Anomalies, 1)
	assert.Equal(t, "INV-001", report.Anomalies[0].Reference)
	assert.Equal(t, 1, report.Anomalies[0].PaymentCount)
	assert.Equal(t, []string{"Payment transactions do not match invoice status"}, report.Anomalies[0].Problems())
}
