package services

import (
	"context"
	"testing"

	"invoicedesk/internal/common"
	"invoicedesk/internal/models"
	"invoicedesk/testhelpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionService_ScopedThroughInvoice(t *testing.T) {
	store := testhelpers.NewMemStore()
	invoices := NewInvoiceService(store)
	service := NewTransactionService(store)
	ctx := context.Background()

	alice := testhelpers.StandardActor("alice")
	bob := testhelpers.StandardActor("bob")
	admin := testhelpers.ElevatedActor("admin")

	aliceInvoice, err := invoices.CreateInvoice(ctx, alice, testhelpers.InvoiceInput("INV-A"))
	require.NoError(t, err)
	_, err = invoices.MarkPaid(ctx, alice, aliceInvoice.ID)
	require.NoError(t, err)
	_, err = invoices.CreateInvoice(ctx, bob, testhelpers.InvoiceInput("INV-B"))
	require.NoError(t, err)

	page, err := service.ListTransactions(ctx, alice, models.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Count)
	for _, txn := range page.Transactions {
		require.NotNil(t, txn.Invoice)
		assert.Equal(t, "INV-A", txn.Invoice.Reference)
	}

	page, err = service.ListTransactions(ctx, admin, models.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Count)

	payment := models.TransactionTypePayment
	page, err = service.ListTransactions(ctx, admin, models.TransactionFilter{Type: &payment})
	require.NoError(t, err)
	require.Equal(t, 1, page.Count)
	assert.Equal(t, aliceInvoice.ID, page.Transactions[0].InvoiceID)

	page, err = service.ListTransactions(ctx, bob, models.TransactionFilter{InvoiceID: &aliceInvoice.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Count)
	assert.Empty(t, page.Transactions)

	_, err = service.GetTransaction(ctx, bob, store.TransactionsFor(aliceInvoice.ID)[0].ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	txn, err := service.GetTransaction(ctx, admin, store.TransactionsFor(aliceInvoice.ID)[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeSale, txn.TransactionType)
}

func TestTransactionService_Validation(t *testing.T) {
	service := NewTransactionService(testhelpers.NewMemStore())
	ctx := context.Background()

	bogus := "Refund"
	_, err := service.ListTransactions(ctx, testhelpers.StandardActor("alice"), models.TransactionFilter{Type: &bogus})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = service.ListTransactions(ctx, nil, models.TransactionFilter{})
	assert.ErrorIs(t, err, common.ErrAuthenticationRequired)

	_, err = service.GetTransaction(ctx, testhelpers.ElevatedActor("admin"), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}
