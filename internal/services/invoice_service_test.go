package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"invoicedesk/internal/common"
	"invoicedesk/internal/models"
	"invoicedesk/testhelpers"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type InvoiceServiceTestSuite struct {
	suite.Suite
	store   *testhelpers.MemStore
	service InvoiceService
	alice   *models.Actor
	bob     *models.Actor
	admin   *models.Actor
	ctx     context.Context
}

func (suite *InvoiceServiceTestSuite) SetupTest() {
	suite.store = testhelpers.NewMemStore()
	suite.service = NewInvoiceService(suite.store)
	suite.alice = testhelpers.StandardActor("alice")
	suite.bob = testhelpers.StandardActor("bob")
	suite.admin = testhelpers.ElevatedActor("admin")
	suite.ctx = context.Background()
}

func TestInvoiceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InvoiceServiceTestSuite))
}

func (suite *InvoiceServiceTestSuite) create(actor *models.Actor, reference string) *models.Invoice {
	invoice, err := suite.service.CreateInvoice(suite.ctx, actor, testhelpers.InvoiceInput(reference))
	require.NoError(suite.T(), err)
	return invoice
}

func (suite *InvoiceServiceTestSuite) paid() *string {
	s := models.InvoiceStatusPaid
	return &s
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_ComputesExactTotal() {
	invoice := suite.create(suite.alice, "INV-001")

	assert.Equal(suite.T(), "250.00", invoice.TotalAmount.StringFixed(2))
	assert.Equal(suite.T(), models.InvoiceStatusPending, invoice.Status)
	assert.Equal(suite.T(), suite.alice.ID, invoice.CreatedBy)
	require.Len(suite.T(), invoice.Items, 2)
	assert.Equal(suite.T(), "200.00", invoice.Items[0].Subtotal().StringFixed(2))
	assert.Equal(suite.T(), "50.00", invoice.Items[1].Subtotal().StringFixed(2))
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_RecordsExactlyOneSale() {
	invoice := suite.create(suite.alice, "INV-001")

	txns := suite.store.TransactionsFor(invoice.ID)
	require.Len(suite.T(), txns, 1)
	assert.Equal(suite.T(), models.TransactionTypeSale, txns[0].TransactionType)
	assert.True(suite.T(), txns[0].Amount.Equal(invoice.TotalAmount))
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_DecimalPrecision() {
	input := testhelpers.InvoiceInput("INV-002")
	input.Items = []models.InvoiceItemInput{
		{Name: "Thing", Quantity: 3, Price: decimal.RequireFromString("0.10")},
		{Name: "Other", Quantity: 7, Price: decimal.RequireFromString("19.99")},
	}

	invoice, err := suite.service.CreateInvoice(suite.ctx, suite.alice, input)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "140.23", invoice.TotalAmount.StringFixed(2))
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_EmptyItemsPersistsNothing() {
	input := testhelpers.InvoiceInput("INV-001")
	input.Items = nil

	invoice, err := suite.service.CreateInvoice(suite.ctx, suite.alice, input)
	assert.Nil(suite.T(), invoice)
	require.ErrorIs(suite.T(), err, common.ErrValidation)

	appErr, _ := common.AsAppError(err)
	assert.Equal(suite.T(), "Invoice must have at least one item.", appErr.Details["items"])
	assert.Equal(suite.T(), 0, suite.store.InvoiceCount())
	assert.Equal(suite.T(), 0, suite.store.TransactionCount())
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_FieldValidation() {
	email := "not-an-email"
	input := &models.CreateInvoiceInput{
		Reference:     "  ",
		CustomerEmail: &email,
		Items: []models.InvoiceItemInput{
			{Name: "", Quantity: 0, Price: decimal.RequireFromString("-1")},
			{Name: "Fine", Quantity: 1, Price: decimal.RequireFromString("1.005")},
		},
	}

	_, err := suite.service.CreateInvoice(suite.ctx, suite.alice, input)
	require.ErrorIs(suite.T(), err, common.ErrValidation)

	appErr, _ := common.AsAppError(err)
	assert.Contains(suite.T(), appErr.Details, "reference")
	assert.Contains(suite.T(), appErr.Details, "customer_name")
	assert.Contains(suite.T(), appErr.Details, "customer_email")
	assert.Contains(suite.T(), appErr.Details, "items[0].name")
	assert.Contains(suite.T(), appErr.Details, "items[0].quantity")
	assert.Equal(suite.T(), "Ensure this value is greater than or equal to 0.", appErr.Details["items[0].price"])
	assert.Equal(suite.T(), "Ensure that there are no more than 2 decimal places.", appErr.Details["items[1].price"])
	assert.Equal(suite.T(), 0, suite.store.InvoiceCount())
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_TotalTooLarge() {
	input := testhelpers.InvoiceInput("INV-BIG")
	input.Items = []models.InvoiceItemInput{
		{Name: "Yacht", Quantity: 2, Price: decimal.RequireFromString("60000000.00")},
	}

	_, err := suite.service.CreateInvoice(suite.ctx, suite.alice, input)
	require.ErrorIs(suite.T(), err, common.ErrValidation)
	appErr, _ := common.AsAppError(err)
	assert.Contains(suite.T(), appErr.Details, "total_amount")

	input.Items = []models.InvoiceItemInput{
		{Name: "Yacht", Quantity: 1, Price: models.MaxInvoiceTotal},
	}
	invoice, err := suite.service.CreateInvoice(suite.ctx, suite.alice, input)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "99999999.99", invoice.TotalAmount.StringFixed(2))
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_QuantityBeyondIntegerColumn() {
	input := testhelpers.InvoiceInput("INV-MANY")
	input.Items = []models.InvoiceItemInput{
		{Name: "Screw", Quantity: 3000000000, Price: decimal.RequireFromString("0.01")},
	}

	_, err := suite.service.CreateInvoice(suite.ctx, suite.alice, input)
	require.ErrorIs(suite.T(), err, common.ErrValidation)
	appErr, _ := common.AsAppError(err)
	assert.Equal(suite.T(), "Ensure this value is less than or equal to 2147483647.", appErr.Details["items[0].quantity"])
	assert.NotContains(suite.T(), appErr.Details, "total_amount")
	assert.Equal(suite.T(), 0, suite.store.InvoiceCount())
	assert.Equal(suite.T(), 0, suite.store.TransactionCount())

	input.Items[0].Quantity = models.MaxItemQuantity
	invoice, err := suite.service.CreateInvoice(suite.ctx, suite.alice, input)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "21474836.47", invoice.TotalAmount.StringFixed(2))
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_DuplicateReference() {
	first := suite.create(suite.alice, "INV-001")

	_, err := suite.service.CreateInvoice(suite.ctx, suite.bob, testhelpers.InvoiceInput("INV-001"))
	require.ErrorIs(suite.T(), err, common.ErrConflict)

	stored, err := suite.service.GetInvoice(suite.ctx, suite.alice, first.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), first.CustomerName, stored.CustomerName)
	assert.Equal(suite.T(), 1, suite.store.InvoiceCount())
	assert.Len(suite.T(), suite.store.TransactionsFor(first.ID), 1)
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_LedgerFailureRollsBack() {
	suite.store.FailTransactionCreate = errors.New("disk full")

	_, err := suite.service.CreateInvoice(suite.ctx, suite.alice, testhelpers.InvoiceInput("INV-001"))
	require.Error(suite.T(), err)
	_, isDomain := common.AsAppError(err)
	assert.False(suite.T(), isDomain)
	assert.Equal(suite.T(), 0, suite.store.InvoiceCount())
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_RequiresActor() {
	_, err := suite.service.CreateInvoice(suite.ctx, nil, testhelpers.InvoiceInput("INV-001"))
	assert.ErrorIs(suite.T(), err, common.ErrAuthenticationRequired)
}

func (suite *InvoiceServiceTestSuite) TestMarkPaid_CreatesOnePayment() {
	invoice := suite.create(suite.alice, "INV-001")

	paid, err := suite.service.MarkPaid(suite.ctx, suite.alice, invoice.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.InvoiceStatusPaid, paid.Status)
	assert.Len(suite.T(), paid.Items, 2)

	txns := suite.store.TransactionsFor(invoice.ID)
	require.Len(suite.T(), txns, 2)
	assert.Equal(suite.T(), models.TransactionTypePayment, txns[1].TransactionType)
	assert.Equal(suite.T(), "250.00", txns[1].Amount.StringFixed(2))
}

func (suite *InvoiceServiceTestSuite) TestMarkPaid_TwiceFails() {
	invoice := suite.create(suite.alice, "INV-001")

	_, err := suite.service.MarkPaid(suite.ctx, suite.alice, invoice.ID)
	require.NoError(suite.T(), err)

	for _, actor := range []*models.Actor{suite.alice, suite.admin} {
		_, err = suite.service.MarkPaid(suite.ctx, actor, invoice.ID)
		require.ErrorIs(suite.T(), err, common.ErrInvalidTransition)
		appErr, _ := common.AsAppError(err)
		assert.Equal(suite.T(), "Only pending invoices can be marked as paid.", appErr.Message)
	}
	assert.Len(suite.T(), suite.store.TransactionsFor(invoice.ID), 2)
}

func (suite *InvoiceServiceTestSuite) TestUpdateInvoice_StatusPaid() {
	invoice := suite.create(suite.alice, "INV-001")

	updated, err := suite.service.UpdateInvoice(suite.ctx, suite.alice, invoice.ID, &models.InvoiceUpdate{Status: suite.paid()})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.InvoiceStatusPaid, updated.Status)
	assert.Len(suite.T(), suite.store.TransactionsFor(invoice.ID), 2)
}

func (suite *InvoiceServiceTestSuite) TestUpdateInvoice_ImmutableFields() {
	invoice := suite.create(suite.alice, "INV-001")
	name := "Someone Else"
	total := decimal.NewFromInt(1)

	_, err := suite.service.UpdateInvoice(suite.ctx, suite.alice, invoice.ID, &models.InvoiceUpdate{
		Status:       suite.paid(),
		CustomerName: &name,
		TotalAmount:  &total,
	})
	require.ErrorIs(suite.T(), err, common.ErrImmutableField)
	appErr, _ := common.AsAppError(err)
	assert.Equal(suite.T(), "Only status field can be updated. Immutable fields: customer_name, total_amount", appErr.Message)

	stored, err := suite.service.GetInvoice(suite.ctx, suite.alice, invoice.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.InvoiceStatusPending, stored.Status)
	assert.Equal(suite.T(), "Acme Corp", stored.CustomerName)
}

func (suite *InvoiceServiceTestSuite) TestUpdateInvoice_StatusRules() {
	invoice := suite.create(suite.alice, "INV-001")
	pending := models.InvoiceStatusPending
	bogus := "CANCELLED"

	_, err := suite.service.UpdateInvoice(suite.ctx, suite.alice, invoice.ID, &models.InvoiceUpdate{})
	assert.ErrorIs(suite.T(), err, common.ErrValidation)

	_, err = suite.service.UpdateInvoice(suite.ctx, suite.alice, invoice.ID, &models.InvoiceUpdate{Status: &bogus})
	assert.ErrorIs(suite.T(), err, common.ErrValidation)

	_, err = suite.service.UpdateInvoice(suite.ctx, suite.alice, invoice.ID, &models.InvoiceUpdate{Status: &pending})
	assert.ErrorIs(suite.T(), err, common.ErrInvalidTransition)

	assert.Len(suite.T(), suite.store.TransactionsFor(invoice.ID), 1)
}

func (suite *InvoiceServiceTestSuite) TestAccess_StandardActorIsolation() {
	invoice := suite.create(suite.alice, "INV-001")
	suite.create(suite.bob, "INV-002")

	_, err := suite.service.GetInvoice(suite.ctx, suite.bob, invoice.ID)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)

	_, err = suite.service.MarkPaid(suite.ctx, suite.bob, invoice.ID)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
	assert.Len(suite.T(), suite.store.TransactionsFor(invoice.ID), 1)

	page, err := suite.service.ListInvoices(suite.ctx, suite.bob, models.InvoiceFilter{})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, page.Count)
	require.Len(suite.T(), page.Invoices, 1)
	assert.Equal(suite.T(), "INV-002", page.Invoices[0].Reference)
}

func (suite *InvoiceServiceTestSuite) TestAccess_ElevatedSeesAll() {
	invoice := suite.create(suite.alice, "INV-001")
	suite.create(suite.bob, "INV-002")

	page, err := suite.service.ListInvoices(suite.ctx, suite.admin, models.InvoiceFilter{})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, page.Count)
	assert.Len(suite.T(), page.Invoices, 2)

	paid, err := suite.service.MarkPaid(suite.ctx, suite.admin, invoice.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.alice.ID, paid.CreatedBy)
}

func (suite *InvoiceServiceTestSuite) TestAccess_AnonymousSeesNothing() {
	invoice := suite.create(suite.alice, "INV-001")

	page, err := suite.service.ListInvoices(suite.ctx, nil, models.InvoiceFilter{})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, page.Count)
	assert.Empty(suite.T(), page.Invoices)

	_, err = suite.service.GetInvoice(suite.ctx, nil, invoice.ID)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)

	_, err = suite.service.MarkPaid(suite.ctx, nil, invoice.ID)
	assert.ErrorIs(suite.T(), err, common.ErrAuthenticationRequired)
}

func (suite *InvoiceServiceTestSuite) TestListInvoices_StatusFilterAndPaging() {
	first := suite.create(suite.alice, "INV-001")
	suite.create(suite.alice, "INV-002")
	suite.create(suite.alice, "INV-003")

	_, err := suite.service.MarkPaid(suite.ctx, suite.alice, first.ID)
	require.NoError(suite.T(), err)

	page, err := suite.service.ListInvoices(suite.ctx, suite.alice, models.InvoiceFilter{Status: suite.paid()})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, page.Count)

	page, err = suite.service.ListInvoices(suite.ctx, suite.alice, models.InvoiceFilter{Limit: 2})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, page.Count)
	assert.Len(suite.T(), page.Invoices, 2)
	assert.Equal(suite.T(), 2, page.Limit)

	bogus := "VOID"
	_, err = suite.service.ListInvoices(suite.ctx, suite.alice, models.InvoiceFilter{Status: &bogus})
	assert.ErrorIs(suite.T(), err, common.ErrValidation)
}

func (suite *InvoiceServiceTestSuite) TestGetInvoice_Missing() {
	_, err := suite.service.GetInvoice(suite.ctx, suite.admin, uuid.New())
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func TestMarkPaid_ConcurrentAttemptsYieldOnePayment(t *testing.T) {
	store := testhelpers.NewMemStore()
	service := NewInvoiceService(store)
	ctx := context.Background()
	owner := testhelpers.StandardActor("alice")
	admin := testhelpers.ElevatedActor("admin")

	invoice, err := service.CreateInvoice(ctx, owner, testhelpers.InvoiceInput("INV-RACE"))
	require.NoError(t, err)

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		actor := owner
		if i%2 == 1 {
			actor = admin
		}
		wg.Add(1)
		go func(actor *models.Actor) {
			defer wg.Done()
			_, err := service.MarkPaid(ctx, actor, invoice.ID)
			results <- err
		}(actor)
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, common.ErrInvalidTransition)
	}
	assert.Equal(t, 1, successes)

	var payments int
	for _, txn := range store.TransactionsFor(invoice.ID) {
		if txn.TransactionType == models.TransactionTypePayment {
			payments++
		}
	}
	assert.Equal(t, 1, payments)
}
