package repositories

import (
	"context"
	"testing"
	"time"

	"invoicedesk/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var transactionRowColumns = []string{"id", "invoice_id", "transaction_type", "amount", "date", "reference", "customer_name", "total_amount", "status", "created_by"}

type TransactionRepoTestSuite struct {
	suite.Suite
	mock      pgxmock.PgxPoolIface
	repo      TransactionRepository
	ownerID   uuid.UUID
	invoiceID uuid.UUID
	context   context.Context
}

func (suite *TransactionRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewTransactionRepo(mock)
	suite.ownerID = uuid.New()
	suite.invoiceID = uuid.New()
	suite.context = context.Background()
}

func (suite *TransactionRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestTransactionRepoTestSuite(t *testing.T) {
	suite.Run(t, new(TransactionRepoTestSuite))
}

func (suite *TransactionRepoTestSuite) TestCreate_Success() {
	txn := &models.Transaction{
		ID:              uuid.New(),
		InvoiceID:       suite.invoiceID,
		TransactionType: models.TransactionTypeSale,
		Amount:          decimal.RequireFromString("250"),
		Date:            time.Now().UTC(),
	}

	suite.mock.ExpectExec(`INSERT INTO transactions \(id, invoice_id, transaction_type, amount, date\)`).
		WithArgs(txn.ID, suite.invoiceID, "Sale", "250.00", txn.Date).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, txn)
	assert.NoError(suite.T(), err)
}

func (suite *TransactionRepoTestSuite) TestCreate_SecondPaymentRejectedByIndex() {
	txn := &models.Transaction{
		ID:              uuid.New(),
		InvoiceID:       suite.invoiceID,
		TransactionType: models.TransactionTypePayment,
		Amount:          decimal.RequireFromString("250"),
		Date:            time.Now().UTC(),
	}

	suite.mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs(txn.ID, suite.invoiceID, "Payment", "250.00", txn.Date).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "transactions_invoice_type_key"})

	err := suite.repo.Create(suite.context, txn)
	assert.ErrorIs(suite.T(), err, ErrDuplicateLedgerEntry)
}

func (suite *TransactionRepoTestSuite) TestGetByID_ScopedThroughInvoice() {
	txnID := uuid.New()
	date := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	suite.mock.ExpectQuery(`JOIN invoices i ON i.id = t.invoice_id WHERE t.id = \$1 AND i.created_by = \$2`).
		WithArgs(txnID, suite.ownerID).
		WillReturnRows(pgxmock.NewRows(transactionRowColumns).
			AddRow(txnID, suite.invoiceID, "Sale", "250.00", date, "INV-001", "Acme", "250.00", "PENDING", suite.ownerID))

	txn, err := suite.repo.GetByID(suite.context, txnID, models.OwnedBy(suite.ownerID))
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.TransactionTypeSale, txn.TransactionType)
	assert.Equal(suite.T(), "250.00", txn.Amount.StringFixed(2))
	require.NotNil(suite.T(), txn.Invoice)
	assert.Equal(suite.T(), suite.invoiceID, txn.Invoice.ID)
	assert.Equal(suite.T(), "INV-001", txn.Invoice.Reference)
}

func (suite *TransactionRepoTestSuite) TestGetByID_NotFound() {
	txnID := uuid.New()
	suite.mock.ExpectQuery(`WHERE t.id = \$1`).
		WithArgs(txnID).
		WillReturnError(pgx.ErrNoRows)

	txn, err := suite.repo.GetByID(suite.context, txnID, models.AllRows())
	assert.ErrorIs(suite.T(), err, ErrNotFound)
	assert.Nil(suite.T(), txn)
}

func (suite *TransactionRepoTestSuite) TestList_WithFilters() {
	txType := models.TransactionTypePayment
	date := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)

	suite.mock.ExpectQuery(`WHERE i.created_by = \$1 AND t.invoice_id = \$2 AND t.transaction_type = \$3 ORDER BY t.date DESC, t.id DESC LIMIT \$4 OFFSET \$5`).
		WithArgs(suite.ownerID, suite.invoiceID, txType, 20, 0).
		WillReturnRows(pgxmock.NewRows(transactionRowColumns).
			AddRow(uuid.New(), suite.invoiceID, "Payment", "250.00", date, "INV-001", "Acme", "250.00", "PAID", suite.ownerID))

	txns, err := suite.repo.List(suite.context, models.OwnedBy(suite.ownerID), models.TransactionFilter{
		InvoiceID: &suite.invoiceID,
		Type:      &txType,
		Limit:     20,
	})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), txns, 1)
	assert.Equal(suite.T(), models.InvoiceStatusPaid, txns[0].Invoice.Status)
}

func (suite *TransactionRepoTestSuite) TestCount_AllRows() {
	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transactions t JOIN invoices i ON i.id = t.invoice_id$`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))

	count, err := suite.repo.Count(suite.context, models.AllRows(), models.TransactionFilter{})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 7, count)
}

func (suite *TransactionRepoTestSuite) TestFindLedgerAnomalies() {
	suite.mock.ExpectQuery(`FROM invoices i LEFT JOIN transactions t ON t.invoice_id = i.id GROUP BY`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "reference", "status", "total_amount", "sale_count", "payment_count", "sale_amount"}).
			AddRow(suite.invoiceID, "INV-009", "PAID", "120.00", 1, 0, "120.00"))

	anomalies, err := suite.repo.FindLedgerAnomalies(suite.context)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), anomalies, 1)
	assert.Equal(suite.T(), "INV-009", anomalies[0].Reference)
	assert.Equal(suite.T(), []string{"Payment transactions do not match invoice status"}, anomalies[0].Problems())
}
