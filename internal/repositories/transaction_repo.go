package repositories

import (
	"context"
	"errors"
	"fmt"

	"invoicedesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const transactionColumns = `
	t.id, t.invoice_id, t.transaction_type, t.amount::text, t.date,
	i.reference, i.customer_name, i.total_amount::text, i.status, i.created_by`

type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID, scope models.Scope) (*models.Transaction, error)
	List(ctx context.Context, scope models.Scope, filter models.TransactionFilter) ([]*models.Transaction, error)
	Count(ctx context.Context, scope models.Scope, filter models.TransactionFilter) (int, error)
	// FindLedgerAnomalies reports invoices whose ledger does not hold exactly
	// one Sale for the total and one Payment iff the invoice is PAID.
	FindLedgerAnomalies(ctx context.Context) ([]models.LedgerAnomaly, error)
}

type transactionRepo struct {
	db Database
}

func NewTransactionRepo(db Database) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) Create(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, invoice_id, transaction_type, amount, date)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, txn.ID, txn.InvoiceID, txn.TransactionType, txn.Amount.StringFixed(2), txn.Date)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return ErrDuplicateLedgerEntry
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (r *transactionRepo) GetByID(ctx context.Context, id uuid.UUID, scope models.Scope) (*models.Transaction, error) {
	where := []string{"t.id = $1"}
	args := []any{id}
	where, args = scopeCondition(where, args, scope, "i.created_by")

	query := `SELECT` + transactionColumns + `
		FROM transactions t
		JOIN invoices i ON i.id = t.invoice_id` + whereClause(where)

	txn, err := scanTransaction(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

func (r *transactionRepo) List(ctx context.Context, scope models.Scope, filter models.TransactionFilter) ([]*models.Transaction, error) {
	where, args := transactionFilterConditions(scope, filter)
	args = append(args, filter.Limit, filter.Offset)

	query := `SELECT` + transactionColumns + `
		FROM transactions t
		JOIN invoices i ON i.id = t.invoice_id` + whereClause(where) +
		fmt.Sprintf(` ORDER BY t.date DESC, t.id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

func (r *transactionRepo) Count(ctx context.Context, scope models.Scope, filter models.TransactionFilter) (int, error) {
	where, args := transactionFilterConditions(scope, filter)

	query := `SELECT COUNT(*) FROM transactions t JOIN invoices i ON i.id = t.invoice_id` + whereClause(where)

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func (r *transactionRepo) FindLedgerAnomalies(ctx context.Context) ([]models.LedgerAnomaly, error) {
	query := `
		SELECT i.id, i.reference, i.status, i.total_amount::text,
			COUNT(t.id) FILTER (WHERE t.transaction_type = 'Sale') AS sale_count,
			COUNT(t.id) FILTER (WHERE t.transaction_type = 'Payment') AS payment_count,
			COALESCE(SUM(t.amount) FILTER (WHERE t.transaction_type = 'Sale'), 0)::text AS sale_amount
		FROM invoices i
		LEFT JOIN transactions t ON t.invoice_id = i.id
		GROUP BY i.id, i.reference, i.status, i.total_amount
		HAVING COUNT(t.id) FILTER (WHERE t.transaction_type = 'Sale') <> 1
			OR COUNT(t.id) FILTER (WHERE t.transaction_type = 'Payment') <> CASE WHEN i.status = 'PAID' THEN 1 ELSE 0 END
			OR COALESCE(SUM(t.amount) FILTER (WHERE t.transaction_type = 'Sale'), 0) <> i.total_amount
		ORDER BY i.created_at
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to audit ledger: %w", err)
	}
	defer rows.Close()

	var anomalies []models.LedgerAnomaly
	for rows.Next() {
		var a models.LedgerAnomaly
		var total, saleAmount string
		if err := rows.Scan(&a.InvoiceID, &a.Reference, &a.Status, &total, &a.SaleCount, &a.PaymentCount, &saleAmount); err != nil {
			return nil, fmt.Errorf("failed to scan ledger anomaly: %w", err)
		}
		if a.TotalAmount, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("invalid total amount %q: %w", total, err)
		}
		if a.SaleAmount, err = decimal.NewFromString(saleAmount); err != nil {
			return nil, fmt.Errorf("invalid sale amount %q: %w", saleAmount, err)
		}
		anomalies = append(anomalies, a)
	}
	return anomalies, rows.Err()
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	txn := &models.Transaction{}
	summary := &models.InvoiceSummary{}
	var amount, total string
	err := row.Scan(&txn.ID, &txn.InvoiceID, &txn.TransactionType, &amount, &txn.Date,
		&summary.Reference, &summary.CustomerName, &total, &summary.Status, &summary.CreatedBy)
	if err != nil {
		return nil, err
	}
	if txn.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if summary.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("invalid total amount %q: %w", total, err)
	}
	summary.ID = txn.InvoiceID
	txn.Invoice = summary
	return txn, nil
}

func transactionFilterConditions(scope models.Scope, filter models.TransactionFilter) ([]string, []any) {
	var where []string
	var args []any
	where, args = scopeCondition(where, args, scope, "i.created_by")
	if filter.InvoiceID != nil {
		args = append(args, *filter.InvoiceID)
		where = append(where, fmt.Sprintf("t.invoice_id = $%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		where = append(where, fmt.Sprintf("t.transaction_type = $%d", len(args)))
	}
	return where, args
}
