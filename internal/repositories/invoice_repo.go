package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"invoicedesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const invoiceColumns = `id, reference, customer_name, customer_email, customer_phone, total_amount::text, status, created_by, created_at, updated_at`

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	CreateItems(ctx context.Context, items []models.InvoiceItem) error
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID, scope models.Scope) (*models.Invoice, error)
	GetForUpdate(ctx context.Context, id uuid.UUID, scope models.Scope) (*models.Invoice, error)
	List(ctx context.Context, scope models.Scope, filter models.InvoiceFilter) ([]*models.Invoice, error)
	Count(ctx context.Context, scope models.Scope, filter models.InvoiceFilter) (int, error)
	ListItems(ctx context.Context, invoiceIDs []uuid.UUID) (map[uuid.UUID][]models.InvoiceItem, error)
	// MarkPaid flips a PENDING invoice to PAID and returns the new updated_at.
	// It returns ErrStatusConflict when the row is no longer PENDING.
	MarkPaid(ctx context.Context, id uuid.UUID) (time.Time, error)
}

type invoiceRepo struct {
	db Database
}

func NewInvoiceRepo(db Database) InvoiceRepository {
	return &invoiceRepo{db: db}
}

func (r *invoiceRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	query := `
		INSERT INTO invoices (id, reference, customer_name, customer_email, customer_phone, total_amount, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query, invoice.ID, invoice.Reference, invoice.CustomerName, invoice.CustomerEmail, invoice.CustomerPhone,
		invoice.TotalAmount.StringFixed(2), invoice.Status, invoice.CreatedBy, invoice.CreatedAt, invoice.UpdatedAt)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return ErrDuplicateReference
		}
		return fmt.Errorf("failed to insert invoice: %w", err)
	}
	return nil
}

func (r *invoiceRepo) CreateItems(ctx context.Context, items []models.InvoiceItem) error {
	query := `
		INSERT INTO invoice_items (id, invoice_id, name, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, item := range items {
		if _, err := r.db.Exec(ctx, query, item.ID, item.InvoiceID, item.Name, item.Quantity, item.Price.StringFixed(2)); err != nil {
			return fmt.Errorf("failed to insert invoice item: %w", err)
		}
	}
	return nil
}

func (r *invoiceRepo) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM invoices WHERE reference = $1)`, reference).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check invoice reference: %w", err)
	}
	return exists, nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID, scope models.Scope) (*models.Invoice, error) {
	return r.getOne(ctx, id, scope, "")
}

func (r *invoiceRepo) GetForUpdate(ctx context.Context, id uuid.UUID, scope models.Scope) (*models.Invoice, error) {
	return r.getOne(ctx, id, scope, " FOR UPDATE")
}

func (r *invoiceRepo) getOne(ctx context.Context, id uuid.UUID, scope models.Scope, lock string) (*models.Invoice, error) {
	where := []string{"id = $1"}
	args := []any{id}
	where, args = scopeCondition(where, args, scope, "created_by")

	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE ` + strings.Join(where, " AND ") + lock

	invoice, err := scanInvoice(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return invoice, nil
}

func (r *invoiceRepo) List(ctx context.Context, scope models.Scope, filter models.InvoiceFilter) ([]*models.Invoice, error) {
	where, args := invoiceFilterConditions(scope, filter)
	args = append(args, filter.Limit, filter.Offset)

	query := `SELECT ` + invoiceColumns + ` FROM invoices` + whereClause(where) +
		fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

func (r *invoiceRepo) Count(ctx context.Context, scope models.Scope, filter models.InvoiceFilter) (int, error) {
	where, args := invoiceFilterConditions(scope, filter)

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`+whereClause(where), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	return count, nil
}

func (r *invoiceRepo) ListItems(ctx context.Context, invoiceIDs []uuid.UUID) (map[uuid.UUID][]models.InvoiceItem, error) {
	items := make(map[uuid.UUID][]models.InvoiceItem, len(invoiceIDs))
	if len(invoiceIDs) == 0 {
		return items, nil
	}

	query := `
		SELECT id, invoice_id, name, quantity, price::text
		FROM invoice_items
		WHERE invoice_id = ANY($1)
		ORDER BY invoice_id, id
	`
	rows, err := r.db.Query(ctx, query, invoiceIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoice items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.InvoiceItem
		var price string
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Name, &item.Quantity, &price); err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		if item.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("invalid item price %q: %w", price, err)
		}
		items[item.InvoiceID] = append(items[item.InvoiceID], item)
	}
	return items, rows.Err()
}

func (r *invoiceRepo) MarkPaid(ctx context.Context, id uuid.UUID) (time.Time, error) {
	query := `
		UPDATE invoices
		SET status = 'PAID', updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING updated_at
	`
	var updatedAt time.Time
	if err := r.db.QueryRow(ctx, query, id).Scan(&updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrStatusConflict
		}
		return time.Time{}, fmt.Errorf("failed to mark invoice paid: %w", err)
	}
	return updatedAt, nil
}

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	var total string
	err := row.Scan(&invoice.ID, &invoice.Reference, &invoice.CustomerName, &invoice.CustomerEmail, &invoice.CustomerPhone,
		&total, &invoice.Status, &invoice.CreatedBy, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if invoice.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("invalid total amount %q: %w", total, err)
	}
	return invoice, nil
}

func invoiceFilterConditions(scope models.Scope, filter models.InvoiceFilter) ([]string, []any) {
	var where []string
	var args []any
	where, args = scopeCondition(where, args, scope, "created_by")
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	return where, args
}

// scopeCondition appends the owner predicate for a restricted scope
func scopeCondition(where []string, args []any, scope models.Scope, column string) ([]string, []any) {
	if scope.OwnerID == nil {
		return where, args
	}
	args = append(args, *scope.OwnerID)
	return append(where, fmt.Sprintf("%s = $%d", column, len(args))), args
}

func whereClause(where []string) string {
	if len(where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(where, " AND ")
}
