package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound             = errors.New("record not found")
	ErrDuplicateReference   = errors.New("invoice reference already exists")
	ErrStatusConflict       = errors.New("invoice status changed concurrently")
	ErrDuplicateLedgerEntry = errors.New("ledger entry already recorded for invoice")
	ErrDuplicateUsername    = errors.New("username already exists")
	ErrDuplicateEmail       = errors.New("email already exists")
)

// Database is the subset of pgx shared by *pgxpool.Pool, pgx.Tx and
// pgxmock.PgxPoolIface
type Database interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store groups the invoice and ledger repositories so that writes to both can
// commit as one unit.
type Store interface {
	Invoices() InvoiceRepository
	Transactions() TransactionRepository
	// WithTx runs fn inside a database transaction. fn receives a Store bound
	// to that transaction; returning an error rolls everything back. Calls made
	// on a Store that is already transactional run inline.
	WithTx(ctx context.Context, fn func(Store) error) error
}

type pgStore struct {
	db   Database
	inTx bool
}

func NewStore(db Database) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Invoices() InvoiceRepository {
	return NewInvoiceRepo(s.db)
}

func (s *pgStore) Transactions() TransactionRepository {
	return NewTransactionRepo(s.db)
}

func (s *pgStore) WithTx(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// rolls back on error and on panic in fn; a failed Commit rolls back itself
	finished := false
	defer func() {
		if !finished {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(&pgStore{db: tx, inTx: true}); err != nil {
		return err
	}

	finished = true
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// uniqueViolation returns the constraint name when err is a Postgres unique
// violation (SQLSTATE 23505)
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}
