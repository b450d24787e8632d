package testhelpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"invoicedesk/internal/models"
	"invoicedesk/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func() error
}

// SetupTestDB connects to TEST_DATABASE_URL, applies the schema and empties
// every table. The test is skipped when the variable is not set.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE transactions, invoice_items, invoices, users CASCADE`); err != nil {
		pool.Close()
		t.Fatalf("Failed to truncate test database: %v", err)
	}

	return &TestDB{
		Pool: pool,
		Cleanup: func() error {
			pool.Close()
			return nil
		},
	}
}

// SetupTestUser inserts an account and returns it as an actor
func SetupTestUser(t *testing.T, db *TestDB, username string, staff bool) *models.Actor {
	t.Helper()

	id := uuid.New()
	query := `
		INSERT INTO users (id, username, email, password_hash, is_staff, date_joined)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := db.Pool.Exec(context.Background(), query, id, username, fmt.Sprintf("%s@example.com", username), "x", staff, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return &models.Actor{ID: id, Username: username, Elevated: staff}
}

// StandardActor returns a non-elevated caller
func StandardActor(username string) *models.Actor {
	return &models.Actor{ID: uuid.New(), Username: username}
}

// ElevatedActor returns a staff caller
func ElevatedActor(username string) *models.Actor {
	return &models.Actor{ID: uuid.New(), Username: username, Elevated: true}
}

// InvoiceInput returns a valid create request totalling 250.00
// (2 x 100.00 + 1 x 50.00)
func InvoiceInput(reference string) *models.CreateInvoiceInput {
	email := "billing@acme.test"
	return &models.CreateInvoiceInput{
		Reference:     reference,
		CustomerName:  "Acme Corp",
		CustomerEmail: &email,
		Items: []models.InvoiceItemInput{
			{Name: "Widget", Quantity: 2, Price: decimal.RequireFromString("100.00")},
			{Name: "Gadget", Quantity: 1, Price: decimal.RequireFromString("50.00")},
		},
	}
}
