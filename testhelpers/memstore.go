package testhelpers

import (
	"context"
	"sort"
	"sync"
	"time"

	"invoicedesk/internal/models"
	"invoicedesk/internal/repositories"

	"github.com/google/uuid"
)

// MemStore is an in-memory repositories.Store. WithTx holds a store-wide lock
// for the whole callback, which gives the same serialization as the row lock
// in Postgres, and restores a snapshot when the callback fails.
type MemStore struct {
	mu           sync.Mutex
	invoices     map[uuid.UUID]models.Invoice
	items        map[uuid.UUID][]models.InvoiceItem
	transactions []models.Transaction

	// FailTransactionCreate, when set, is returned by the next ledger insert
	FailTransactionCreate error
}

func NewMemStore() *MemStore {
	return &MemStore{
		invoices: make(map[uuid.UUID]models.Invoice),
		items:    make(map[uuid.UUID][]models.InvoiceItem),
	}
}

func (s *MemStore) Invoices() repositories.InvoiceRepository {
	return &memInvoices{view: &memView{store: s}}
}

func (s *MemStore) Transactions() repositories.TransactionRepository {
	return &memTransactions{view: &memView{store: s}}
}

func (s *MemStore) WithTx(ctx context.Context, fn func(repositories.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runTx(fn)
}

func (s *MemStore) runTx(fn func(repositories.Store) error) error {
	snapshot := s.snapshot()
	if err := fn(&memTx{store: s}); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

// TransactionsFor returns the ledger entries of an invoice in insertion order
func (s *MemStore) TransactionsFor(invoiceID uuid.UUID) []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Transaction
	for _, t := range s.transactions {
		if t.InvoiceID == invoiceID {
			out = append(out, t)
		}
	}
	return out
}

// InvoiceCount returns the number of stored invoices
func (s *MemStore) InvoiceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.invoices)
}

// TransactionCount returns the number of stored ledger entries
func (s *MemStore) TransactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions)
}

// AppendTransaction writes a ledger entry directly, bypassing the services
func (s *MemStore) AppendTransaction(t models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, t)
}

type memSnapshot struct {
	invoices     map[uuid.UUID]models.Invoice
	items        map[uuid.UUID][]models.InvoiceItem
	transactions []models.Transaction
}

func (s *MemStore) snapshot() memSnapshot {
	snap := memSnapshot{
		invoices:     make(map[uuid.UUID]models.Invoice, len(s.invoices)),
		items:        make(map[uuid.UUID][]models.InvoiceItem, len(s.items)),
		transactions: append([]models.Transaction(nil), s.transactions...),
	}
	for k, v := range s.invoices {
		snap.invoices[k] = v
	}
	for k, v := range s.items {
		snap.items[k] = append([]models.InvoiceItem(nil), v...)
	}
	return snap
}

func (s *MemStore) restore(snap memSnapshot) {
	s.invoices = snap.invoices
	s.items = snap.items
	s.transactions = snap.transactions
}

// memTx is the Store handed to a WithTx callback; the lock is already held
type memTx struct {
	store *MemStore
}

func (t *memTx) Invoices() repositories.InvoiceRepository {
	return &memInvoices{view: &memView{store: t.store, locked: true}}
}

func (t *memTx) Transactions() repositories.TransactionRepository {
	return &memTransactions{view: &memView{store: t.store, locked: true}}
}

func (t *memTx) WithTx(ctx context.Context, fn func(repositories.Store) error) error {
	return fn(t)
}

type memView struct {
	store  *MemStore
	locked bool
}

func (v *memView) do(fn func(s *MemStore) error) error {
	if !v.locked {
		v.store.mu.Lock()
		defer v.store.mu.Unlock()
	}
	return fn(v.store)
}

func visible(scope models.Scope, inv models.Invoice) bool {
	return scope.OwnerID == nil || inv.CreatedBy == *scope.OwnerID
}

type memInvoices struct {
	view *memView
}

func (r *memInvoices) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.view.do(func(s *MemStore) error {
		for _, existing := range s.invoices {
			if existing.Reference == invoice.Reference {
				return repositories.ErrDuplicateReference
			}
		}
		stored := *invoice
		stored.Items = nil
		s.invoices[invoice.ID] = stored
		return nil
	})
}

func (r *memInvoices) CreateItems(ctx context.Context, items []models.InvoiceItem) error {
	return r.view.do(func(s *MemStore) error {
		for _, item := range items {
			s.items[item.InvoiceID] = append(s.items[item.InvoiceID], item)
		}
		return nil
	})
}

func (r *memInvoices) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var exists bool
	err := r.view.do(func(s *MemStore) error {
		for _, inv := range s.invoices {
			if inv.Reference == reference {
				exists = true
				return nil
			}
		}
		return nil
	})
	return exists, err
}

func (r *memInvoices) GetByID(ctx context.Context, id uuid.UUID, scope models.Scope) (*models.Invoice, error) {
	var out *models.Invoice
	err := r.view.do(func(s *MemStore) error {
		inv, ok := s.invoices[id]
		if !ok || !visible(scope, inv) {
			return repositories.ErrNotFound
		}
		out = &inv
		return nil
	})
	return out, err
}

func (r *memInvoices) GetForUpdate(ctx context.Context, id uuid.UUID, scope models.Scope) (*models.Invoice, error) {
	return r.GetByID(ctx, id, scope)
}

func (r *memInvoices) filtered(s *MemStore, scope models.Scope, filter models.InvoiceFilter) []models.Invoice {
	var out []models.Invoice
	for _, inv := range s.invoices {
		if !visible(scope, inv) {
			continue
		}
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out
}

func (r *memInvoices) List(ctx context.Context, scope models.Scope, filter models.InvoiceFilter) ([]*models.Invoice, error) {
	var out []*models.Invoice
	err := r.view.do(func(s *MemStore) error {
		all := r.filtered(s, scope, filter)
		for i := filter.Offset; i < len(all) && len(out) < filter.Limit; i++ {
			inv := all[i]
			out = append(out, &inv)
		}
		return nil
	})
	return out, err
}

func (r *memInvoices) Count(ctx context.Context, scope models.Scope, filter models.InvoiceFilter) (int, error) {
	var n int
	err := r.view.do(func(s *MemStore) error {
		n = len(r.filtered(s, scope, filter))
		return nil
	})
	return n, err
}

func (r *memInvoices) ListItems(ctx context.Context, invoiceIDs []uuid.UUID) (map[uuid.UUID][]models.InvoiceItem, error) {
	out := make(map[uuid.UUID][]models.InvoiceItem, len(invoiceIDs))
	err := r.view.do(func(s *MemStore) error {
		for _, id := range invoiceIDs {
			if items, ok := s.items[id]; ok {
				out[id] = append([]models.InvoiceItem(nil), items...)
			}
		}
		return nil
	})
	return out, err
}

func (r *memInvoices) MarkPaid(ctx context.Context, id uuid.UUID) (time.Time, error) {
	var updatedAt time.Time
	err := r.view.do(func(s *MemStore) error {
		inv, ok := s.invoices[id]
		if !ok || inv.Status != models.InvoiceStatusPending {
			return repositories.ErrStatusConflict
		}
		updatedAt = time.Now().UTC()
		inv.Status = models.InvoiceStatusPaid
		inv.UpdatedAt = updatedAt
		s.invoices[id] = inv
		return nil
	})
	return updatedAt, err
}

type memTransactions struct {
	view *memView
}

func (r *memTransactions) Create(ctx context.Context, txn *models.Transaction) error {
	return r.view.do(func(s *MemStore) error {
		if s.FailTransactionCreate != nil {
			err := s.FailTransactionCreate
			s.FailTransactionCreate = nil
			return err
		}
		for _, existing := range s.transactions {
			if existing.InvoiceID == txn.InvoiceID && existing.TransactionType == txn.TransactionType {
				return repositories.ErrDuplicateLedgerEntry
			}
		}
		stored := *txn
		stored.Invoice = nil
		s.transactions = append(s.transactions, stored)
		return nil
	})
}

func (r *memTransactions) withSummary(s *MemStore, t models.Transaction) *models.Transaction {
	inv := s.invoices[t.InvoiceID]
	t.Invoice = &models.InvoiceSummary{
		ID:           inv.ID,
		Reference:    inv.Reference,
		CustomerName: inv.CustomerName,
		TotalAmount:  inv.TotalAmount,
		Status:       inv.Status,
		CreatedBy:    inv.CreatedBy,
	}
	return &t
}

func (r *memTransactions) GetByID(ctx context.Context, id uuid.UUID, scope models.Scope) (*models.Transaction, error) {
	var out *models.Transaction
	err := r.view.do(func(s *MemStore) error {
		for _, t := range s.transactions {
			if t.ID == id && visible(scope, s.invoices[t.InvoiceID]) {
				out = r.withSummary(s, t)
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

func (r *memTransactions) filtered(s *MemStore, scope models.Scope, filter models.TransactionFilter) []models.Transaction {
	var out []models.Transaction
	for _, t := range s.transactions {
		if !visible(scope, s.invoices[t.InvoiceID]) {
			continue
		}
		if filter.InvoiceID != nil && t.InvoiceID != *filter.InvoiceID {
			continue
		}
		if filter.Type != nil && t.TransactionType != *filter.Type {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func (r *memTransactions) List(ctx context.Context, scope models.Scope, filter models.TransactionFilter) ([]*models.Transaction, error) {
	var out []*models.Transaction
	err := r.view.do(func(s *MemStore) error {
		all := r.filtered(s, scope, filter)
		for i := filter.Offset; i < len(all) && len(out) < filter.Limit; i++ {
			out = append(out, r.withSummary(s, all[i]))
		}
		return nil
	})
	return out, err
}

func (r *memTransactions) Count(ctx context.Context, scope models.Scope, filter models.TransactionFilter) (int, error) {
	var n int
	err := r.view.do(func(s *MemStore) error {
		n = len(r.filtered(s, scope, filter))
		return nil
	})
	return n, err
}

func (r *memTransactions) FindLedgerAnomalies(ctx context.Context) ([]models.LedgerAnomaly, error) {
	var out []models.LedgerAnomaly
	err := r.view.do(func(s *MemStore) error {
		for _, inv := range s.invoices {
			a := models.LedgerAnomaly{
				InvoiceID:   inv.ID,
				Reference:   inv.Reference,
				Status:      inv.Status,
				TotalAmount: inv.TotalAmount,
			}
			for _, t := range s.transactions {
				if t.InvoiceID != inv.ID {
					continue
				}
				switch t.TransactionType {
				case models.TransactionTypeSale:
					a.SaleCount++
					a.SaleAmount = a.SaleAmount.Add(t.Amount)
				case models.TransactionTypePayment:
					a.PaymentCount++
				}
			}
			if len(a.Problems()) > 0 {
				out = append(out, a)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Reference < out[j].Reference })
		return nil
	})
	return out, err
}
