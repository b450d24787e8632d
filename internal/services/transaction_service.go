package services

import (
	"context"
	"errors"
	"fmt"

	"invoicedesk/internal/common"
	"invoicedesk/internal/models"
	"invoicedesk/internal/repositories"

	"github.com/google/uuid"
)

// TransactionService exposes the ledger read-only, scoped through the owning
// invoice
type TransactionService interface {
	ListTransactions(ctx context.Context, actor *models.Actor, filter models.TransactionFilter) (*models.TransactionPage, error)
	GetTransaction(ctx context.Context, actor *models.Actor, id uuid.UUID) (*models.Transaction, error)
}

type transactionService struct {
	store repositories.Store
}

func NewTransactionService(store repositories.Store) TransactionService {
	return &transactionService{store: store}
}

func (s *transactionService) ListTransactions(ctx context.Context, actor *models.Actor, filter models.TransactionFilter) (*models.TransactionPage, error) {
	if actor == nil {
		return nil, common.ErrAuthenticationRequired
	}
	if filter.Type != nil && *filter.Type != models.TransactionTypeSale && *filter.Type != models.TransactionTypePayment {
		return nil, common.NewValidationError("type", fmt.Sprintf("%q is not a valid choice.", *filter.Type))
	}

	filter.Limit, filter.Offset = common.ClampPagination(filter.Limit, filter.Offset)
	page := &models.TransactionPage{Transactions: []*models.Transaction{}, Limit: filter.Limit, Offset: filter.Offset}

	scope, ok := AccessFor(actor).Scope()
	if !ok {
		return page, nil
	}

	count, err := s.store.Transactions().Count(ctx, scope, filter)
	if err != nil {
		return nil, err
	}
	page.Count = count
	if count == 0 {
		return page, nil
	}

	txns, err := s.store.Transactions().List(ctx, scope, filter)
	if err != nil {
		return nil, err
	}
	page.Transactions = txns
	return page, nil
}

func (s *transactionService) GetTransaction(ctx context.Context, actor *models.Actor, id uuid.UUID) (*models.Transaction, error) {
	if actor == nil {
		return nil, common.ErrAuthenticationRequired
	}
	scope, ok := AccessFor(actor).Scope()
	if !ok {
		return nil, common.NewNotFoundError("Transaction")
	}

	txn, err := s.store.Transactions().GetByID(ctx, id, scope)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewNotFoundError("Transaction")
		}
		return nil, err
	}
	return txn, nil
}
