package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"invoicedesk/internal/common"
	"invoicedesk/internal/logger"
	"invoicedesk/internal/models"
	"invoicedesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	msgOnlyPendingPayable = "Only pending invoices can be marked as paid."
	msgAtLeastOneItem     = "Invoice must have at least one item."
	msgDuplicateReference = "invoice with this reference already exists."
	msgTooManyDigits      = "Ensure that there are no more than 10 digits in total."
)

// InvoiceService owns the invoice lifecycle: creation with its Sale entry and
// the single PENDING -> PAID transition with its Payment entry.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, actor *models.Actor, input *models.CreateInvoiceInput) (*models.Invoice, error)
	// UpdateInvoice is the only way an invoice changes after creation.
	UpdateInvoice(ctx context.Context, actor *models.Actor, id uuid.UUID, update *models.InvoiceUpdate) (*models.Invoice, error)
	MarkPaid(ctx context.Context, actor *models.Actor, id uuid.UUID) (*models.Invoice, error)
	GetInvoice(ctx context.Context, actor *models.Actor, id uuid.UUID) (*models.Invoice, error)
	ListInvoices(ctx context.Context, actor *models.Actor, filter models.InvoiceFilter) (*models.InvoicePage, error)
}

type invoiceService struct {
	store  repositories.Store
	events EventPublisher
	now    func() time.Time
	log    zerolog.Logger
}

type InvoiceOption func(*invoiceService)

// WithEventPublisher announces created and paid invoices once committed
func WithEventPublisher(p EventPublisher) InvoiceOption {
	return func(s *invoiceService) {
		if p != nil {
			s.events = p
		}
	}
}

func NewInvoiceService(store repositories.Store, opts ...InvoiceOption) InvoiceService {
	s := &invoiceService{
		store:  store,
		events: nopEventPublisher{},
		now:    func() time.Time { return time.Now().UTC() },
		log:    logger.WithComponent("invoice_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *invoiceService) CreateInvoice(ctx context.Context, actor *models.Actor, input *models.CreateInvoiceInput) (*models.Invoice, error) {
	if actor == nil {
		return nil, common.ErrAuthenticationRequired
	}
	if input == nil {
		return nil, common.NewValidationError("non_field_errors", "No data provided.")
	}

	normalizeCreateInput(input)
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	now := s.now()
	invoice := &models.Invoice{
		ID:            uuid.New(),
		Reference:     input.Reference,
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
		CustomerPhone: input.CustomerPhone,
		Status:        models.InvoiceStatusPending,
		CreatedBy:     actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	invoice.Items = make([]models.InvoiceItem, 0, len(input.Items))
	for _, in := range input.Items {
		invoice.Items = append(invoice.Items, models.InvoiceItem{
			ID:        uuid.New(),
			InvoiceID: invoice.ID,
			Name:      in.Name,
			Quantity:  in.Quantity,
			Price:     in.Price,
		})
	}
	invoice.TotalAmount = models.ItemsTotal(invoice.Items)

	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		exists, err := tx.Invoices().ReferenceExists(ctx, invoice.Reference)
		if err != nil {
			return err
		}
		if exists {
			return common.NewConflictError("reference", msgDuplicateReference)
		}

		if err := tx.Invoices().Create(ctx, invoice); err != nil {
			if errors.Is(err, repositories.ErrDuplicateReference) {
				return common.NewConflictError("reference", msgDuplicateReference)
			}
			return err
		}
		if err := tx.Invoices().CreateItems(ctx, invoice.Items); err != nil {
			return err
		}
		return tx.Transactions().Create(ctx, &models.Transaction{
			ID:              uuid.New(),
			InvoiceID:       invoice.ID,
			TransactionType: models.TransactionTypeSale,
			Amount:          invoice.TotalAmount,
			Date:            now,
		})
	})
	if err != nil {
		return nil, s.persistenceError(err, "create invoice")
	}

	s.log.Info().
		Str("invoice_id", invoice.ID.String()).
		Str("reference", invoice.Reference).
		Str("total_amount", invoice.TotalAmount.StringFixed(2)).
		Str("created_by", actor.ID.String()).
		Msg("Invoice created")

	s.publish(ctx, models.NewInvoiceEvent(models.EventInvoiceCreated, invoice, actor.ID, now))
	return invoice, nil
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, actor *models.Actor, id uuid.UUID, update *models.InvoiceUpdate) (*models.Invoice, error) {
	if actor == nil {
		return nil, common.ErrAuthenticationRequired
	}
	if update == nil {
		update = &models.InvoiceUpdate{}
	}
	if fields := update.ImmutableFields(); len(fields) > 0 {
		return nil, common.NewImmutableFieldError(fields)
	}
	if update.Status == nil || strings.TrimSpace(*update.Status) == "" {
		return nil, common.NewValidationError("status", "This field is required.")
	}

	target := strings.TrimSpace(*update.Status)
	switch target {
	case models.InvoiceStatusPaid:
	case models.InvoiceStatusPending:
		return nil, common.NewInvalidTransitionError(msgOnlyPendingPayable)
	default:
		return nil, common.NewValidationError("status", fmt.Sprintf("%q is not a valid choice.", target))
	}

	scope, ok := AccessFor(actor).Scope()
	if !ok {
		return nil, common.NewNotFoundError("Invoice")
	}

	var invoice *models.Invoice
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		current, err := tx.Invoices().GetForUpdate(ctx, id, scope)
		if err != nil {
			return err
		}
		if !current.IsPending() {
			return common.NewInvalidTransitionError(msgOnlyPendingPayable)
		}

		updatedAt, err := tx.Invoices().MarkPaid(ctx, id)
		if err != nil {
			return err
		}
		current.Status = models.InvoiceStatusPaid
		current.UpdatedAt = updatedAt

		if err := tx.Transactions().Create(ctx, &models.Transaction{
			ID:              uuid.New(),
			InvoiceID:       current.ID,
			TransactionType: models.TransactionTypePayment,
			Amount:          current.TotalAmount,
			Date:            s.now(),
		}); err != nil {
			return err
		}

		items, err := tx.Invoices().ListItems(ctx, []uuid.UUID{current.ID})
		if err != nil {
			return err
		}
		current.Items = itemsOrEmpty(items[current.ID])
		invoice = current
		return nil
	})
	if err != nil {
		return nil, s.persistenceError(err, "mark invoice paid")
	}

	s.log.Info().
		Str("invoice_id", invoice.ID.String()).
		Str("reference", invoice.Reference).
		Str("amount", invoice.TotalAmount.StringFixed(2)).
		Str("actor_id", actor.ID.String()).
		Msg("Invoice paid")

	s.publish(ctx, models.NewInvoiceEvent(models.EventInvoicePaid, invoice, actor.ID, invoice.UpdatedAt))
	return invoice, nil
}

func (s *invoiceService) MarkPaid(ctx context.Context, actor *models.Actor, id uuid.UUID) (*models.Invoice, error) {
	status := models.InvoiceStatusPaid
	return s.UpdateInvoice(ctx, actor, id, &models.InvoiceUpdate{Status: &status})
}

func (s *invoiceService) GetInvoice(ctx context.Context, actor *models.Actor, id uuid.UUID) (*models.Invoice, error) {
	scope, ok := AccessFor(actor).Scope()
	if !ok {
		return nil, common.NewNotFoundError("Invoice")
	}

	invoice, err := s.store.Invoices().GetByID(ctx, id, scope)
	if err != nil {
		return nil, s.persistenceError(err, "get invoice")
	}

	items, err := s.store.Invoices().ListItems(ctx, []uuid.UUID{invoice.ID})
	if err != nil {
		return nil, s.persistenceError(err, "list invoice items")
	}
	invoice.Items = itemsOrEmpty(items[invoice.ID])
	return invoice, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, actor *models.Actor, filter models.InvoiceFilter) (*models.InvoicePage, error) {
	filter.Limit, filter.Offset = common.ClampPagination(filter.Limit, filter.Offset)
	page := &models.InvoicePage{Invoices: []*models.Invoice{}, Limit: filter.Limit, Offset: filter.Offset}

	if filter.Status != nil && *filter.Status != models.InvoiceStatusPending && *filter.Status != models.InvoiceStatusPaid {
		return nil, common.NewValidationError("status", fmt.Sprintf("%q is not a valid choice.", *filter.Status))
	}

	scope, ok := AccessFor(actor).Scope()
	if !ok {
		return page, nil
	}

	count, err := s.store.Invoices().Count(ctx, scope, filter)
	if err != nil {
		return nil, s.persistenceError(err, "count invoices")
	}
	page.Count = count
	if count == 0 {
		return page, nil
	}

	invoices, err := s.store.Invoices().List(ctx, scope, filter)
	if err != nil {
		return nil, s.persistenceError(err, "list invoices")
	}

	ids := make([]uuid.UUID, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
	}
	items, err := s.store.Invoices().ListItems(ctx, ids)
	if err != nil {
		return nil, s.persistenceError(err, "list invoice items")
	}
	for _, inv := range invoices {
		inv.Items = itemsOrEmpty(items[inv.ID])
	}

	page.Invoices = invoices
	return page, nil
}

func (s *invoiceService) publish(ctx context.Context, event *models.InvoiceEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).
			Str("event", event.Type).
			Str("invoice_id", event.InvoiceID.String()).
			Msg("Failed to publish invoice event")
	}
}

// persistenceError maps repository sentinels to domain errors. Anything
// unrecognised is passed through untouched and logged.
func (s *invoiceService) persistenceError(err error, op string) error {
	if _, ok := common.AsAppError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return common.NewNotFoundError("Invoice")
	case errors.Is(err, repositories.ErrStatusConflict), errors.Is(err, repositories.ErrDuplicateLedgerEntry):
		return common.NewInvalidTransitionError(msgOnlyPendingPayable)
	case errors.Is(err, repositories.ErrDuplicateReference):
		return common.NewConflictError("reference", msgDuplicateReference)
	}
	s.log.Error().Err(err).Str("operation", op).Msg("Invoice persistence failed")
	return fmt.Errorf("failed to %s: %w", op, err)
}

func normalizeCreateInput(input *models.CreateInvoiceInput) {
	input.Reference = strings.TrimSpace(input.Reference)
	input.CustomerName = strings.TrimSpace(input.CustomerName)
	input.CustomerEmail = trimOptional(input.CustomerEmail)
	input.CustomerPhone = trimOptional(input.CustomerPhone)
	for i := range input.Items {
		input.Items[i].Name = strings.TrimSpace(input.Items[i].Name)
	}
}

func validateCreateInput(input *models.CreateInvoiceInput) error {
	details := validateStruct(input)

	if len(input.Items) == 0 {
		details = mergeDetails(details, map[string]string{"items": msgAtLeastOneItem})
	}

	total := decimal.Zero
	for i, item := range input.Items {
		field := fmt.Sprintf("items[%d].price", i)
		switch {
		case item.Price.IsNegative():
			details = mergeDetails(details, map[string]string{field: "Ensure this value is greater than or equal to 0."})
		case !item.Price.Equal(item.Price.Round(2)):
			details = mergeDetails(details, map[string]string{field: "Ensure that there are no more than 2 decimal places."})
		case item.Price.GreaterThan(models.MaxInvoiceTotal):
			details = mergeDetails(details, map[string]string{field: msgTooManyDigits})
		}
		if item.Quantity > 0 && item.Quantity <= models.MaxItemQuantity {
			total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	if total.GreaterThan(models.MaxInvoiceTotal) {
		details = mergeDetails(details, map[string]string{"total_amount": msgTooManyDigits})
	}

	return validationResult(details)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func itemsOrEmpty(items []models.InvoiceItem) []models.InvoiceItem {
	if items == nil {
		return []models.InvoiceItem{}
	}
	return items
}
