package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"invoicedesk/internal/models"
	"invoicedesk/testhelpers"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.InvoiceEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event *models.InvoiceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
	return p.err
}

func TestInvoiceEvents_CreatedAndPaid(t *testing.T) {
	publisher := &recordingPublisher{}
	service := NewInvoiceService(testhelpers.NewMemStore(), WithEventPublisher(publisher))
	ctx := context.Background()
	alice := testhelpers.StandardActor("alice")

	invoice, err := service.CreateInvoice(ctx, alice, testhelpers.InvoiceInput("INV-001"))
	require.NoError(t, err)
	_, err = service.MarkPaid(ctx, alice, invoice.ID)
	require.NoError(t, err)

	_, err = service.MarkPaid(ctx, alice, invoice.ID)
	require.Error(t, err)

	require.Len(t, publisher.events, 2)
	assert.Equal(t, models.EventInvoiceCreated, publisher.events[0].Type)
	assert.Equal(t, models.InvoiceStatusPending, publisher.events[0].Status)
	assert.Equal(t, models.EventInvoicePaid, publisher.events[1].Type)
	assert.Equal(t, models.InvoiceStatusPaid, publisher.events[1].Status)
	assert.Equal(t, invoice.ID, publisher.events[1].InvoiceID)
	assert.True(t, invoice.TotalAmount.Equal(publisher.events[1].Amount))
	assert.Equal(t, alice.ID, publisher.events[1].ActorID)
}

func TestInvoiceEvents_PublishFailureIsNotFatal(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("broker down")}
	store := testhelpers.NewMemStore()
	service := NewInvoiceService(store, WithEventPublisher(publisher))
	alice := testhelpers.StandardActor("alice")

	invoice, err := service.CreateInvoice(context.Background(), alice, testhelpers.InvoiceInput("INV-001"))
	require.NoError(t, err)
	assert.Len(t, store.TransactionsFor(invoice.ID), 1)
	assert.Len(t, publisher.events, 1)
}

func TestRedisEventPublisher_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	publisher := NewRedisEventPublisher(client, "")
	err := publisher.Publish(context.Background(), &models.InvoiceEvent{Type: models.EventInvoiceCreated})
	assert.Error(t, err)
}
