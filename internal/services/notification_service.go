package services

import (
	"context"
	"encoding/json"
	"fmt"

	"invoicedesk/internal/models"

	"github.com/redis/go-redis/v9"
)

const DefaultEventsChannel = "invoicedesk:events"

// EventPublisher fans invoice lifecycle events out to subscribers. Delivery is
// best effort and never rolls back the change that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, event *models.InvoiceEvent) error
}

type redisEventPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisEventPublisher publishes events as JSON on a Redis pub/sub channel
func NewRedisEventPublisher(client redis.UniversalClient, channel string) EventPublisher {
	if channel == "" {
		channel = DefaultEventsChannel
	}
	return &redisEventPublisher{client: client, channel: channel}
}

func (p *redisEventPublisher) Publish(ctx context.Context, event *models.InvoiceEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}

type nopEventPublisher struct{}

func (nopEventPublisher) Publish(context.Context, *models.InvoiceEvent) error { return nil }
