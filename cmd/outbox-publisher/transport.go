package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prejin2310/megora-inventory/pkg/config"
	"github.com/prejin2310/megora-inventory/pkg/db/models"
	"github.com/prejin2310/megora-inventory/pkg/enums"
	"github.com/prejin2310/megora-inventory/pkg/pubsub"
)

type redisPublisher interface {
	Ping(context.Context) error
	Publish(ctx context.Context, channel string, payload []byte) (int64, error)
}

type pubsubPublisher interface {
	Ping(context.Context) error
	Publish(ctx context.Context, topic string, data []byte, attributes map[string]string) (string, error)
}

// redisTransport fans events out on "<prefix>.<aggregate>" channels.
type redisTransport struct {
	client redisPublisher
	prefix string
}

func newRedisTransport(client redisPublisher, prefix string) *redisTransport {
	return &redisTransport{client: client, prefix: strings.TrimSuffix(strings.TrimSpace(prefix), ".")}
}

func (t *redisTransport) Name() string { return string(enums.OutboxTransportRedis) }

func (t *redisTransport) Ping(ctx context.Context) error { return t.client.Ping(ctx) }

func (t *redisTransport) Publish(ctx context.Context, event models.OutboxEvent) error {
	if _, err := t.client.Publish(ctx, t.channel(event), event.Payload); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (t *redisTransport) channel(event models.OutboxEvent) string {
	if t.prefix == "" {
		return string(event.AggregateType)
	}
	return t.prefix + "." + string(event.AggregateType)
}

type pubsubTransport struct {
	client pubsubPublisher
	cfg    config.PubSubConfig
}

func newPubSubTransport(client pubsubPublisher, cfg config.PubSubConfig) *pubsubTransport {
	return &pubsubTransport{client: client, cfg: cfg}
}

func (t *pubsubTransport) Name() string { return string(enums.OutboxTransportPubSub) }

func (t *pubsubTransport) Ping(ctx context.Context) error { return t.client.Ping(ctx) }

func (t *pubsubTransport) Publish(ctx context.Context, event models.OutboxEvent) error {
	topic := pubsub.TopicFor(t.cfg, event.AggregateType)
	if _, err := t.client.Publish(ctx, topic, event.Payload, eventAttributes(event)); err != nil {
		return fmt.Errorf("pubsub publish %s: %w", topic, err)
	}
	return nil
}

func eventAttributes(event models.OutboxEvent) map[string]string {
	return map[string]string{
		"outbox_id":      event.ID.String(),
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
