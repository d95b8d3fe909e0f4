package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prejin2310/megora-inventory/pkg/config"
	"github.com/prejin2310/megora-inventory/pkg/db/models"
	"github.com/prejin2310/megora-inventory/pkg/enums"
	"github.com/prejin2310/megora-inventory/pkg/logger"
	"github.com/prejin2310/megora-inventory/pkg/outbox"
)

func TestServiceProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			newEvent(t, enums.EventOrderCreated, enums.AggregateOrder),
			newEvent(t, enums.EventStockAdjusted, enums.AggregateProduct),
		},
	}
	sink := &fakeTransport{errs: []error{errors.New("transient"), nil}}
	service := newTestService(t, repo, sink, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.failed); got != 1 {
		t.Fatalf("unexpected number of failed rows: %d", got)
	}
	if got := len(repo.published); got != 1 {
		t.Fatalf("unexpected number of published rows: %d", got)
	}
	if repo.failed[0] != repo.events[0].ID {
		t.Fatalf("failed row recorded wrong ID")
	}
	if repo.published[0] != repo.events[1].ID {
		t.Fatalf("published row recorded wrong ID")
	}
}

func TestServiceProcessBatchReportsIdleWhenEmpty(t *testing.T) {
	repo := &fakeRepo{}
	sink := &fakeTransport{}
	service := newTestService(t, repo, sink, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if processed {
		t.Fatalf("expected empty batch to report idle")
	}
	if len(sink.published) != 0 {
		t.Fatalf("expected no publishes, got %d", len(sink.published))
	}
}

func TestServiceProcessBatchPassesMaxAttemptsToRepository(t *testing.T) {
	repo := &fakeRepo{}
	service := newTestService(t, repo, &fakeTransport{}, &config.OutboxConfig{BatchSize: 7, MaxAttempts: 3})

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if repo.lastLimit != 7 || repo.lastMaxAttempts != 3 {
		t.Fatalf("unexpected fetch args limit=%d maxAttempts=%d", repo.lastLimit, repo.lastMaxAttempts)
	}
}

func TestServiceProcessBatchAbortsOnMarkError(t *testing.T) {
	repo := &fakeRepo{
		events:     []models.OutboxEvent{newEvent(t, enums.EventOrderCreated, enums.AggregateOrder)},
		publishErr: errors.New("db down"),
	}
	service := newTestService(t, repo, &fakeTransport{}, nil)

	if _, err := service.processBatch(context.Background()); err == nil {
		t.Fatalf("expected mark error to abort batch")
	}
}

func TestRedisTransportUsesAggregateChannel(t *testing.T) {
	client := &fakeRedis{}
	sink := newRedisTransport(client, "megora.events.")
	event := newEvent(t, enums.EventOrderCancelled, enums.AggregateOrder)

	if err := sink.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if client.channel != "megora.events.order" {
		t.Fatalf("unexpected channel %q", client.channel)
	}
	if !bytes.Equal(client.payload, event.Payload) {
		t.Fatalf("payload not forwarded verbatim")
	}
}

func TestPubSubTransportRoutesByAggregate(t *testing.T) {
	client := &fakePubSub{}
	sink := newPubSubTransport(client, config.PubSubConfig{OrdersTopic: "orders", InventoryTopic: "inventory"})

	stock := newEvent(t, enums.EventStockAdjusted, enums.AggregateProduct)
	if err := sink.Publish(context.Background(), stock); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if client.topic != "inventory" {
		t.Fatalf("expected inventory topic, got %q", client.topic)
	}
	if client.attributes["event_type"] != string(enums.EventStockAdjusted) {
		t.Fatalf("unexpected attributes %v", client.attributes)
	}

	order := newEvent(t, enums.EventOrderReturned, enums.AggregateOrder)
	if err := sink.Publish(context.Background(), order); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if client.topic != "orders" {
		t.Fatalf("expected orders topic, got %q", client.topic)
	}
}

func TestNextBackoffCapsAtMax(t *testing.T) {
	base := 100 * time.Millisecond
	if got := nextBackoff(0, base, time.Second); got != 200*time.Millisecond {
		t.Fatalf("unexpected first backoff %s", got)
	}
	if got := nextBackoff(800*time.Millisecond, base, time.Second); got != time.Second {
		t.Fatalf("expected backoff capped at max, got %s", got)
	}
}

func TestWithJitterStaysInWindow(t *testing.T) {
	for i := 0; i < 50; i++ {
		got := withJitter(time.Second)
		if got < time.Second || got >= time.Second+jitterWindow {
			t.Fatalf("jitter out of window: %s", got)
		}
	}
	if withJitter(0) != 0 {
		t.Fatalf("expected zero duration to stay zero")
	}
}

func newTestService(t *testing.T, repo outboxRepository, sink transport, outboxCfgOverride *config.OutboxConfig) *Service {
	t.Helper()
	cfg := &config.Config{
		Outbox: config.OutboxConfig{
			BatchSize:      10,
			PollIntervalMS: 10,
			MaxAttempts:    5,
		},
	}
	if outboxCfgOverride != nil {
		cfg.Outbox = *outboxCfgOverride
	}
	logg := logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard})
	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         &fakeDB{},
		Repository: repo,
		Transport:  sink,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func newEvent(tb testing.TB, eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType) models.OutboxEvent {
	tb.Helper()
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{}`),
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		tb.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: aggregate,
		AggregateID:   uuid.New(),
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}
}

type fakeRepo struct {
	events          []models.OutboxEvent
	published       []uuid.UUID
	failed          []uuid.UUID
	publishErr      error
	lastLimit       int
	lastMaxAttempts int
}

func (f *fakeRepo) FetchUnpublishedForPublish(_ *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	f.lastLimit = limit
	f.lastMaxAttempts = maxAttempts
	return f.events, nil
}

func (f *fakeRepo) MarkPublished(_ *gorm.DB, id uuid.UUID) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakeDB struct{}

func (f *fakeDB) Ping(context.Context) error {
	return nil
}

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakeTransport struct {
	errs      []error
	published []uuid.UUID
}

func (f *fakeTransport) Name() string { return "fake" }

func (f *fakeTransport) Ping(context.Context) error { return nil }

func (f *fakeTransport) Publish(_ context.Context, event models.OutboxEvent) error {
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return err
		}
	}
	f.published = append(f.published, event.ID)
	return nil
}

type fakeRedis struct {
	channel string
	payload []byte
}

func (f *fakeRedis) Ping(context.Context) error { return nil }

func (f *fakeRedis) Publish(_ context.Context, channel string, payload []byte) (int64, error) {
	f.channel = channel
	f.payload = payload
	return 1, nil
}

type fakePubSub struct {
	topic      string
	attributes map[string]string
}

func (f *fakePubSub) Ping(context.Context) error { return nil }

func (f *fakePubSub) Publish(_ context.Context, topic string, _ []byte, attributes map[string]string) (string, error) {
	f.topic = topic
	f.attributes = attributes
	return "msg-1", nil
}
