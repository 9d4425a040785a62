// Package stream mirrors audit events onto a Kafka topic for operational
// consumers. The stored trail remains the record of fact; the mirror is a
// best-effort copy that never sits in the request path.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"tutela/internal/consent/models"
	"tutela/internal/platform/metrics"
)

// DefaultTopic receives mirrored audit events unless overridden.
const DefaultTopic = "tutela.audit.events"

const (
	defaultRetries         = 3
	defaultDeliveryTimeout = 30 * time.Second
	closeFlushTimeout      = 10 * time.Second
)

// Config holds mirror connection settings.
type Config struct {
	Brokers         []string
	Topic           string
	Retries         int
	DeliveryTimeout time.Duration
}

// Mirror publishes audit events to Kafka. It satisfies the consent service's
// Mirror interface.
type Mirror struct {
	client  *kgo.Client
	topic   string
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	closed bool
}

// New builds a mirror. The client is lazy: the first produce dials the
// brokers, so a down broker surfaces as delivery failures, not here.
func New(cfg Config, logger *slog.Logger, met *metrics.Metrics) (*Mirror, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("audit mirror requires at least one broker")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = defaultRetries
	}
	deliveryTimeout := cfg.DeliveryTimeout
	if deliveryTimeout <= 0 {
		deliveryTimeout = defaultDeliveryTimeout
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordRetries(retries),
		kgo.RecordDeliveryTimeout(deliveryTimeout),
		kgo.ProducerLinger(5*time.Millisecond),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit mirror client: %w", err)
	}

	return &Mirror{
		client:  client,
		topic:   topic,
		logger:  logger,
		metrics: met,
	}, nil
}

// Publish enqueues one event. Delivery is asynchronous and detached from the
// caller's context so a finished request cannot cancel it; delivery failures
// are counted and logged by the callback.
func (m *Mirror) Publish(ctx context.Context, event models.AuditEvent) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return fmt.Errorf("audit mirror is closed")
	}
	m.mu.RUnlock()

	record, err := buildRecord(m.topic, event)
	if err != nil {
		return err
	}

	m.client.Produce(context.Background(), record, func(r *kgo.Record, err error) {
		if err == nil {
			return
		}
		m.metrics.IncrementAuditMirrorFailures()
		m.logger.Warn("audit mirror delivery failed",
			"topic", r.Topic, "action", event.Action, "error", err)
	})
	return nil
}

// Close flushes buffered events and releases the client.
func (m *Mirror) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), closeFlushTimeout)
	defer cancel()
	if err := m.client.Flush(ctx); err != nil {
		m.logger.Warn("audit mirror closed with undelivered events", "error", err)
	}
	m.client.Close()
	return nil
}

// buildRecord keys by subject so per-subject ordering holds within a
// partition. Process-level events carry no subject and round-robin instead.
func buildRecord(topic string, event models.AuditEvent) (*kgo.Record, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: topic,
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
		},
	}
	if event.UserID != "" {
		record.Key = []byte(event.UserID)
	}
	return record, nil
}
