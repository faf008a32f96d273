// Package outbox relays committed audit outbox rows to Kafka.
package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"safenest/pkg/platform/audit/store/postgres"
)

// Source reads and acknowledges outbox rows.
type Source interface {
	FetchPending(ctx context.Context, limit int) ([]postgres.Entry, error)
	MarkProcessed(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Producer publishes one keyed message.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Relay polls the outbox and publishes pending rows in created order.
// Rows are marked processed only after the broker acknowledged them, so
// delivery is at least once.
type Relay struct {
	source    Source
	producer  Producer
	topic     string
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Relay)

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func NewRelay(source Source, producer Producer, topic string, opts ...Option) *Relay {
	r := &Relay{
		source:    source,
		producer:  producer,
		topic:     topic,
		interval:  2 * time.Second,
		batchSize: 100,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.RelayOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RelayOnce publishes one batch and returns how many rows were acknowledged.
// A produce failure stops the batch; rows published before it are still marked.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	entries, err := r.source.FetchPending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	published := make([]uuid.UUID, 0, len(entries))
	var produceErr error
	for _, entry := range entries {
		headers := map[string]string{
			"event_type":     entry.EventType,
			"aggregate_type": entry.AggregateType,
		}
		if err := r.producer.Produce(ctx, r.topic, []byte(entry.AggregateID), entry.Payload, headers); err != nil {
			produceErr = err
			break
		}
		published = append(published, entry.ID)
	}

	if err := r.source.MarkProcessed(ctx, published, r.now()); err != nil {
		return 0, err
	}
	if len(published) > 0 {
		r.logger.DebugContext(ctx, "outbox entries relayed", "count", len(published), "topic", r.topic)
	}
	return len(published), produceErr
}
